package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, _, err := New("production", "loud")
	assert.Error(t, err)
}

func TestNew_BuildsLogger(t *testing.T) {
	log, sync, err := New("production", "warn")
	require.NoError(t, err)
	require.NotNil(t, log)
	require.NotNil(t, sync)
}

func TestFromZap_ForwardsAttributes(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := FromZap(zap.New(core))

	log.Info("account approved", "user_id", int64(42))
	log.Debug("dropped")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "account approved", entries[0].Message)
	assert.Equal(t, int64(42), entries[0].ContextMap()["user_id"])
}
