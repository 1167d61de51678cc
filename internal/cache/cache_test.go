package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return srv, client
}

func TestNewRedisClient(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+srv.Addr())
	require.NoError(t, err)
	assert.NoError(t, client.Close())

	_, err = NewRedisClient(context.Background(), "")
	assert.Error(t, err)

	_, err = NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestTokenDenylist(t *testing.T) {
	srv, client := newTestRedis(t)
	d := NewTokenDenylist(client)
	ctx := context.Background()

	revoked, err := d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, d.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
	revoked, err = d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	srv.FastForward(2 * time.Hour)
	revoked, err = d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestTokenDenylist_SkipsExpiredTokens(t *testing.T) {
	srv, client := newTestRedis(t)
	d := NewTokenDenylist(client)

	require.NoError(t, d.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)))
	assert.Empty(t, srv.Keys())
}

func TestCooldown(t *testing.T) {
	srv, client := newTestRedis(t)
	c := NewCooldown(client, "resend:", time.Minute)
	ctx := context.Background()

	ok, err := c.Allow(ctx, "A@B.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Allow(ctx, "a@b.com")
	require.NoError(t, err)
	assert.False(t, ok)

	srv.FastForward(61 * time.Second)
	ok, err = c.Allow(ctx, "a@b.com")
	require.NoError(t, err)
	assert.True(t, ok)
}
