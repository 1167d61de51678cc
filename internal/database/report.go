package database

import (
	"context"
	"errors"
	"time"
)

// CheckConnection logs the server time, the detected schema and whether the
// anchor table exists. It never stops startup; the returned error is only
// informational.
func (m *Manager) CheckConnection(ctx context.Context) error {
	var now time.Time
	if err := m.pool.QueryRow(ctx, "SELECT NOW()").Scan(&now); err != nil {
		m.log.Error("database connection check failed", "error", err, "hint", ConnectionHint(err))
		m.log.Warn("server will continue to start, database operations may fail")
		return err
	}

	schema, err := m.Schema(ctx)
	switch {
	case errors.Is(err, ErrAnchorNotFound):
		m.log.Warn("table not found in any candidate schema, run migrations",
			"table", m.opts.AnchorTable, "schemas", m.opts.Schemas)
		return err
	case err != nil:
		m.log.Error("schema detection failed", "error", err)
		return err
	}
	m.log.Info("database ready", "server_time", now, "schema", schema, "table", m.opts.AnchorTable)
	return nil
}
