package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig carries the pool settings resolved from configuration.
type PoolConfig struct {
	DSN            string
	Schemas        []string
	MaxConns       int32
	ConnectTimeout time.Duration
	IdleTimeout    time.Duration
}

// NewPostgresPool creates a PostgreSQL connection pool. Every new physical
// connection gets its search_path set to the candidate schemas. An unreachable
// server is retried a few times and then logged; the pool is still returned so
// the service can come up and recover once the database is back.
func NewPostgresPool(ctx context.Context, cfg PoolConfig, log *slog.Logger) (*pgxpool.Pool, error) {
	if cfg.DSN == "" {
		return nil, errors.New("database DSN is empty")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.IdleTimeout > 0 {
		poolCfg.MaxConnIdleTime = cfg.IdleTimeout
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	searchPath := SearchPathSQL(cfg.Schemas)
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if searchPath == "" {
			return nil
		}
		if _, err := conn.Exec(ctx, searchPath); err != nil {
			log.Warn("failed to set search_path on new connection", "error", err)
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	const maxRetries = 5
	retryDelay := 2 * time.Second
	for i := 0; i < maxRetries; i++ {
		pingErr := pool.Ping(ctx)
		if pingErr == nil {
			log.Info("connected to PostgreSQL", "host", poolCfg.ConnConfig.Host, "database", poolCfg.ConnConfig.Database)
			return pool, nil
		}
		log.Warn("could not reach database",
			"attempt", i+1, "max_attempts", maxRetries, "error", pingErr, "hint", ConnectionHint(pingErr))
		select {
		case <-ctx.Done():
			return pool, nil
		case <-time.After(retryDelay):
		}
	}
	log.Warn("database still unreachable, continuing startup; queries may fail until it recovers")
	return pool, nil
}

// SearchPathSQL builds a SET search_path statement for the given schemas,
// quoting each one. Returns "" when no schema is usable.
func SearchPathSQL(schemas []string) string {
	quoted := make([]string, 0, len(schemas))
	for _, s := range schemas {
		if s = strings.TrimSpace(s); s != "" {
			quoted = append(quoted, pgx.Identifier{s}.Sanitize())
		}
	}
	if len(quoted) == 0 {
		return ""
	}
	return "SET search_path TO " + strings.Join(quoted, ", ")
}

// ConnectionHint returns an operator-facing suggestion for common connection failures.
func ConnectionHint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "28P01":
			return "check DB_USER and DB_PASSWORD or the DATABASE_URL credentials"
		case "3D000":
			return "database does not exist, check DB_NAME"
		case "57P03":
			return "database is starting up, try again shortly"
		}
		return ""
	}
	msg := err.Error()
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "timeout") {
		return "check that DB_HOST/DB_PORT are correct and the PostgreSQL server is reachable"
	}
	return ""
}
