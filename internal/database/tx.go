package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// InTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back when it returns an error or panics; in every
// case the underlying connection goes back to the pool.
func (m *Manager) InTx(ctx context.Context, fn func(DBTX) error) (err error) {
	// Resolve the schema before holding a connection so normalization inside
	// the transaction never waits on a second pool connection.
	_, _ = m.Schema(ctx)

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				m.log.Error("transaction rollback failed", "error", rbErr)
			}
		}
	}()

	if err = fn(&txConn{m: m, tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txConn normalizes statements run inside a transaction. Self-heal is not
// attempted here since a failed statement aborts the transaction.
type txConn struct {
	m  *Manager
	tx pgx.Tx
}

func (c *txConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return c.tx.Exec(ctx, c.m.Normalize(ctx, sql), args...)
}

func (c *txConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return c.tx.Query(ctx, c.m.Normalize(ctx, sql), args...)
}

func (c *txConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return c.tx.QueryRow(ctx, c.m.Normalize(ctx, sql), args...)
}
