package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/sync/singleflight"
)

// DBTX is the statement surface shared by the Manager and the transaction
// handle passed to InTx. Repositories depend on this, not on the pool.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is the subset of *pgxpool.Pool used by the Manager.
type Pool interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ErrAnchorNotFound is returned by Schema when none of the candidate schemas
// holds the anchor table.
var ErrAnchorNotFound = errors.New("anchor table not found in candidate schemas")

// Options configures schema detection, normalization and self-heal.
type Options struct {
	// Schemas is the ordered list of candidate schemas.
	Schemas []string
	// AnchorTable is the table whose schema is detected.
	AnchorTable string
	// Tables are the bare table names rewritten to the detected schema.
	Tables []string
	// PrimaryKeys maps a table to the identity column self-heal may add.
	PrimaryKeys map[string]string
	// SelfHeal enables adding a missing primary key column and retrying once.
	SelfHeal bool
	// MissBackoff is how long a failed anchor lookup is remembered before the
	// catalog is queried again.
	MissBackoff time.Duration
}

// DefaultOptions returns the options for the account tables.
func DefaultOptions(schemas []string) Options {
	return Options{
		Schemas:     schemas,
		AnchorTable: "users",
		Tables:      []string{"users", "users_sessions"},
		PrimaryKeys: map[string]string{
			"users":          "user_id",
			"users_sessions": "session_id",
		},
		MissBackoff: 30 * time.Second,
	}
}

type tableRef struct {
	name    string
	rewrite *regexp.Regexp
	mention *regexp.Regexp
}

// Manager executes statements against the pool. It resolves the schema that
// holds the anchor table, qualifies bare table references with it, absorbs
// pool-level fatal errors and optionally repairs a missing primary key.
type Manager struct {
	pool   Pool
	opts   Options
	log    *slog.Logger
	tables []tableRef

	detect   singleflight.Group
	now      func() time.Time
	mu       sync.Mutex
	schema   string
	missedAt time.Time
}

// NewManager creates a Manager over the given pool.
func NewManager(pool Pool, opts Options, log *slog.Logger) *Manager {
	m := &Manager{pool: pool, opts: opts, log: log, now: time.Now}
	for _, t := range opts.Tables {
		q := regexp.QuoteMeta(t)
		m.tables = append(m.tables, tableRef{
			name:    t,
			rewrite: regexp.MustCompile(`(?i)\b(FROM|JOIN|INTO|UPDATE|TABLE)(\s+)` + q + `(\s|,|;|\(|\)|$)`),
			mention: regexp.MustCompile(`(?i)\b` + q + `\b`),
		})
	}
	return m
}

const detectSchemaSQL = `SELECT table_schema::text FROM information_schema.tables
WHERE table_name = $1 AND table_schema = ANY($2)
ORDER BY array_position($2, table_schema::text) LIMIT 1`

// Schema returns the first candidate schema holding the anchor table. The
// answer is cached for the lifetime of the Manager once found. A missing
// anchor table is remembered for MissBackoff; other failures are not cached.
// Concurrent callers share one catalog query.
func (m *Manager) Schema(ctx context.Context) (string, error) {
	if m.opts.AnchorTable == "" || len(m.opts.Schemas) == 0 {
		return "", ErrAnchorNotFound
	}
	m.mu.Lock()
	schema, missedAt := m.schema, m.missedAt
	m.mu.Unlock()
	if schema != "" {
		return schema, nil
	}
	if !missedAt.IsZero() && m.now().Sub(missedAt) < m.opts.MissBackoff {
		return "", ErrAnchorNotFound
	}

	v, err, _ := m.detect.Do("schema", func() (any, error) {
		return m.detectSchema(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *Manager) detectSchema(ctx context.Context) (string, error) {
	var schema string
	err := m.pool.QueryRow(ctx, detectSchemaSQL, m.opts.AnchorTable, m.opts.Schemas).Scan(&schema)
	m.mu.Lock()
	defer m.mu.Unlock()
	if errors.Is(err, pgx.ErrNoRows) {
		m.missedAt = m.now()
		return "", ErrAnchorNotFound
	}
	if err != nil {
		return "", fmt.Errorf("detect schema: %w", err)
	}
	m.schema, m.missedAt = schema, time.Time{}
	m.log.Info("detected schema", "table", m.opts.AnchorTable, "schema", schema)
	return schema, nil
}

// Normalize qualifies bare references to the known tables with the detected
// schema. References that are already qualified are left alone. When the
// schema cannot be detected the statement is returned unchanged and the
// connection's search_path applies.
func (m *Manager) Normalize(ctx context.Context, sql string) string {
	if len(m.tables) == 0 {
		return sql
	}
	schema, err := m.Schema(ctx)
	if err != nil {
		m.log.Debug("schema detection unavailable, statement left unqualified", "error", err)
		return sql
	}
	prefix := strings.ReplaceAll(pgx.Identifier{schema}.Sanitize(), "$", "$$")
	for _, t := range m.tables {
		sql = t.rewrite.ReplaceAllString(sql, "${1}${2}"+prefix+"."+t.name+"${3}")
	}
	return sql
}

// Exec runs a statement that returns no rows.
func (m *Manager) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	sql = m.Normalize(ctx, sql)
	tag, err := m.pool.Exec(ctx, sql, args...)
	if err == nil {
		return tag, nil
	}
	switch m.classify(ctx, sql, err) {
	case outcomeAbsorb:
		return pgconn.CommandTag{}, nil
	case outcomeRetry:
		return m.pool.Exec(ctx, sql, args...)
	}
	return tag, err
}

// Query runs a statement returning rows. Errors reported later through
// rows.Err are passed through untouched.
func (m *Manager) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	sql = m.Normalize(ctx, sql)
	rows, err := m.pool.Query(ctx, sql, args...)
	if err == nil {
		return rows, nil
	}
	switch m.classify(ctx, sql, err) {
	case outcomeAbsorb:
		return emptyRows{}, nil
	case outcomeRetry:
		return m.pool.Query(ctx, sql, args...)
	}
	return rows, err
}

// QueryRow runs a statement returning at most one row. Failures surface from
// Scan; an absorbed fatal error reads as pgx.ErrNoRows.
func (m *Manager) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return &managedRow{m: m, ctx: ctx, sql: m.Normalize(ctx, sql), args: args}
}

type managedRow struct {
	m    *Manager
	ctx  context.Context
	sql  string
	args []any
}

func (r *managedRow) Scan(dest ...any) error {
	err := r.m.pool.QueryRow(r.ctx, r.sql, r.args...).Scan(dest...)
	if err == nil || errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	switch r.m.classify(r.ctx, r.sql, err) {
	case outcomeAbsorb:
		return pgx.ErrNoRows
	case outcomeRetry:
		return r.m.pool.QueryRow(r.ctx, r.sql, r.args...).Scan(dest...)
	}
	return err
}

type outcome int

const (
	outcomePropagate outcome = iota
	outcomeAbsorb
	outcomeRetry
)

func (m *Manager) classify(ctx context.Context, sql string, err error) outcome {
	if IsFatal(err) {
		m.log.Error("database unavailable, returning empty result", "error", err)
		return outcomeAbsorb
	}
	if m.opts.SelfHeal {
		if table, column, ok := m.missingKey(sql, err); ok {
			if healErr := m.addPrimaryKey(ctx, table, column); healErr != nil {
				m.log.Error("self-heal failed", "table", table, "column", column, "error", healErr)
			} else {
				m.log.Warn("added missing primary key column, retrying statement", "table", table, "column", column)
				return outcomeRetry
			}
		}
	}
	m.log.Error("database statement failed", "error", err)
	return outcomePropagate
}

// missingKey reports which known primary key column an undefined-column
// error refers to, limited to tables the statement mentions.
func (m *Manager) missingKey(sql string, err error) (string, string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "42703" {
		return "", "", false
	}
	tables := make([]string, 0, len(m.opts.PrimaryKeys))
	for t := range m.opts.PrimaryKeys {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	for _, t := range tables {
		column := m.opts.PrimaryKeys[t]
		if !strings.Contains(pgErr.Message, `"`+column+`"`) {
			continue
		}
		if m.mentions(sql, t) {
			return t, column, true
		}
	}
	return "", "", false
}

func (m *Manager) mentions(sql, table string) bool {
	for _, t := range m.tables {
		if t.name == table {
			return t.mention.MatchString(sql)
		}
	}
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(table) + `\b`).MatchString(sql)
}

func (m *Manager) addPrimaryKey(ctx context.Context, table, column string) error {
	ident := pgx.Identifier{table}
	if schema, err := m.Schema(ctx); err == nil {
		ident = pgx.Identifier{schema, table}
	}
	ddl := fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY",
		ident.Sanitize(), pgx.Identifier{column}.Sanitize())
	_, err := m.pool.Exec(ctx, ddl)
	return err
}
