package account

import (
	"context"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/Afresh-academy/JosCity-Back-end/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statement struct {
	sql  string
	args []any
}

// recordingPool is a database.Pool that records every statement and answers
// from canned results. The schema lookup always resolves to "joscity".
type recordingPool struct {
	statements []statement
	execTag    string
	rows       *cannedRows
	rowErr     error
	rowValues  []any
}

func (p *recordingPool) record(sql string, args []any) {
	p.statements = append(p.statements, statement{sql: sql, args: args})
}

func (p *recordingPool) last(t *testing.T) statement {
	t.Helper()
	require.NotEmpty(t, p.statements)
	return p.statements[len(p.statements)-1]
}

func (p *recordingPool) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p.record(sql, args)
	tag := p.execTag
	if tag == "" {
		tag = "UPDATE 1"
	}
	return pgconn.NewCommandTag(tag), nil
}

func (p *recordingPool) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	p.record(sql, args)
	if p.rows == nil {
		return &cannedRows{}, nil
	}
	return p.rows, nil
}

func (p *recordingPool) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	if strings.Contains(sql, "information_schema.tables") {
		return rowFunc(func(dest ...any) error {
			*dest[0].(*string) = "joscity"
			return nil
		})
	}
	p.record(sql, args)
	return rowFunc(func(dest ...any) error {
		if p.rowErr != nil {
			return p.rowErr
		}
		for i, v := range p.rowValues {
			assign(dest[i], v)
		}
		return nil
	})
}

func (p *recordingPool) Begin(context.Context) (pgx.Tx, error) {
	return nil, pgx.ErrTxClosed
}

type rowFunc func(dest ...any) error

func (f rowFunc) Scan(dest ...any) error { return f(dest...) }

// cannedRows serves a fixed result set to pgxscan.
type cannedRows struct {
	columns []string
	values  [][]any
	pos     int
}

func (r *cannedRows) Close()                        {}
func (r *cannedRows) Err() error                    { return nil }
func (r *cannedRows) CommandTag() pgconn.CommandTag { return pgconn.NewCommandTag("SELECT") }
func (r *cannedRows) Conn() *pgx.Conn               { return nil }
func (r *cannedRows) RawValues() [][]byte           { return nil }

func (r *cannedRows) FieldDescriptions() []pgconn.FieldDescription {
	fds := make([]pgconn.FieldDescription, len(r.columns))
	for i, c := range r.columns {
		fds[i] = pgconn.FieldDescription{Name: c}
	}
	return fds
}

func (r *cannedRows) Next() bool {
	if r.pos >= len(r.values) {
		return false
	}
	r.pos++
	return true
}

func (r *cannedRows) Scan(dest ...any) error {
	for i, v := range r.values[r.pos-1] {
		assign(dest[i], v)
	}
	return nil
}

func (r *cannedRows) Values() ([]any, error) { return r.values[r.pos-1], nil }

func assign(dest, v any) {
	if v == nil {
		return
	}
	target := reflect.ValueOf(dest).Elem()
	target.Set(reflect.ValueOf(v).Convert(target.Type()))
}

func newTestRepository(pool *recordingPool) Repository {
	m := database.NewManager(pool, database.DefaultOptions([]string{"joscity", "public"}), slog.New(slog.DiscardHandler))
	return NewRepository(m)
}

func TestRepository_Approve(t *testing.T) {
	ctx := context.Background()
	expires := time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)

	t.Run("pending account", func(t *testing.T) {
		pool := &recordingPool{rows: &cannedRows{
			columns: []string{"user_id", "user_email", "account_status", "activation_code", "activation_expires"},
			values:  [][]any{{int64(7), "ada@example.com", "approved", ptr("482913"), ptr(expires)}},
		}}

		a, err := newTestRepository(pool).Approve(ctx, 7, "482913", expires)
		require.NoError(t, err)
		assert.Equal(t, int64(7), a.ID)
		assert.Equal(t, StatusApproved, a.Status)
		assert.Equal(t, "482913", deref(a.ActivationCode))

		stmt := pool.last(t)
		assert.Equal(t, `UPDATE "joscity".users SET account_status = $1, activation_code = $2, activation_expires = $3 `+
			`WHERE account_status = $4 AND user_id = $5 `+returningAccount, stmt.sql)
		assert.Equal(t, []any{StatusApproved, "482913", expires, StatusPending, int64(7)}, stmt.args)
	})

	t.Run("no pending row", func(t *testing.T) {
		pool := &recordingPool{}
		_, err := newTestRepository(pool).Approve(ctx, 7, "482913", expires)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRepository_Reject(t *testing.T) {
	pool := &recordingPool{}
	_, err := newTestRepository(pool).Reject(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)

	stmt := pool.last(t)
	assert.Equal(t, `UPDATE "joscity".users SET account_status = $1 WHERE account_status = $2 AND user_id = $3 `+returningAccount, stmt.sql)
	assert.Equal(t, []any{StatusRejected, StatusPending, int64(9)}, stmt.args)
}

func TestRepository_MarkVerifiedConsumesActivationCode(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	pool := &recordingPool{}
	require.NoError(t, newTestRepository(pool).MarkVerified(ctx, 7, at))

	stmt := pool.last(t)
	assert.Equal(t, `UPDATE "joscity".users SET is_verified = $1, verified_at = $2, activation_code = $3, activation_expires = $4 WHERE user_id = $5`, stmt.sql)
	assert.Equal(t, []any{true, at, nil, nil, int64(7)}, stmt.args)

	pool.execTag = "UPDATE 0"
	assert.ErrorIs(t, newTestRepository(pool).MarkVerified(ctx, 7, at), ErrNotFound)
}

func TestRepository_UpdatePasswordClearsResetCode(t *testing.T) {
	pool := &recordingPool{}
	require.NoError(t, newTestRepository(pool).UpdatePassword(context.Background(), 7, "$2a$12$hash"))

	stmt := pool.last(t)
	assert.Equal(t, `UPDATE "joscity".users SET user_password = $1, reset_code = $2, reset_expires = $3 WHERE user_id = $4`, stmt.sql)
	assert.Equal(t, []any{"$2a$12$hash", nil, nil, int64(7)}, stmt.args)
}

func TestRepository_FindByEmail(t *testing.T) {
	pool := &recordingPool{}
	_, err := newTestRepository(pool).FindByEmail(context.Background(), "ada@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	stmt := pool.last(t)
	assert.Equal(t, "SELECT "+strings.Join(columns, ", ")+` FROM "joscity".users WHERE user_email = $1 LIMIT 1`, stmt.sql)
	assert.Equal(t, []any{"ada@example.com"}, stmt.args)
}

func TestRepository_ListPendingNewestFirst(t *testing.T) {
	pool := &recordingPool{}
	accounts, err := newTestRepository(pool).ListPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)

	stmt := pool.last(t)
	assert.Equal(t, "SELECT "+strings.Join(columns, ", ")+` FROM "joscity".users WHERE account_status = $1 ORDER BY user_registered DESC`, stmt.sql)
	assert.Equal(t, []any{StatusPending}, stmt.args)
}

func TestRepository_CreateMapsUniqueViolations(t *testing.T) {
	tests := []struct {
		constraint string
		want       error
	}{
		{"users_user_email_key", ErrEmailExists},
		{"users_nin_number_key", ErrNINExists},
		{"users_cac_number_key", ErrRegistrationNumberExists},
	}
	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			pool := &recordingPool{rowErr: &pgconn.PgError{Code: "23505", ConstraintName: tt.constraint}}
			err := newTestRepository(pool).Create(context.Background(), &Account{Email: "ada@example.com"})
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, strings.HasPrefix(pool.last(t).sql, `INSERT INTO "joscity".users (`))
		})
	}

	t.Run("fills generated fields", func(t *testing.T) {
		registered := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
		pool := &recordingPool{rowValues: []any{int64(42), registered}}
		a := &Account{Email: "ada@example.com", Status: StatusPending}

		require.NoError(t, newTestRepository(pool).Create(context.Background(), a))
		assert.Equal(t, int64(42), a.ID)
		assert.Equal(t, registered, a.RegisteredAt)
		assert.True(t, strings.HasSuffix(pool.last(t).sql, "RETURNING user_id, user_registered"))
	})
}
