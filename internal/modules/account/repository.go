package account

import (
	"context"
	"errors"
	"time"

	"github.com/Afresh-academy/JosCity-Back-end/internal/database"
	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
)

// Repository defines the interface for database operations for the account module.
// This abstraction allows the service layer to be independent of the database implementation.
type Repository interface {
	// InTx runs fn with a Repository bound to a single transaction.
	InTx(ctx context.Context, fn func(Repository) error) error

	// Accounts
	Create(ctx context.Context, a *Account) error
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindApprovedByEmail(ctx context.Context, email string) (*Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByNIN(ctx context.Context, nin string) (bool, error)
	ExistsByRegistrationNo(ctx context.Context, regNo string) (bool, error)
	GroupOf(ctx context.Context, id int64) (Group, error)

	// Review
	ListPending(ctx context.Context) ([]Account, error)
	Approve(ctx context.Context, id int64, code string, expires time.Time) (*Account, error)
	Reject(ctx context.Context, id int64) (*Account, error)

	// Codes & credentials
	MarkVerified(ctx context.Context, id int64, at time.Time) error
	SetActivationCode(ctx context.Context, id int64, code string, expires time.Time) error
	SetResetCode(ctx context.Context, id int64, code string, expires time.Time) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	TouchLogin(ctx context.Context, id int64, at time.Time) error

	// Sessions
	CreateSession(ctx context.Context, s *Session) error
	DeleteSession(ctx context.Context, sessionToken string) error
}

type txRunner interface {
	InTx(ctx context.Context, fn func(database.DBTX) error) error
}

// repository implements the Repository interface using pgx and squirrel.
type repository struct {
	db   database.DBTX
	tx   txRunner
	psql squirrel.StatementBuilderType
}

// NewRepository creates a new account repository on top of the connection manager.
func NewRepository(m *database.Manager) Repository {
	return &repository{
		db:   m,
		tx:   m,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// InTx runs fn inside a transaction. A repository that is already bound to a
// transaction runs fn directly.
func (r *repository) InTx(ctx context.Context, fn func(Repository) error) error {
	if r.tx == nil {
		return fn(r)
	}
	return r.tx.InTx(ctx, func(tx database.DBTX) error {
		return fn(&repository{db: tx, psql: r.psql})
	})
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || pgxscan.NotFound(err)
}
