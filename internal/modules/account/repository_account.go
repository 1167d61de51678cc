package account

import (
	"context"
	"strings"
	"time"

	"github.com/Afresh-academy/JosCity-Back-end/internal/database"
	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
)

const usersTable = "users"

var returningAccount = "RETURNING " + strings.Join(columns, ", ")

// Create inserts a new account and fills in the generated ID and registration time.
// Unique violations are reported as the matching conflict error.
func (r *repository) Create(ctx context.Context, a *Account) error {
	query, args, err := r.psql.Insert(usersTable).
		Columns(
			"user_name", "user_firstname", "user_lastname", "user_gender", "user_phone",
			"nin_number", "user_email", "user_password", "address", "account_status", "account_type",
			"business_name", "business_type", "cac_number", "business_location", "user_group",
		).
		Values(
			a.Username, a.FirstName, a.LastName, a.Gender, a.Phone,
			a.NIN, a.Email, a.PasswordHash, a.Address, a.Status, a.Type,
			a.BusinessName, a.BusinessType, a.RegistrationNo, a.BusinessLocation, a.Group,
		).
		Suffix("RETURNING user_id, user_registered").
		ToSql()
	if err != nil {
		return err
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&a.ID, &a.RegisteredAt); err != nil {
		if constraint, ok := database.IsUniqueViolation(err); ok {
			return conflictFor(constraint).WithCause(err)
		}
		return err
	}
	return nil
}

// conflictFor maps a unique constraint name onto the conflict error naming the field.
func conflictFor(constraint string) *DomainError {
	switch {
	case strings.Contains(constraint, "nin"):
		return ErrNINExists
	case strings.Contains(constraint, "cac"):
		return ErrRegistrationNumberExists
	default:
		return ErrEmailExists
	}
}

// FindByEmail retrieves an account by its email address.
// It returns ErrNotFound if no account is found.
func (r *repository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return r.findOne(ctx, squirrel.Eq{"user_email": email})
}

// FindApprovedByEmail is FindByEmail restricted to approved accounts.
func (r *repository) FindApprovedByEmail(ctx context.Context, email string) (*Account, error) {
	return r.findOne(ctx, squirrel.Eq{"user_email": email, "account_status": StatusApproved})
}

func (r *repository) findOne(ctx context.Context, condition squirrel.Sqlizer) (*Account, error) {
	query, args, err := r.psql.Select(columns...).
		From(usersTable).
		Where(condition).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var a Account
	if err := pgxscan.Get(ctx, r.db, &a, query, args...); err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return &a, nil
}

func (r *repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"user_email": email})
}

func (r *repository) ExistsByNIN(ctx context.Context, nin string) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"nin_number": nin})
}

func (r *repository) ExistsByRegistrationNo(ctx context.Context, regNo string) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"cac_number": regNo})
}

func (r *repository) exists(ctx context.Context, condition squirrel.Sqlizer) (bool, error) {
	query, args, err := r.psql.Select("1").From(usersTable).Where(condition).Limit(1).ToSql()
	if err != nil {
		return false, err
	}
	var one int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&one); err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GroupOf returns the stored user_group for an account.
func (r *repository) GroupOf(ctx context.Context, id int64) (Group, error) {
	query, args, err := r.psql.Select("user_group").From(usersTable).
		Where(squirrel.Eq{"user_id": id}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var g Group
	if err := r.db.QueryRow(ctx, query, args...).Scan(&g); err != nil {
		if isNoRows(err) {
			return 0, ErrNotFound.WithCause(err)
		}
		return 0, err
	}
	return g, nil
}

// ListPending returns all pending accounts, newest registration first.
func (r *repository) ListPending(ctx context.Context) ([]Account, error) {
	query, args, err := r.psql.Select(columns...).
		From(usersTable).
		Where(squirrel.Eq{"account_status": StatusPending}).
		OrderBy("user_registered DESC").
		ToSql()
	if err != nil {
		return nil, err
	}
	accounts := []Account{}
	if err := pgxscan.Select(ctx, r.db, &accounts, query, args...); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Approve moves a pending account to approved and stores a fresh activation code.
// The update only applies while the account is pending; otherwise ErrNotFound.
func (r *repository) Approve(ctx context.Context, id int64, code string, expires time.Time) (*Account, error) {
	return r.transition(ctx, id, r.psql.Update(usersTable).
		Set("account_status", StatusApproved).
		Set("activation_code", code).
		Set("activation_expires", expires))
}

// Reject moves a pending account to rejected. Same precondition as Approve.
func (r *repository) Reject(ctx context.Context, id int64) (*Account, error) {
	return r.transition(ctx, id, r.psql.Update(usersTable).
		Set("account_status", StatusRejected))
}

func (r *repository) transition(ctx context.Context, id int64, q squirrel.UpdateBuilder) (*Account, error) {
	query, args, err := q.
		Where(squirrel.Eq{"user_id": id, "account_status": StatusPending}).
		Suffix(returningAccount).
		ToSql()
	if err != nil {
		return nil, err
	}
	var a Account
	if err := pgxscan.Get(ctx, r.db, &a, query, args...); err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return &a, nil
}

// MarkVerified records the first successful login and consumes the activation code.
func (r *repository) MarkVerified(ctx context.Context, id int64, at time.Time) error {
	return r.update(ctx, id, r.psql.Update(usersTable).
		Set("is_verified", true).
		Set("verified_at", at).
		Set("activation_code", nil).
		Set("activation_expires", nil))
}

// SetActivationCode replaces any previous activation code.
func (r *repository) SetActivationCode(ctx context.Context, id int64, code string, expires time.Time) error {
	return r.update(ctx, id, r.psql.Update(usersTable).
		Set("activation_code", code).
		Set("activation_expires", expires))
}

// SetResetCode stores a password reset code and its expiry.
func (r *repository) SetResetCode(ctx context.Context, id int64, code string, expires time.Time) error {
	return r.update(ctx, id, r.psql.Update(usersTable).
		Set("reset_code", code).
		Set("reset_expires", expires))
}

// UpdatePassword sets a new password hash and clears the reset code.
func (r *repository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return r.update(ctx, id, r.psql.Update(usersTable).
		Set("user_password", hash).
		Set("reset_code", nil).
		Set("reset_expires", nil))
}

// TouchLogin updates last_login and user_last_seen.
func (r *repository) TouchLogin(ctx context.Context, id int64, at time.Time) error {
	return r.update(ctx, id, r.psql.Update(usersTable).
		Set("last_login", at).
		Set("user_last_seen", at))
}

func (r *repository) update(ctx context.Context, id int64, q squirrel.UpdateBuilder) error {
	query, args, err := q.Where(squirrel.Eq{"user_id": id}).ToSql()
	if err != nil {
		return err
	}
	cmdTag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
