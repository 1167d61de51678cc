package account

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
)

const sessionsTable = "users_sessions"

// CreateSession inserts a session record for an issued token.
func (r *repository) CreateSession(ctx context.Context, s *Session) error {
	now := time.Now()
	s.CreatedAt = now
	s.LastActivity = now

	query, args, err := r.psql.Insert(sessionsTable).
		Columns("user_id", "session_token", "user_agent", "ip_address", "session_date", "last_activity").
		Values(s.UserID, s.SessionToken, s.UserAgent, s.IPAddress, s.CreatedAt, s.LastActivity).
		Suffix("RETURNING session_id").
		ToSql()
	if err != nil {
		return err
	}
	if err := r.db.QueryRow(ctx, query, args...).Scan(&s.ID); err != nil {
		if isNoRows(err) {
			return ErrNotFound.WithCause(err)
		}
		return err
	}
	return nil
}

// DeleteSession removes a session by its token.
func (r *repository) DeleteSession(ctx context.Context, sessionToken string) error {
	query, args, err := r.psql.Delete(sessionsTable).
		Where(squirrel.Eq{"session_token": sessionToken}).
		ToSql()
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
