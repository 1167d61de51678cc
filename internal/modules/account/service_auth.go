package account

import (
	"context"
	"errors"

	"github.com/Afresh-academy/JosCity-Back-end/internal/token"
)

// LoginInput carries credentials plus the client details recorded on the session.
type LoginInput struct {
	Email          string
	Password       string
	ActivationCode string
	UserAgent      string
	IPAddress      string
}

// LoginResult is a signed token together with the account it was issued for.
type LoginResult struct {
	Token   string
	Claims  token.Claims
	Account *Account
	Role    Role
}

// Login authenticates an approved account. The activation code is checked
// before the password and is required on every login; a successful first
// login consumes it.
func (s *service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if s.tokens == nil {
		return nil, ErrAuthNotConfigured
	}

	a, err := s.repo.FindByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to find account by email", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	switch a.Status {
	case StatusPending:
		return nil, ErrAccountPending
	case StatusRejected:
		return nil, ErrAccountRejected
	case StatusSuspended:
		return nil, ErrAccountSuspended
	}

	now := s.now()
	if !codesEqual(a.ActivationCode, in.ActivationCode) {
		return nil, ErrInvalidActivationCode
	}
	if expired(a.ActivationExpires, now) {
		return nil, ErrActivationCodeExpired
	}
	if !checkPasswordHash(in.Password, a.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if !a.IsVerified {
		if err := s.repo.MarkVerified(ctx, a.ID, now); err != nil {
			s.logger.Error("failed to mark account verified", "user_id", a.ID, "error", err)
			return nil, ErrInternal.WithCause(err)
		}
		a.IsVerified = true
		a.VerifiedAt = &now
		a.ActivationCode = nil
		a.ActivationExpires = nil
	}

	res, err := s.issue(ctx, a, token.Claims{
		UserID:      a.ID,
		Email:       a.Email,
		IsVerified:  a.IsVerified,
		AccountType: string(a.Type),
	}, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", "user_id", a.ID)
	return res, nil
}

// AdminLogin authenticates an approved admin or moderator by password alone
// and issues an elevated token.
func (s *service) AdminLogin(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if s.tokens == nil {
		return nil, ErrAuthNotConfigured
	}

	a, err := s.repo.FindByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to find account by email", "error", err)
		return nil, ErrInternal.WithCause(err)
	}
	if !checkPasswordHash(in.Password, a.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	role := a.Group.Role()
	switch role {
	case RoleAdmin, RoleModerator:
	case RoleMember:
		s.logger.Warn("admin login denied", "user_id", a.ID, "role", role)
		return nil, ErrAdminRequired
	}
	if a.Status != StatusApproved {
		return nil, ErrAdminNotApproved
	}

	res, err := s.issue(ctx, a, token.Claims{
		UserID:      a.ID,
		Email:       a.Email,
		IsVerified:  a.IsVerified,
		AccountType: string(a.Type),
		UserGroup:   int(a.Group),
		IsAdmin:     true,
	}, in)
	if err != nil {
		return nil, err
	}
	res.Role = role
	s.logger.Info("admin logged in", "user_id", a.ID, "role", role)
	return res, nil
}

// issue signs the claims and records the session. Session bookkeeping
// failures are logged; the token is still valid.
func (s *service) issue(ctx context.Context, a *Account, claims token.Claims, in LoginInput) (*LoginResult, error) {
	signed, claims, err := s.tokens.Issue(claims)
	if err != nil {
		s.logger.Error("failed to sign token", "user_id", a.ID, "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	now := s.now()
	if err := s.repo.CreateSession(ctx, &Session{
		UserID:       a.ID,
		SessionToken: claims.ID,
		UserAgent:    in.UserAgent,
		IPAddress:    in.IPAddress,
	}); err != nil {
		s.logger.Warn("failed to record session", "user_id", a.ID, "error", err)
	}
	if err := s.repo.TouchLogin(ctx, a.ID, now); err != nil {
		s.logger.Warn("failed to update last login", "user_id", a.ID, "error", err)
	} else {
		a.LastLogin = &now
		a.LastSeen = &now
	}

	return &LoginResult{Token: signed, Claims: claims, Account: a, Role: a.Group.Role()}, nil
}

// SignOut revokes the token until its expiry and drops its session record.
func (s *service) SignOut(ctx context.Context, claims *token.Claims) error {
	if claims == nil {
		return ErrUnauthorized
	}
	if s.revoker != nil && claims.ExpiresAt != nil {
		if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			s.logger.Error("failed to revoke token", "user_id", claims.UserID, "error", err)
			return ErrInternal.WithCause(err)
		}
	}
	if err := s.repo.DeleteSession(ctx, claims.ID); err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Warn("failed to delete session", "user_id", claims.UserID, "error", err)
	}
	s.logger.Info("user signed out", "user_id", claims.UserID)
	return nil
}

// Role loads the caller's role from storage.
func (s *service) Role(ctx context.Context, id int64) (Role, error) {
	g, err := s.repo.GroupOf(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RoleMember, ErrAccountGone
		}
		s.logger.Error("failed to load account group", "user_id", id, "error", err)
		return RoleMember, ErrInternal.WithCause(err)
	}
	return g.Role(), nil
}
