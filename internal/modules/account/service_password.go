package account

import (
	"context"
	"errors"

	"github.com/Afresh-academy/JosCity-Back-end/internal/notification/templates"
)

// RequestPasswordReset stores and emails a reset code for an approved account.
// Unknown addresses return nil so callers cannot tell whether an email is registered.
func (s *service) RequestPasswordReset(ctx context.Context, email string) error {
	a, err := s.repo.FindApprovedByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Info("password reset requested for unknown or unapproved email")
			return nil
		}
		s.logger.Error("failed to find account for password reset", "error", err)
		return ErrInternal.WithCause(err)
	}

	code, err := s.newCode()
	if err != nil {
		s.logger.Error("failed to generate reset code", "error", err)
		return ErrInternal.WithCause(err)
	}
	if err := s.repo.SetResetCode(ctx, a.ID, code, s.now().Add(s.resetTTL)); err != nil {
		s.logger.Error("failed to store reset code", "user_id", a.ID, "error", err)
		return ErrInternal.WithCause(err)
	}

	data := emailData(a)
	data.Code = code
	data.ExpiresIn = humanDuration(s.resetTTL)
	s.notifyBestEffort(ctx, a.Email, templates.PasswordReset, data)
	return nil
}

// ConfirmReset checks a reset code without consuming it.
func (s *service) ConfirmReset(ctx context.Context, email, code string) error {
	_, err := s.accountForReset(ctx, email, code)
	return err
}

// ResetPassword replaces the password once the reset code checks out and
// clears the code.
func (s *service) ResetPassword(ctx context.Context, email, code, password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	a, err := s.accountForReset(ctx, email, code)
	if err != nil {
		return err
	}

	hashed, err := hashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash new password during reset", "error", err)
		return ErrInternal.WithCause(err)
	}
	if err := s.repo.UpdatePassword(ctx, a.ID, hashed); err != nil {
		s.logger.Error("failed to update password after reset", "user_id", a.ID, "error", err)
		return ErrInternal.WithCause(err)
	}

	s.logger.Info("password has been reset", "user_id", a.ID)
	return nil
}

func (s *service) accountForReset(ctx context.Context, email, code string) (*Account, error) {
	a, err := s.repo.FindApprovedByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidResetCode
		}
		s.logger.Error("failed to find account for reset", "error", err)
		return nil, ErrInternal.WithCause(err)
	}
	if !codesEqual(a.ResetCode, code) || expired(a.ResetExpires, s.now()) {
		return nil, ErrInvalidResetCode
	}
	return a, nil
}
