package account

import (
	"context"
	"errors"

	"github.com/Afresh-academy/JosCity-Back-end/internal/notification/templates"
)

// ResendActivation replaces the activation code of an approved account and
// emails the new one. Repeats inside the cooldown window fail with ErrResendTooSoon.
func (s *service) ResendActivation(ctx context.Context, email string) error {
	a, err := s.repo.FindApprovedByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound.WithMessage("Email not found or account not approved")
		}
		s.logger.Error("resend activation: find account failed", "error", err)
		return ErrInternal.WithCause(err)
	}

	if s.resendLimiter != nil {
		ok, err := s.resendLimiter.Allow(ctx, a.Email)
		if err != nil {
			s.logger.Warn("resend activation: cooldown check failed", "error", err)
		} else if !ok {
			return ErrResendTooSoon
		}
	}

	code, err := s.newCode()
	if err != nil {
		s.logger.Error("failed to generate activation code", "error", err)
		return ErrInternal.WithCause(err)
	}
	if err := s.repo.SetActivationCode(ctx, a.ID, code, s.now().Add(s.activationTTL)); err != nil {
		s.logger.Error("resend activation: store code failed", "user_id", a.ID, "error", err)
		return ErrInternal.WithCause(err)
	}

	data := emailData(a)
	data.Code = code
	data.ExpiresIn = humanDuration(s.activationTTL)
	return s.notifyRequired(ctx, a.Email, templates.ActivationResend, data)
}
