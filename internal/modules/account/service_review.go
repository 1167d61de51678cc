package account

import (
	"context"
	"errors"
	"strings"

	"github.com/Afresh-academy/JosCity-Back-end/internal/notification/templates"
)

// Register creates a pending account. The under-review email is sent after
// commit and its failure never fails the registration.
func (s *service) Register(ctx context.Context, p Profile) (*Account, error) {
	p.Email = normalizeEmail(p.Email)
	if p.Type == "" {
		p.Type = TypePersonal
	}

	if err := s.checkConflicts(ctx, p); err != nil {
		return nil, err
	}

	hashed, err := hashPassword(p.Password)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	a := &Account{
		Username:     deriveUsername(p),
		FirstName:    optional(p.FirstName),
		LastName:     optional(p.LastName),
		Gender:       optional(p.Gender),
		Phone:        optional(p.Phone),
		Email:        p.Email,
		PasswordHash: hashed,
		Address:      optional(p.Address),
		Status:       StatusPending,
		Type:         p.Type,
		Group:        GroupMember,
	}
	if p.Type == TypeBusiness {
		a.BusinessName = optional(p.BusinessName)
		a.BusinessType = optional(p.BusinessType)
		a.RegistrationNo = optional(p.RegistrationNo)
		a.BusinessLocation = optional(p.BusinessLocation)
	} else {
		a.NIN = optional(p.NIN)
	}

	err = s.repo.InTx(ctx, func(tx Repository) error {
		return tx.Create(ctx, a)
	})
	if err != nil {
		var derr *DomainError
		if errors.As(err, &derr) {
			return nil, err
		}
		s.logger.Error("failed to create account", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	s.logger.Info("account registered, awaiting review", "user_id", a.ID, "account_type", a.Type)
	s.notifyBestEffort(ctx, a.Email, templates.UnderReview, emailData(a))
	return a, nil
}

// checkConflicts reports the first unique field already taken.
func (s *service) checkConflicts(ctx context.Context, p Profile) error {
	type check struct {
		value  string
		exists func(context.Context, string) (bool, error)
		err    *DomainError
	}
	checks := []check{{p.Email, s.repo.ExistsByEmail, ErrEmailExists}}
	if p.Type == TypeBusiness {
		checks = append(checks, check{strings.TrimSpace(p.RegistrationNo), s.repo.ExistsByRegistrationNo, ErrRegistrationNumberExists})
	} else {
		checks = append(checks, check{strings.TrimSpace(p.NIN), s.repo.ExistsByNIN, ErrNINExists})
	}

	for _, c := range checks {
		if c.value == "" {
			continue
		}
		taken, err := c.exists(ctx, c.value)
		if err != nil {
			s.logger.Error("uniqueness check failed", "error", err)
			return ErrInternal.WithCause(err)
		}
		if taken {
			return c.err
		}
	}
	return nil
}

// ListPending returns accounts awaiting review, newest first.
func (s *service) ListPending(ctx context.Context) ([]Account, error) {
	accounts, err := s.repo.ListPending(ctx)
	if err != nil {
		s.logger.Error("failed to list pending accounts", "error", err)
		return nil, ErrInternal.WithCause(err)
	}
	return accounts, nil
}

// Approve issues an activation code to a pending account and emails it.
func (s *service) Approve(ctx context.Context, id int64) error {
	code, err := s.newCode()
	if err != nil {
		s.logger.Error("failed to generate activation code", "error", err)
		return ErrInternal.WithCause(err)
	}

	a, err := s.repo.Approve(ctx, id, code, s.now().Add(s.activationTTL))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		s.logger.Error("failed to approve account", "user_id", id, "error", err)
		return ErrInternal.WithCause(err)
	}
	s.logger.Info("account approved", "user_id", a.ID)

	data := emailData(a)
	data.Code = code
	data.ExpiresIn = humanDuration(s.activationTTL)
	return s.notifyRequired(ctx, a.Email, templates.Approved, data)
}

// Reject closes a pending account and notifies the applicant.
func (s *service) Reject(ctx context.Context, id int64, reason string) error {
	a, err := s.repo.Reject(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		s.logger.Error("failed to reject account", "user_id", id, "error", err)
		return ErrInternal.WithCause(err)
	}
	s.logger.Info("account rejected", "user_id", a.ID)

	data := emailData(a)
	data.Reason = strings.TrimSpace(reason)
	return s.notifyRequired(ctx, a.Email, templates.Rejected, data)
}
