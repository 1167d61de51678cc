package account

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/Afresh-academy/JosCity-Back-end/internal/notification"
	"github.com/Afresh-academy/JosCity-Back-end/internal/notification/templates"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost = 12
	codeMin    = 100000
	codeSpan   = 900000
)

// hashPassword uses bcrypt to generate a hash from a plaintext password.
func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// checkPasswordHash compares a plaintext password with a bcrypt hash.
func checkPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// generateCode returns a 6-digit numeric code uniform over [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+codeMin, 10), nil
}

// codesEqual compares a stored code with a supplied one in constant time.
func codesEqual(stored *string, supplied string) bool {
	supplied = strings.TrimSpace(supplied)
	if stored == nil || *stored == "" || supplied == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*stored), []byte(supplied)) == 1
}

// expired treats a missing expiry as already expired.
func expired(expires *time.Time, now time.Time) bool {
	return expires == nil || now.After(*expires)
}

// normalizeEmail lowercases and trims an address for storage and lookup.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// deriveUsername lowercases the display name and strips all whitespace.
func deriveUsername(p Profile) string {
	base := p.FirstName + p.LastName
	if p.Type == TypeBusiness && strings.TrimSpace(p.BusinessName) != "" {
		base = p.BusinessName
	}
	name := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, base)
	if r := []rune(name); len(r) > 64 {
		name = string(r[:64])
	}
	return name
}

// humanDuration renders code lifetimes for emails ("48 hours", "1 hour").
func humanDuration(d time.Duration) string {
	if h := int(d / time.Hour); h >= 1 && d%time.Hour == 0 {
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	m := int(d / time.Minute)
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}

func emailData(a *Account) templates.AccountEmailData {
	return templates.AccountEmailData{
		RecipientName: a.DisplayName(),
		Business:      a.IsBusiness(),
		AccountType:   string(a.Type),
	}
}

// sendAccountEmail renders the template and hands it to the notifier.
func (s *service) sendAccountEmail(ctx context.Context, to string, h templates.Handle[templates.AccountEmailData], data templates.AccountEmailData) error {
	if s.notifier == nil {
		return errors.New("no notifier configured")
	}
	out, err := templates.Render(ctx, s.templates, h, data)
	if err != nil {
		return fmt.Errorf("render %s: %w", h.ID(), err)
	}
	_, err = s.notifier.SendEmail(ctx, notification.Email{
		To:       to,
		Subject:  out.Subject,
		HTMLBody: out.EmailHTML,
		TextBody: out.EmailText,
	})
	return err
}

// notifyRequired surfaces delivery failure to the caller as ErrInternal.
func (s *service) notifyRequired(ctx context.Context, to string, h templates.Handle[templates.AccountEmailData], data templates.AccountEmailData) error {
	if err := s.sendAccountEmail(ctx, to, h, data); err != nil {
		s.logger.Error("required notification failed", "template", h.ID(), "recipient", to, "error", err)
		return ErrInternal.WithCause(err)
	}
	return nil
}

// notifyBestEffort logs delivery failure and carries on.
func (s *service) notifyBestEffort(ctx context.Context, to string, h templates.Handle[templates.AccountEmailData], data templates.AccountEmailData) {
	if err := s.sendAccountEmail(ctx, to, h, data); err != nil {
		s.logger.Warn("notification not delivered", "template", h.ID(), "recipient", to, "error", err)
	}
}
