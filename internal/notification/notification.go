package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Email is a single outgoing message.
type Email struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// EmailSender delivers one message with the given Message-ID.
type EmailSender interface {
	Send(ctx context.Context, msg Email, messageID string) error
}

// Service is the main interface for the notification system.
type Service interface {
	// SendEmail delivers the message synchronously and returns its Message-ID.
	SendEmail(ctx context.Context, msg Email) (string, error)
}

type service struct {
	log    *slog.Logger
	sender EmailSender
	domain string
}

// NewService creates a new notification service. domain is used as the
// right-hand side of generated Message-IDs.
func NewService(log *slog.Logger, sender EmailSender, domain string) Service {
	if domain == "" {
		domain = "joscity.local"
	}
	return &service{log: log, sender: sender, domain: domain}
}

func (s *service) SendEmail(ctx context.Context, msg Email) (string, error) {
	if msg.To == "" {
		return "", errors.New("email recipient is empty")
	}
	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.domain)
	if err := s.sender.Send(ctx, msg, messageID); err != nil {
		s.log.Error("failed to send email", "recipient", msg.To, "subject", msg.Subject, "error", err)
		return "", fmt.Errorf("send email: %w", err)
	}
	s.log.Info("email sent", "recipient", msg.To, "subject", msg.Subject, "message_id", messageID)
	return messageID, nil
}

// logSender stands in for SMTP when no mail server is configured. Bodies are
// not logged since they carry one-time codes.
type logSender struct {
	log *slog.Logger
}

// NewLogSender returns a sender that only records that a message would have been sent.
func NewLogSender(log *slog.Logger) EmailSender {
	return &logSender{log: log}
}

func (s *logSender) Send(_ context.Context, msg Email, messageID string) error {
	s.log.Warn("smtp not configured, email not delivered",
		"recipient", msg.To, "subject", msg.Subject, "message_id", messageID)
	return nil
}
