package account

import (
	"context"
	"log/slog"
	"time"

	"github.com/Afresh-academy/JosCity-Back-end/internal/notification"
	"github.com/Afresh-academy/JosCity-Back-end/internal/notification/templates"
	"github.com/Afresh-academy/JosCity-Back-end/internal/token"
)

// Service defines the interface for the account module's business logic.
// It orchestrates the flow of data between the handlers and the repository,
// and contains the lifecycle rules.
type Service interface {
	// Registration & review
	Register(ctx context.Context, p Profile) (*Account, error)
	ListPending(ctx context.Context) ([]Account, error)
	Approve(ctx context.Context, id int64) error
	Reject(ctx context.Context, id int64, reason string) error

	// Authentication
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	AdminLogin(ctx context.Context, in LoginInput) (*LoginResult, error)
	SignOut(ctx context.Context, claims *token.Claims) error
	Role(ctx context.Context, id int64) (Role, error)

	// Codes
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmReset(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, email, code, password, confirm string) error
	ResendActivation(ctx context.Context, email string) error
}

// Revoker invalidates a token ID until the given time.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
}

// Limiter gates repeated actions per key.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// service implements the Service interface.
type service struct {
	repo          Repository
	logger        *slog.Logger
	notifier      notification.Service
	templates     *templates.Engine
	tokens        *token.Issuer
	revoker       Revoker
	resendLimiter Limiter
	activationTTL time.Duration
	resetTTL      time.Duration
	newCode       func() (string, error)
	now           func() time.Time
}

// Config holds the dependencies for the account service.
type Config struct {
	Repo      Repository
	Logger    *slog.Logger
	Notifier  notification.Service
	Templates *templates.Engine

	// Tokens may be nil; token-issuing operations then fail with ErrAuthNotConfigured.
	Tokens *token.Issuer

	// Revoker and ResendLimiter are optional and backed by Redis when configured.
	Revoker       Revoker
	ResendLimiter Limiter

	ActivationTTL time.Duration
	ResetTTL      time.Duration

	// CodeGenerator overrides the 6-digit code source.
	CodeGenerator func() (string, error)
	Now           func() time.Time
}

// NewService creates a new account service with the given dependencies.
func NewService(cfg *Config) Service {
	s := &service{
		repo:          cfg.Repo,
		logger:        cfg.Logger,
		notifier:      cfg.Notifier,
		templates:     cfg.Templates,
		tokens:        cfg.Tokens,
		revoker:       cfg.Revoker,
		resendLimiter: cfg.ResendLimiter,
		activationTTL: cfg.ActivationTTL,
		resetTTL:      cfg.ResetTTL,
		newCode:       cfg.CodeGenerator,
		now:           cfg.Now,
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.templates == nil {
		s.templates = templates.NewEngine(templates.Config{}, s.logger)
	}
	if s.activationTTL <= 0 {
		s.activationTTL = 48 * time.Hour
	}
	if s.resetTTL <= 0 {
		s.resetTTL = time.Hour
	}
	if s.newCode == nil {
		s.newCode = generateCode
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}
