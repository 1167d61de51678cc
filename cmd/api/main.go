package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Afresh-academy/JosCity-Back-end/internal/cache"
	"github.com/Afresh-academy/JosCity-Back-end/internal/config"
	"github.com/Afresh-academy/JosCity-Back-end/internal/database"
	"github.com/Afresh-academy/JosCity-Back-end/internal/logging"
	"github.com/Afresh-academy/JosCity-Back-end/internal/middleware"
	"github.com/Afresh-academy/JosCity-Back-end/internal/modules/account"
	"github.com/Afresh-academy/JosCity-Back-end/internal/notification"
	"github.com/Afresh-academy/JosCity-Back-end/internal/notification/templates"
	"github.com/Afresh-academy/JosCity-Back-end/internal/server"
	"github.com/Afresh-academy/JosCity-Back-end/internal/token"
	"github.com/danielgtaylor/huma/v2/humacli"
)

// Options for the CLI.
type Options struct {
	Port int `help:"Port to listen on (overrides SERVER_PORT)" short:"p"`
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
			os.Exit(1)
		}

		logger, syncLogs, err := logging.New(cfg.Server.Env, cfg.Log.Level)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
			os.Exit(1)
		}
		logger.Info("configuration loaded successfully", "env", cfg.Server.Env)

		// Token issuing is mandatory; refuse to start without a secret.
		issuer, err := token.NewIssuer(cfg.JWTSecret, cfg.Verification.TokenTTL)
		if err != nil {
			logger.Error("JWT authentication not properly configured", "error", err)
			os.Exit(1)
		}

		ctx, cancel := context.WithCancel(context.Background())

		// --- Database ---
		dsn, err := cfg.Database.DSN()
		if err != nil {
			logger.Error("invalid database configuration", "error", err)
			os.Exit(1)
		}
		pool, err := database.NewPostgresPool(ctx, database.PoolConfig{
			DSN:            dsn,
			Schemas:        cfg.Database.Schemas,
			MaxConns:       cfg.Database.MaxConns,
			ConnectTimeout: cfg.Database.ConnectTimeout,
			IdleTimeout:    cfg.Database.IdleTimeout,
		}, logger)
		if err != nil {
			logger.Error("failed to create postgres pool", "error", err)
			os.Exit(1)
		}
		if cfg.Database.AutoMigrate {
			if err := database.Migrate(ctx, pool, logger); err != nil {
				logger.Error("startup migration failed", "error", err)
			}
		}
		dbOpts := database.DefaultOptions(cfg.Database.Schemas)
		dbOpts.SelfHeal = cfg.Database.SelfHeal
		manager := database.NewManager(pool, dbOpts, logger)
		if err := manager.CheckConnection(ctx); err != nil {
			logger.Warn("continuing without a verified database connection", "error", err)
		}

		// --- Cache (optional) ---
		var (
			revoker       account.Revoker
			resendLimiter account.Limiter
			revocations   middleware.RevocationChecker
		)
		if cfg.Redis.URL != "" {
			rdb, err := cache.NewRedisClient(ctx, cfg.Redis.URL)
			if err != nil {
				logger.Error("failed to connect to redis", "error", err)
				os.Exit(1)
			}
			denylist := cache.NewTokenDenylist(rdb)
			revoker, revocations = denylist, denylist
			resendLimiter = cache.NewCooldown(rdb, "auth:resend:", cfg.Verification.ResendCooldown)
			hooks.OnStop(func() { _ = rdb.Close() })
			logger.Info("successfully connected to redis")
		} else {
			logger.Warn("REDIS_URL not set, token revocation and resend cooldown disabled")
		}

		// --- Notifications ---
		var sender notification.EmailSender
		if cfg.SMTP.Host != "" {
			sender = notification.NewSMTPEmailSender(notification.SMTPConfig{
				Host:     cfg.SMTP.Host,
				Port:     cfg.SMTP.Port,
				Username: cfg.SMTP.Username,
				Password: cfg.SMTP.Password,
				From:     cfg.SMTP.From,
			})
		} else {
			logger.Warn("SMTP_HOST not set, emails will only be logged")
			sender = notification.NewLogSender(logger)
		}
		notifier := notification.NewService(logger, sender, mailDomain(cfg.SMTP.From))
		engine := templates.NewEngine(templates.Config{
			Dir:    cfg.Templates.Dir,
			Reload: cfg.Templates.Reload,
		}, logger)

		// --- Module Initialization (Bottom-Up) ---
		accountService := account.NewService(&account.Config{
			Repo:          account.NewRepository(manager),
			Logger:        logger,
			Notifier:      notifier,
			Templates:     engine,
			Tokens:        issuer,
			Revoker:       revoker,
			ResendLimiter: resendLimiter,
			ActivationTTL: cfg.Verification.ActivationTTL,
			ResetTTL:      cfg.Verification.ResetTTL,
		})
		guard := middleware.NewGuard(issuer, accountService, revocations, logger)

		var limiter *middleware.RateLimiter
		if cfg.RateLimit.RPS > 0 {
			limiter = middleware.NewRateLimiter(ctx, cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		}

		router := server.New(server.Deps{
			Config:   cfg,
			Logger:   logger,
			Accounts: accountService,
			Guard:    guard,
			Limiter:  limiter,
		})

		port := cfg.Server.Port
		if options.Port > 0 {
			port = fmt.Sprint(options.Port)
		}
		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		hooks.OnStart(func() {
			logger.Info("starting server", "port", port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("server failed to start", "error", err)
				os.Exit(1)
			}
		})
		hooks.OnStop(func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
			defer done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("graceful shutdown failed", "error", err)
			}
			cancel()
			pool.Close()
			_ = syncLogs()
		})
	})
	cli.Run()
}

// mailDomain returns the domain part of the sender address for Message-IDs.
func mailDomain(from string) string {
	if i := strings.LastIndex(from, "@"); i >= 0 {
		return strings.Trim(from[i+1:], "> ")
	}
	return ""
}
