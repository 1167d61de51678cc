package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Afresh-academy/JosCity-Back-end/internal/config"
	"github.com/Afresh-academy/JosCity-Back-end/internal/httpx"
	"github.com/Afresh-academy/JosCity-Back-end/internal/middleware"
	"github.com/Afresh-academy/JosCity-Back-end/internal/modules/account"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// rateLimitedPrefixes are the credential-accepting routes throttled per IP.
var rateLimitedPrefixes = []string{"/api/auth/", "/api/admin/auth/login"}

// Deps are the collaborators the router is assembled from.
type Deps struct {
	Config   *config.Config
	Logger   *slog.Logger
	Accounts account.Service
	Guard    *middleware.Guard
	// Limiter may be nil to disable throttling.
	Limiter *middleware.RateLimiter
}

// PingResponse is the health check body.
type PingResponse struct {
	Body struct {
		Message   string    `json:"message"`
		Timestamp time.Time `json:"timestamp"`
		Status    string    `json:"status"`
	}
}

// New creates and configures the router with every route registered.
func New(d Deps) chi.Router {
	// Framework errors (bad JSON, parameter errors) use the same envelope.
	huma.NewError = httpx.NewError

	router := chi.NewMux()
	router.Use(chimw.RequestID)
	if d.Config != nil && d.Config.Server.TrustProxy {
		router.Use(chimw.RealIP)
	}
	router.Use(middleware.ClientIP)
	router.Use(middleware.RequestLogger(d.Logger))
	router.Use(chimw.Recoverer)
	router.Use(chimw.Timeout(60 * time.Second))
	if d.Limiter != nil {
		router.Use(limitPrefixes(d.Limiter, rateLimitedPrefixes...))
	}

	apiConfig := huma.DefaultConfig("JosCity API", "1.0.0")
	apiConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	api := humachi.New(router, apiConfig)

	var opts []account.HandlerOption
	if d.Config != nil {
		opts = append(opts,
			account.WithSecureCookie(d.Config.Server.IsProduction()),
			account.WithCookieTTL(d.Config.Verification.TokenTTL),
		)
	}
	accountHandler := account.NewHandler(d.Accounts, d.Logger, opts...)
	accountHandler.RegisterRoutes(api, d.Guard.Authenticated(), d.Guard.Admin())

	huma.Register(api, huma.Operation{
		OperationID: "ping",
		Method:      http.MethodGet,
		Path:        "/api/ping",
		Summary:     "Health check",
		Description: "Responds with the server's health status.",
		Tags:        []string{"Health"},
	}, func(ctx context.Context, _ *struct{}) (*PingResponse, error) {
		resp := &PingResponse{}
		resp.Body.Message = "pong"
		resp.Body.Timestamp = time.Now().UTC()
		resp.Body.Status = "healthy"
		return resp, nil
	})

	return router
}

// limitPrefixes applies the limiter only to paths under the given prefixes.
func limitPrefixes(l *middleware.RateLimiter, prefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limited := l.Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range prefixes {
				if strings.HasPrefix(r.URL.Path, p) {
					limited.ServeHTTP(w, r)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
