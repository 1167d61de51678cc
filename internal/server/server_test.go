package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Afresh-academy/JosCity-Back-end/internal/config"
	"github.com/Afresh-academy/JosCity-Back-end/internal/middleware"
	"github.com/Afresh-academy/JosCity-Back-end/internal/modules/account"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, limiter *middleware.RateLimiter) http.Handler {
	t.Helper()
	return newConfiguredRouter(t, nil, limiter)
}

func newConfiguredRouter(t *testing.T, cfg *config.Config, limiter *middleware.RateLimiter) http.Handler {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	svc := account.NewService(&account.Config{Logger: log})
	return New(Deps{
		Config:   cfg,
		Logger:   log,
		Accounts: svc,
		Guard:    middleware.NewGuard(nil, svc, nil, log),
		Limiter:  limiter,
	})
}

func do(h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	req.RemoteAddr = "102.89.1.4:40000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPing(t *testing.T) {
	rec := do(newTestRouter(t, nil), http.MethodGet, "/api/ping", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "pong", body["message"])
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestSchemaErrorsUseEnvelope(t *testing.T) {
	rec := do(newTestRouter(t, nil), http.MethodPost, "/api/auth/signup", `{"first_name": 5}`)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["error"])
	assert.Equal(t, "ErrValidation", body["code"])
}

func TestGuardedRoutesNeedConfiguredAuth(t *testing.T) {
	rec := do(newTestRouter(t, nil), http.MethodGet, "/api/admin/auth/pending", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "ErrAuthNotConfigured")
}

func TestRateLimitOnlyCoversAuthRoutes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	router := newTestRouter(t, middleware.NewRateLimiter(ctx, 0.001, 1))

	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPost, "/api/auth/signup", `{"first_name": 5}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(router, http.MethodPost, "/api/auth/signup", `{"first_name": 5}`).Code)

	for range 3 {
		assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/api/ping", "").Code)
	}
}

func TestRateLimitIgnoresForwardedForByDefault(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	router := newTestRouter(t, middleware.NewRateLimiter(ctx, 0.001, 1))

	first := do(router, http.MethodPost, "/api/auth/signup", `{"first_name": 5}`, "X-Forwarded-For", "203.0.113.1")
	assert.Equal(t, http.StatusBadRequest, first.Code)

	second := do(router, http.MethodPost, "/api/auth/signup", `{"first_name": 5}`, "X-Forwarded-For", "203.0.113.2")
	assert.Equal(t, http.StatusTooManyRequests, second.Code, "a spoofed header must not open a new bucket")
}

func TestRateLimitUsesForwardedForBehindTrustedProxy(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	cfg := &config.Config{Server: config.ServerConfig{TrustProxy: true}}
	router := newConfiguredRouter(t, cfg, middleware.NewRateLimiter(ctx, 0.001, 1))

	for _, ip := range []string{"203.0.113.1", "203.0.113.2"} {
		rec := do(router, http.MethodPost, "/api/auth/signup", `{"first_name": 5}`, "X-Forwarded-For", ip)
		assert.Equal(t, http.StatusBadRequest, rec.Code, ip)
	}
	rec := do(router, http.MethodPost, "/api/auth/signup", `{"first_name": 5}`, "X-Forwarded-For", "203.0.113.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
