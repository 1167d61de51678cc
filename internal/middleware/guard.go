package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/Afresh-academy/JosCity-Back-end/internal/contextx"
	"github.com/Afresh-academy/JosCity-Back-end/internal/httpx"
	"github.com/Afresh-academy/JosCity-Back-end/internal/modules/account"
	"github.com/Afresh-academy/JosCity-Back-end/internal/token"
	"github.com/danielgtaylor/huma/v2"
)

// RoleSource loads an account's current role.
type RoleSource interface {
	Role(ctx context.Context, id int64) (account.Role, error)
}

// RevocationChecker reports whether a token ID has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Guard authenticates bearer tokens and authorizes admin routes. It is
// router-agnostic: every check runs as a huma middleware.
type Guard struct {
	tokens  *token.Issuer
	roles   RoleSource
	revoked RevocationChecker
	log     *slog.Logger
}

// NewGuard creates a Guard. tokens may be nil, in which case every guarded
// request is refused with a configuration error. revoked may be nil.
func NewGuard(tokens *token.Issuer, roles RoleSource, revoked RevocationChecker, log *slog.Logger) *Guard {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Guard{tokens: tokens, roles: roles, revoked: revoked, log: log}
}

// Authenticated returns the chain for routes that need a valid token.
func (g *Guard) Authenticated() huma.Middlewares {
	return huma.Middlewares{g.Authenticate}
}

// Admin returns the chain for routes open to admins and moderators.
func (g *Guard) Admin() huma.Middlewares {
	return huma.Middlewares{g.Authenticate, g.RequireAdmin}
}

// SuperAdmin returns the chain for routes open to admins only.
func (g *Guard) SuperAdmin() huma.Middlewares {
	return huma.Middlewares{g.Authenticate, g.RequireSuperAdmin}
}

// Authenticate verifies the token from the Authorization header (raw or
// "Bearer <token>") or the admin cookie, and stores the account ID and
// claims in the context.
func (g *Guard) Authenticate(ctx huma.Context, next func(huma.Context)) {
	if g.tokens == nil {
		g.log.Error("token issuer not configured, refusing authenticated request")
		writeProblem(ctx, account.ErrAuthNotConfigured)
		return
	}

	raw := extractToken(ctx)
	if raw == "" {
		writeProblem(ctx, account.ErrUnauthorized)
		return
	}

	claims, err := g.tokens.Verify(raw)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			writeProblem(ctx, account.ErrTokenExpired)
			return
		}
		g.log.Warn("invalid token", "error", err)
		writeProblem(ctx, account.ErrTokenInvalid)
		return
	}

	if g.revoked != nil {
		revoked, err := g.revoked.IsRevoked(ctx.Context(), claims.ID)
		if err != nil {
			g.log.Error("revocation check failed", "error", err)
			writeProblem(ctx, account.ErrInternal.WithCause(err))
			return
		}
		if revoked {
			writeProblem(ctx, account.ErrTokenInvalid)
			return
		}
	}

	ctx = huma.WithValue(ctx, contextx.UserIDKey, claims.UserID)
	ctx = huma.WithValue(ctx, contextx.ClaimsKey, claims)
	next(ctx)
}

// RequireAdmin admits admins and moderators. The role is loaded from storage
// on every request rather than trusted from the token.
func (g *Guard) RequireAdmin(ctx huma.Context, next func(huma.Context)) {
	role, ok := g.loadRole(ctx)
	if !ok {
		return
	}
	switch role {
	case account.RoleAdmin, account.RoleModerator:
		next(huma.WithValue(ctx, contextx.RoleKey, role))
	case account.RoleMember:
		writeProblem(ctx, account.ErrAdminRequired)
	}
}

// RequireSuperAdmin admits admins only.
func (g *Guard) RequireSuperAdmin(ctx huma.Context, next func(huma.Context)) {
	role, ok := g.loadRole(ctx)
	if !ok {
		return
	}
	switch role {
	case account.RoleAdmin:
		next(huma.WithValue(ctx, contextx.RoleKey, role))
	case account.RoleModerator, account.RoleMember:
		writeProblem(ctx, account.ErrSuperAdminRequired)
	}
}

func (g *Guard) loadRole(ctx huma.Context) (account.Role, bool) {
	id, ok := ctx.Context().Value(contextx.UserIDKey).(int64)
	if !ok {
		writeProblem(ctx, account.ErrUnauthorized)
		return account.RoleMember, false
	}
	role, err := g.roles.Role(ctx.Context(), id)
	if err != nil {
		writeProblem(ctx, err)
		return account.RoleMember, false
	}
	return role, true
}

func extractToken(ctx huma.Context) string {
	if h := strings.TrimSpace(ctx.Header("Authorization")); h != "" {
		if rest, found := strings.CutPrefix(h, "Bearer "); found {
			return strings.TrimSpace(rest)
		}
		return h
	}
	if c, err := huma.ReadCookie(ctx, account.AdminCookieName); err == nil {
		return c.Value
	}
	return ""
}

// writeProblem renders err in the error envelope from inside a middleware,
// outside huma's handler response pipeline.
func writeProblem(ctx huma.Context, err error) {
	var p *httpx.Problem
	if !errors.As(httpx.ToProblem(ctx.Context(), err), &p) {
		p = httpx.InternalProblem(ctx.Context(), "")
	}
	ctx.SetHeader("Content-Type", "application/json")
	ctx.SetStatus(p.GetStatus())
	_ = json.NewEncoder(ctx.BodyWriter()).Encode(p)
}
