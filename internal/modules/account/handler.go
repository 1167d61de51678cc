package account

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// AdminCookieName is the http-only cookie carrying the admin session token.
const AdminCookieName = "admin_token"

// Handler holds the dependencies for the account module's HTTP handlers.
type Handler struct {
	service      Service
	logger       *slog.Logger
	secureCookie bool
	cookieTTL    time.Duration
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithSecureCookie marks the admin cookie Secure (production).
func WithSecureCookie(secure bool) HandlerOption {
	return func(h *Handler) { h.secureCookie = secure }
}

// WithCookieTTL sets the admin cookie max-age.
func WithCookieTTL(ttl time.Duration) HandlerOption {
	return func(h *Handler) { h.cookieTTL = ttl }
}

// NewHandler creates a new handler for the account module.
func NewHandler(service Service, logger *slog.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		service:   service,
		logger:    logger,
		cookieTTL: 30 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes sets up the routing for the account module.
// authenticated guards bearer-only routes; admin guards the review routes.
func (h *Handler) RegisterRoutes(api huma.API, authenticated, admin huma.Middlewares) {
	// --- Registration ---
	huma.Register(api, huma.Operation{
		OperationID:   "auth-signup",
		Method:        http.MethodPost,
		Path:          "/api/auth/signup",
		Summary:       "Register a new account",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusCreated,
	}, h.SignupHandler)

	huma.Register(api, huma.Operation{
		OperationID:   "auth-register-personal",
		Method:        http.MethodPost,
		Path:          "/api/auth/personal/register",
		Summary:       "Register a personal account",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusCreated,
	}, h.RegisterPersonalHandler)

	huma.Register(api, huma.Operation{
		OperationID:   "auth-register-business",
		Method:        http.MethodPost,
		Path:          "/api/auth/business/register",
		Summary:       "Register a business account",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusCreated,
	}, h.RegisterBusinessHandler)

	// --- Session ---
	huma.Register(api, huma.Operation{
		OperationID: "auth-signin",
		Method:      http.MethodPost,
		Path:        "/api/auth/signin",
		Summary:     "Log in with password and activation code",
		Tags:        []string{"Auth"},
	}, h.SigninHandler)

	huma.Register(api, huma.Operation{
		OperationID: "auth-signout",
		Method:      http.MethodPost,
		Path:        "/api/auth/signout",
		Summary:     "Log out and revoke the current token",
		Tags:        []string{"Auth"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: authenticated,
	}, h.SignoutHandler)

	// --- Codes ---
	huma.Register(api, huma.Operation{
		OperationID: "auth-forget-password",
		Method:      http.MethodPost,
		Path:        "/api/auth/forget_password",
		Summary:     "Request a password reset code",
		Tags:        []string{"Auth"},
	}, h.ForgotPasswordHandler)

	huma.Register(api, huma.Operation{
		OperationID: "auth-forget-password-confirm",
		Method:      http.MethodPost,
		Path:        "/api/auth/forget_password_confirm",
		Summary:     "Check a password reset code",
		Tags:        []string{"Auth"},
	}, h.ConfirmResetHandler)

	huma.Register(api, huma.Operation{
		OperationID: "auth-forget-password-reset",
		Method:      http.MethodPost,
		Path:        "/api/auth/forget_password_reset",
		Summary:     "Reset the password with a reset code",
		Tags:        []string{"Auth"},
	}, h.ResetPasswordHandler)

	huma.Register(api, huma.Operation{
		OperationID: "auth-resend-activation",
		Method:      http.MethodPost,
		Path:        "/api/auth/resend_activation",
		Summary:     "Send a new activation code",
		Tags:        []string{"Auth"},
	}, h.ResendActivationHandler)

	// --- Admin ---
	huma.Register(api, huma.Operation{
		OperationID: "admin-login",
		Method:      http.MethodPost,
		Path:        "/api/admin/auth/login",
		Summary:     "Log in as admin or moderator",
		Tags:        []string{"Admin"},
	}, h.AdminLoginHandler)

	huma.Register(api, huma.Operation{
		OperationID: "admin-list-pending",
		Method:      http.MethodGet,
		Path:        "/api/admin/auth/pending",
		Summary:     "List accounts awaiting review",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: admin,
	}, h.ListPendingHandler)

	huma.Register(api, huma.Operation{
		OperationID: "admin-approve",
		Method:      http.MethodPost,
		Path:        "/api/admin/auth/approve",
		Summary:     "Approve a pending account",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: admin,
	}, h.ApproveHandler)

	huma.Register(api, huma.Operation{
		OperationID: "admin-reject",
		Method:      http.MethodPost,
		Path:        "/api/admin/auth/reject",
		Summary:     "Reject a pending account",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: admin,
	}, h.RejectHandler)
}

// MessageBody is the success envelope for endpoints that only report a message.
type MessageBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// MessageResponse wraps MessageBody.
type MessageResponse struct {
	Body MessageBody
}

func message(msg string) *MessageResponse {
	return &MessageResponse{Body: MessageBody{Success: true, Message: msg}}
}

func (h *Handler) adminCookie(value string, maxAge int) http.Cookie {
	return http.Cookie{
		Name:     AdminCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	}
}
