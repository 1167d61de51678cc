package account

import (
	"fmt"
	"net/http"
)

// DomainError is a structured, self-describing domain error used across the account module.
// It carries HTTP-friendly metadata so httpx.ToProblem can turn any domain error into the
// error envelope without enumerating error types.
type DomainError struct {
	// Code is a stable, machine-readable business code (e.g., "ErrAccountPending").
	Code string

	// HTTPStatus is the HTTP status suggested for this error.
	HTTPStatus int

	// Message is the public message sent to clients.
	Message string

	// Context is an optional extension payload for clients.
	Context any

	// cause is the underlying error that triggered this one, if any.
	cause error
}

// Error satisfies the standard Go error interface.
// It includes the underlying cause's error message if it exists.
func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap provides compatibility for Go's errors.Is and errors.As functions,
// allowing access to the underlying error chain.
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is enables errors.Is comparisons based on the stable Code rather than pointer identity.
// This ensures copies created via WithCause match their sentinel counterpart (e.g., ErrNotFound).
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a new instance of the DomainError, wrapping the provided cause.
func (e *DomainError) WithCause(err error) *DomainError {
	if err == nil {
		return e
	}
	cp := *e
	cp.cause = err
	return &cp
}

// WithMessage returns a copy with a different public message.
func (e *DomainError) WithMessage(msg string) *DomainError {
	cp := *e
	cp.Message = msg
	return &cp
}

// --- Envelope accessors (satisfy httpx.DomainProblem) ---

func (e *DomainError) ProblemCode() string { return e.Code }
func (e *DomainError) ProblemStatus() int {
	if e.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTPStatus
}
func (e *DomainError) ProblemDetail() string { return e.Message }
func (e *DomainError) ProblemContext() any   { return e.Context }

func newError(code string, status int, msg string) *DomainError {
	return &DomainError{Code: code, HTTPStatus: status, Message: msg}
}

// --- Pre-defined Domain Errors ---

var (
	// Lookup
	ErrNotFound = newError("ErrNotFound", http.StatusNotFound, "User not found or already processed")

	// Conflicts are reported as 400 with the offending field named.
	ErrEmailExists              = newError("ErrEmailExists", http.StatusBadRequest, "Email already registered")
	ErrNINExists                = newError("ErrNINExists", http.StatusBadRequest, "NIN number already registered")
	ErrRegistrationNumberExists = newError("ErrRegistrationNumberExists", http.StatusBadRequest, "Business registration number already registered")

	// Authentication
	ErrInvalidCredentials    = newError("ErrInvalidCredentials", http.StatusUnauthorized, "Invalid email or password")
	ErrAccountPending        = newError("ErrAccountPending", http.StatusUnauthorized, "Account is still under review. Please wait for approval.")
	ErrAccountRejected       = newError("ErrAccountRejected", http.StatusUnauthorized, "Account registration was rejected. Please contact support.")
	ErrAccountSuspended      = newError("ErrAccountSuspended", http.StatusUnauthorized, "Account is suspended. Please contact support.")
	ErrInvalidActivationCode = newError("ErrInvalidActivationCode", http.StatusUnauthorized, "Invalid activation code")
	ErrActivationCodeExpired = newError("ErrActivationCodeExpired", http.StatusUnauthorized, "Activation code has expired. Please contact support for a new one.")
	ErrInvalidResetCode      = newError("ErrInvalidResetCode", http.StatusUnauthorized, "Invalid or expired reset code")
	ErrUnauthorized          = newError("ErrUnauthorized", http.StatusUnauthorized, "Access denied. No token provided.")
	ErrTokenExpired          = newError("ErrTokenExpired", http.StatusUnauthorized, "Token expired. Please login again.")
	ErrTokenInvalid          = newError("ErrTokenInvalid", http.StatusUnauthorized, "Authentication failed")
	ErrAccountGone           = newError("ErrAccountGone", http.StatusUnauthorized, "User not found")

	// Input
	ErrPasswordMismatch = newError("ErrPasswordMismatch", http.StatusBadRequest, "Passwords do not match")

	// Authorization
	ErrAdminRequired      = newError("ErrAdminRequired", http.StatusForbidden, "Access denied. Admin privileges required.")
	ErrSuperAdminRequired = newError("ErrSuperAdminRequired", http.StatusForbidden, "Access denied. Super admin privileges required.")
	ErrAdminNotApproved   = newError("ErrAdminNotApproved", http.StatusForbidden, "Account is not approved. Please contact support.")

	// Abuse controls
	ErrResendTooSoon = newError("ErrResendTooSoon", http.StatusTooManyRequests, "Please wait before requesting another code")

	// Configuration & internal
	ErrAuthNotConfigured = newError("ErrAuthNotConfigured", http.StatusInternalServerError, "Server configuration error: JWT authentication not properly configured")
	ErrInternal          = newError("ErrInternal", http.StatusInternalServerError, "Something went wrong. Please try again later.")
)
