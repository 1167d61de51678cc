package account

import (
	"context"

	"github.com/Afresh-academy/JosCity-Back-end/internal/httpx"
	"github.com/Afresh-academy/JosCity-Back-end/internal/validation"
)

// --- DTOs ---

// EmailRequest carries a single email address.
type EmailRequest struct {
	Body struct {
		Email string `json:"email,omitempty" validate:"required,email"`
	}
}

// ConfirmResetRequest defines the structure for checking a reset code.
type ConfirmResetRequest struct {
	Body struct {
		Email    string `json:"email,omitempty" validate:"required,email"`
		ResetKey string `json:"reset_key,omitempty" validate:"required,len=6,numeric"`
	}
}

// ResetPasswordRequest defines the structure for finalizing a password reset.
type ResetPasswordRequest struct {
	Body struct {
		Email    string `json:"email,omitempty" validate:"required,email"`
		ResetKey string `json:"reset_key,omitempty" validate:"required,len=6,numeric"`
		Password string `json:"password,omitempty" validate:"required,min=6,max=72"`
		Confirm  string `json:"confirm,omitempty" validate:"required"`
	}
}

// --- Handlers ---

// ForgotPasswordHandler handles the request to initiate a password reset.
func (h *Handler) ForgotPasswordHandler(ctx context.Context, input *EmailRequest) (*MessageResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	if err := h.service.RequestPasswordReset(ctx, input.Body.Email); err != nil {
		// The response never reveals whether the email exists or whether
		// delivery worked.
		h.logger.Error("failed to initiate password reset", "error", err)
	}
	return message("If the email exists, a reset code has been sent"), nil
}

// ConfirmResetHandler checks a reset code before the final reset step.
func (h *Handler) ConfirmResetHandler(ctx context.Context, input *ConfirmResetRequest) (*MessageResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	if err := h.service.ConfirmReset(ctx, input.Body.Email, input.Body.ResetKey); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return message("Reset code verified successfully"), nil
}

// ResetPasswordHandler sets a new password using a reset code.
func (h *Handler) ResetPasswordHandler(ctx context.Context, input *ResetPasswordRequest) (*MessageResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	b := input.Body
	if err := h.service.ResetPassword(ctx, b.Email, b.ResetKey, b.Password, b.Confirm); err != nil {
		h.logger.Warn("failed to reset password", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}
	return message("Password has been reset successfully. You can now login with your new password."), nil
}

// ResendActivationHandler issues a fresh activation code.
func (h *Handler) ResendActivationHandler(ctx context.Context, input *EmailRequest) (*MessageResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	if err := h.service.ResendActivation(ctx, input.Body.Email); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return message("New activation code sent to your email"), nil
}
