package account

import (
	"context"
	"time"

	"github.com/Afresh-academy/JosCity-Back-end/internal/httpx"
	"github.com/Afresh-academy/JosCity-Back-end/internal/validation"
)

// PendingView is one account awaiting review.
type PendingView struct {
	UserID           int64     `json:"user_id"`
	Username         string    `json:"user_name"`
	FirstName        string    `json:"user_firstname,omitempty"`
	LastName         string    `json:"user_lastname,omitempty"`
	Phone            string    `json:"user_phone,omitempty"`
	NIN              string    `json:"nin_number,omitempty"`
	Email            string    `json:"user_email"`
	Address          string    `json:"address,omitempty"`
	RegisteredAt     time.Time `json:"user_registered"`
	AccountType      Type      `json:"account_type"`
	BusinessName     string    `json:"business_name,omitempty"`
	BusinessType     string    `json:"business_type,omitempty"`
	RegistrationNo   string    `json:"CAC_number,omitempty"`
	BusinessLocation string    `json:"business_location,omitempty"`
}

// ListPendingResponse lists accounts awaiting review.
type ListPendingResponse struct {
	Body struct {
		Success bool          `json:"success"`
		Data    []PendingView `json:"data"`
	}
}

// ReviewRequest identifies the account under review.
type ReviewRequest struct {
	Body struct {
		UserID int64  `json:"user_id,omitempty" validate:"required,gt=0"`
		Reason string `json:"reason,omitempty" validate:"max=1000"`
	}
}

func toPendingView(a *Account) PendingView {
	return PendingView{
		UserID:           a.ID,
		Username:         a.Username,
		FirstName:        deref(a.FirstName),
		LastName:         deref(a.LastName),
		Phone:            deref(a.Phone),
		NIN:              deref(a.NIN),
		Email:            a.Email,
		Address:          deref(a.Address),
		RegisteredAt:     a.RegisteredAt,
		AccountType:      a.Type,
		BusinessName:     deref(a.BusinessName),
		BusinessType:     deref(a.BusinessType),
		RegistrationNo:   deref(a.RegistrationNo),
		BusinessLocation: deref(a.BusinessLocation),
	}
}

// ListPendingHandler returns accounts awaiting review, newest first.
func (h *Handler) ListPendingHandler(ctx context.Context, _ *struct{}) (*ListPendingResponse, error) {
	accounts, err := h.service.ListPending(ctx)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &ListPendingResponse{}
	resp.Body.Success = true
	resp.Body.Data = make([]PendingView, 0, len(accounts))
	for i := range accounts {
		resp.Body.Data = append(resp.Body.Data, toPendingView(&accounts[i]))
	}
	return resp, nil
}

// ApproveHandler approves a pending account and emails its activation code.
func (h *Handler) ApproveHandler(ctx context.Context, input *ReviewRequest) (*MessageResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	if err := h.service.Approve(ctx, input.Body.UserID); err != nil {
		h.logger.Warn("approve failed", "user_id", input.Body.UserID, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}
	return message("Account approved and activation code sent to user"), nil
}

// RejectHandler rejects a pending account and notifies the applicant.
func (h *Handler) RejectHandler(ctx context.Context, input *ReviewRequest) (*MessageResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	if err := h.service.Reject(ctx, input.Body.UserID, input.Body.Reason); err != nil {
		h.logger.Warn("reject failed", "user_id", input.Body.UserID, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}
	return message("Account rejected and user notified"), nil
}
