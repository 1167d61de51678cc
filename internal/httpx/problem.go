package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5/middleware"
)

// Problem is the error envelope returned by every endpoint:
//
//	{"error": true, "message": "...", "code": "...", "context": ..., "requestId": "..."}
//
// The HTTP status travels in the response line, not the body.
type Problem struct {
	Failed    bool   `json:"error"`
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	Context   any    `json:"context,omitempty"`
	RequestID string `json:"requestId,omitempty"`

	Status int `json:"-"`
}

// Error implements the error interface.
func (p *Problem) Error() string {
	if p.Message != "" {
		return p.Message
	}
	return http.StatusText(p.GetStatus())
}

// GetStatus implements huma.StatusError to set HTTP response status.
func (p *Problem) GetStatus() int {
	if p.Status == 0 {
		return http.StatusInternalServerError
	}
	return p.Status
}

// DomainProblem is a minimal interface for domain errors so the formatter
// can build a Problem without enumerating all domain error types.
type DomainProblem interface {
	ProblemCode() string
	ProblemStatus() int
	ProblemDetail() string
	ProblemContext() any
}

// ToProblem converts any error into a Problem.
//
//   - A Problem is returned as-is.
//   - A DomainProblem is formatted into a Problem.
//   - Any other huma.StatusError passes through.
//   - Anything else becomes a generic internal Problem.
func ToProblem(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var p *Problem
	if errors.As(err, &p) {
		return p
	}

	var dp DomainProblem
	if errors.As(err, &dp) {
		status := dp.ProblemStatus()
		return &Problem{
			Failed:    true,
			Message:   defaultMessage(dp.ProblemDetail(), status),
			Code:      dp.ProblemCode(),
			Context:   dp.ProblemContext(),
			RequestID: middleware.GetReqID(ctx),
			Status:    status,
		}
	}

	var se huma.StatusError
	if errors.As(err, &se) {
		return se
	}
	return InternalProblem(ctx, "")
}

// InternalProblem builds a generic 500 problem. If message is empty, a safe
// user-friendly message is used.
func InternalProblem(ctx context.Context, message string) *Problem {
	if message == "" {
		message = "Something went wrong. Please try again later."
	}
	return &Problem{
		Failed:    true,
		Message:   message,
		Code:      "ErrInternal",
		RequestID: middleware.GetReqID(ctx),
		Status:    http.StatusInternalServerError,
	}
}

// NewError replaces huma.NewError so framework-generated failures (malformed
// bodies, parameter errors) use the same envelope. Request validation
// failures are reported as 400 rather than 422.
func NewError(status int, message string, errs ...error) huma.StatusError {
	if status == http.StatusUnprocessableEntity {
		status = http.StatusBadRequest
	}
	p := &Problem{
		Failed:  true,
		Message: defaultMessage(message, status),
		Code:    codeForStatus(status),
		Status:  status,
	}
	fields := map[string][]string{}
	for _, err := range errs {
		var detail *huma.ErrorDetail
		if errors.As(err, &detail) {
			fields[detail.Location] = append(fields[detail.Location], detail.Message)
			continue
		}
		if err != nil {
			fields[""] = append(fields[""], err.Error())
		}
	}
	if len(fields) > 0 {
		p.Context = map[string]any{"fields": fields}
	}
	return p
}

// WriteProblem writes p as JSON. It is used by middleware that runs outside
// huma's response pipeline.
func WriteProblem(w http.ResponseWriter, p *Problem) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(p.GetStatus())
	_ = json.NewEncoder(w).Encode(p)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "ErrValidation"
	case http.StatusUnauthorized:
		return "ErrUnauthorized"
	case http.StatusForbidden:
		return "ErrForbidden"
	case http.StatusNotFound:
		return "ErrNotFound"
	case http.StatusTooManyRequests:
		return "ErrTooManyRequests"
	}
	if status >= 500 {
		return "ErrInternal"
	}
	return ""
}

func defaultMessage(message string, status int) string {
	if message != "" {
		return message
	}
	switch status {
	case http.StatusUnauthorized:
		return "Unauthorized"
	case http.StatusForbidden:
		return "Forbidden"
	case http.StatusNotFound:
		return "Not found"
	case http.StatusBadRequest:
		return "Bad request"
	default:
		return http.StatusText(status)
	}
}
