package account

import (
	"context"
	"net/http"
	"time"

	"github.com/Afresh-academy/JosCity-Back-end/internal/contextx"
	"github.com/Afresh-academy/JosCity-Back-end/internal/httpx"
	"github.com/Afresh-academy/JosCity-Back-end/internal/token"
	"github.com/Afresh-academy/JosCity-Back-end/internal/validation"
)

// --- DTOs (Data Transfer Objects) ---

// RegisterBody is the registration payload shared by every signup route.
type RegisterBody struct {
	FirstName        string `json:"first_name,omitempty" validate:"required,max=256"`
	LastName         string `json:"last_name,omitempty" validate:"required,max=256"`
	Gender           string `json:"gender,omitempty" validate:"required,max=32"`
	Phone            string `json:"phone_number,omitempty" validate:"required,max=32"`
	NIN              string `json:"nin_number,omitempty" validate:"required_if=AccountType personal,max=32"`
	Email            string `json:"email,omitempty" validate:"required,email,max=256"`
	Password         string `json:"password,omitempty" validate:"required,min=6,max=72"`
	Address          string `json:"address,omitempty" validate:"required"`
	AccountType      string `json:"account_type,omitempty" validate:"oneof=personal business"`
	BusinessName     string `json:"business_name,omitempty" validate:"required_if=AccountType business,max=256"`
	BusinessType     string `json:"business_type,omitempty" validate:"required_if=AccountType business,max=128"`
	RegistrationNo   string `json:"CAC_number,omitempty" validate:"required_if=AccountType business,max=64"`
	BusinessLocation string `json:"business_location,omitempty" validate:"max=1024"`
}

// RegisterRequest defines the structure for the registration request body.
type RegisterRequest struct {
	Body RegisterBody
}

// RegisterResponse defines the structure for a successful registration response.
type RegisterResponse struct {
	Body struct {
		Success     bool   `json:"success"`
		Message     string `json:"message"`
		UserID      int64  `json:"user_id"`
		Status      Status `json:"status"`
		AccountType Type   `json:"account_type"`
	}
}

// SigninRequest defines the structure for the login request body.
type SigninRequest struct {
	UserAgent string `header:"User-Agent"`
	Body      struct {
		Email          string `json:"email,omitempty" validate:"required,email"`
		Password       string `json:"password,omitempty" validate:"required"`
		ActivationCode string `json:"activation_code,omitempty"`
	}
}

// UserView is the client-facing account summary returned on login.
type UserView struct {
	UserID           int64  `json:"user_id"`
	Email            string `json:"email"`
	IsVerified       bool   `json:"is_verified"`
	HasVerifiedBadge bool   `json:"has_verified_badge"`
	AccountType      Type   `json:"account_type"`
	FirstName        string `json:"first_name,omitempty"`
	LastName         string `json:"last_name,omitempty"`
	BusinessName     string `json:"business_name,omitempty"`
	DisplayName      string `json:"display_name"`
}

// SigninResponse defines the structure for a successful login response.
type SigninResponse struct {
	Body struct {
		Success bool     `json:"success"`
		Message string   `json:"message"`
		Token   string   `json:"token"`
		User    UserView `json:"user"`
	}
}

// AdminView is the account summary returned on admin login.
type AdminView struct {
	UserID           int64  `json:"user_id"`
	Email            string `json:"email"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	DisplayName      string `json:"display_name"`
	UserGroup        Group  `json:"user_group"`
	IsAdmin          bool   `json:"is_admin"`
	IsModerator      bool   `json:"is_moderator"`
	AccountType      Type   `json:"account_type"`
	IsVerified       bool   `json:"is_verified"`
	HasVerifiedBadge bool   `json:"has_verified_badge"`
}

// AdminLoginRequest defines the admin login body.
type AdminLoginRequest struct {
	UserAgent string `header:"User-Agent"`
	Body      struct {
		Email    string `json:"email,omitempty" validate:"required,email"`
		Password string `json:"password,omitempty" validate:"required"`
	}
}

// AdminLoginResponse returns the elevated token in the body and as a cookie.
type AdminLoginResponse struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      struct {
		Success  bool      `json:"success"`
		Message  string    `json:"message"`
		Token    string    `json:"token"`
		Admin    AdminView `json:"admin"`
		Redirect string    `json:"redirect"`
	}
}

// SignoutResponse clears the admin cookie.
type SignoutResponse struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      MessageBody
}

// --- Mappers ---

func toProfile(b RegisterBody) Profile {
	return Profile{
		FirstName:        b.FirstName,
		LastName:         b.LastName,
		Gender:           b.Gender,
		Phone:            b.Phone,
		NIN:              b.NIN,
		Email:            b.Email,
		Password:         b.Password,
		Address:          b.Address,
		Type:             Type(b.AccountType),
		BusinessName:     b.BusinessName,
		BusinessType:     b.BusinessType,
		RegistrationNo:   b.RegistrationNo,
		BusinessLocation: b.BusinessLocation,
	}
}

func toUserView(a *Account) UserView {
	v := UserView{
		UserID:           a.ID,
		Email:            a.Email,
		IsVerified:       a.IsVerified,
		HasVerifiedBadge: a.HasVerifiedBadge,
		AccountType:      a.Type,
		DisplayName:      a.DisplayName(),
	}
	if a.IsBusiness() {
		v.BusinessName = deref(a.BusinessName)
	} else {
		v.FirstName = deref(a.FirstName)
		v.LastName = deref(a.LastName)
	}
	return v
}

func toAdminView(a *Account, role Role) AdminView {
	return AdminView{
		UserID:           a.ID,
		Email:            a.Email,
		FirstName:        deref(a.FirstName),
		LastName:         deref(a.LastName),
		DisplayName:      a.DisplayName(),
		UserGroup:        a.Group,
		IsAdmin:          role == RoleAdmin,
		IsModerator:      role == RoleModerator,
		AccountType:      a.Type,
		IsVerified:       a.IsVerified,
		HasVerifiedBadge: a.HasVerifiedBadge,
	}
}

// --- Handlers ---

// SignupHandler registers an account of the type named in the body (personal by default).
func (h *Handler) SignupHandler(ctx context.Context, input *RegisterRequest) (*RegisterResponse, error) {
	if input.Body.AccountType == "" {
		input.Body.AccountType = string(TypePersonal)
	}
	return h.register(ctx, input.Body)
}

// RegisterPersonalHandler registers a personal account.
func (h *Handler) RegisterPersonalHandler(ctx context.Context, input *RegisterRequest) (*RegisterResponse, error) {
	input.Body.AccountType = string(TypePersonal)
	return h.register(ctx, input.Body)
}

// RegisterBusinessHandler registers a business account.
func (h *Handler) RegisterBusinessHandler(ctx context.Context, input *RegisterRequest) (*RegisterResponse, error) {
	input.Body.AccountType = string(TypeBusiness)
	return h.register(ctx, input.Body)
}

func (h *Handler) register(ctx context.Context, body RegisterBody) (*RegisterResponse, error) {
	if verr := validation.ValidateStruct(&body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	a, err := h.service.Register(ctx, toProfile(body))
	if err != nil {
		h.logger.Warn("registration failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &RegisterResponse{}
	resp.Body.Success = true
	resp.Body.Message = "Registration submitted for review. You will receive an email once approved."
	resp.Body.UserID = a.ID
	resp.Body.Status = a.Status
	resp.Body.AccountType = a.Type
	return resp, nil
}

// SigninHandler handles the login endpoint.
func (h *Handler) SigninHandler(ctx context.Context, input *SigninRequest) (*SigninResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	res, err := h.service.Login(ctx, LoginInput{
		Email:          input.Body.Email,
		Password:       input.Body.Password,
		ActivationCode: input.Body.ActivationCode,
		UserAgent:      input.UserAgent,
		IPAddress:      clientIP(ctx),
	})
	if err != nil {
		h.logger.Warn("login attempt failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &SigninResponse{}
	resp.Body.Success = true
	resp.Body.Message = "Login successful"
	resp.Body.Token = res.Token
	resp.Body.User = toUserView(res.Account)
	return resp, nil
}

// AdminLoginHandler authenticates an admin or moderator and sets the admin cookie.
func (h *Handler) AdminLoginHandler(ctx context.Context, input *AdminLoginRequest) (*AdminLoginResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	res, err := h.service.AdminLogin(ctx, LoginInput{
		Email:     input.Body.Email,
		Password:  input.Body.Password,
		UserAgent: input.UserAgent,
		IPAddress: clientIP(ctx),
	})
	if err != nil {
		h.logger.Warn("admin login attempt failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &AdminLoginResponse{}
	resp.SetCookie = h.adminCookie(res.Token, int(h.cookieTTL/time.Second))
	resp.Body.Success = true
	resp.Body.Message = "Admin login successful"
	resp.Body.Token = res.Token
	resp.Body.Admin = toAdminView(res.Account, res.Role)
	resp.Body.Redirect = "/admin/dashboard"
	return resp, nil
}

// SignoutHandler revokes the caller's token and clears the admin cookie.
func (h *Handler) SignoutHandler(ctx context.Context, _ *struct{}) (*SignoutResponse, error) {
	claims, _ := ctx.Value(contextx.ClaimsKey).(*token.Claims)
	if err := h.service.SignOut(ctx, claims); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &SignoutResponse{}
	resp.SetCookie = h.adminCookie("", -1)
	resp.Body = MessageBody{Success: true, Message: "Logged out successfully"}
	return resp, nil
}

// clientIP returns the caller address stored by middleware.ClientIP, if any.
func clientIP(ctx context.Context) string {
	ip, _ := ctx.Value(contextx.ClientIPKey).(string)
	return ip
}
