package account

import (
	"strings"
	"time"
)

// Status is the coarse lifecycle state of an account.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusSuspended Status = "suspended"
)

// Type distinguishes personal from business accounts.
type Type string

const (
	TypePersonal Type = "personal"
	TypeBusiness Type = "business"
)

// Group is the numeric role tier stored in user_group.
type Group int

const (
	GroupAdmin     Group = 1
	GroupModerator Group = 2
	GroupMember    Group = 3
)

// Role is the closed set of roles derived from a Group.
type Role int

const (
	RoleMember Role = iota
	RoleModerator
	RoleAdmin
)

// Role maps the stored group onto a Role. Any tier other than 1 or 2 is an
// ordinary member.
func (g Group) Role() Role {
	switch g {
	case GroupAdmin:
		return RoleAdmin
	case GroupModerator:
		return RoleModerator
	default:
		return RoleMember
	}
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleModerator:
		return "moderator"
	case RoleMember:
		return "member"
	}
	return "unknown"
}

// Account represents a row in the users table.
type Account struct {
	ID                int64      `db:"user_id"`
	Username          string     `db:"user_name"`
	FirstName         *string    `db:"user_firstname"`
	LastName          *string    `db:"user_lastname"`
	Gender            *string    `db:"user_gender"`
	Phone             *string    `db:"user_phone"`
	NIN               *string    `db:"nin_number"`
	Email             string     `db:"user_email"`
	PasswordHash      string     `db:"user_password"`
	Address           *string    `db:"address"`
	Status            Status     `db:"account_status"`
	Type              Type       `db:"account_type"`
	BusinessName      *string    `db:"business_name"`
	BusinessType      *string    `db:"business_type"`
	RegistrationNo    *string    `db:"cac_number"`
	BusinessLocation  *string    `db:"business_location"`
	ActivationCode    *string    `db:"activation_code"`
	ActivationExpires *time.Time `db:"activation_expires"`
	IsVerified        bool       `db:"is_verified"`
	VerifiedAt        *time.Time `db:"verified_at"`
	ResetCode         *string    `db:"reset_code"`
	ResetExpires      *time.Time `db:"reset_expires"`
	Group             Group      `db:"user_group"`
	HasVerifiedBadge  bool       `db:"user_verified"`
	Banned            bool       `db:"user_banned"`
	BannedMessage     *string    `db:"user_banned_message"`
	RegisteredAt      time.Time  `db:"user_registered"`
	LastSeen          *time.Time `db:"user_last_seen"`
	LastLogin         *time.Time `db:"last_login"`
}

// columns lists every users column read into Account, in struct order.
var columns = []string{
	"user_id", "user_name", "user_firstname", "user_lastname", "user_gender", "user_phone",
	"nin_number", "user_email", "user_password", "address", "account_status", "account_type",
	"business_name", "business_type", "cac_number", "business_location",
	"activation_code", "activation_expires", "is_verified", "verified_at",
	"reset_code", "reset_expires", "user_group", "user_verified", "user_banned",
	"user_banned_message", "user_registered", "user_last_seen", "last_login",
}

// IsBusiness reports whether this is a business account.
func (a *Account) IsBusiness() bool { return a.Type == TypeBusiness }

// DisplayName is the business name for business accounts and "first last"
// for personal ones.
func (a *Account) DisplayName() string {
	if a.IsBusiness() {
		return deref(a.BusinessName)
	}
	return strings.TrimSpace(deref(a.FirstName) + " " + deref(a.LastName))
}

// Session is a row in users_sessions recording one issued token.
type Session struct {
	ID           int64     `db:"session_id"`
	UserID       int64     `db:"user_id"`
	SessionToken string    `db:"session_token"`
	UserAgent    string    `db:"user_agent"`
	IPAddress    string    `db:"ip_address"`
	CreatedAt    time.Time `db:"session_date"`
	LastActivity time.Time `db:"last_activity"`
}

// Profile is the registration input shared by personal and business accounts.
type Profile struct {
	FirstName        string
	LastName         string
	Gender           string
	Phone            string
	NIN              string
	Email            string
	Password         string
	Address          string
	Type             Type
	BusinessName     string
	BusinessType     string
	RegistrationNo   string
	BusinessLocation string
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// optional returns nil for an empty string so blank unique fields are stored as NULL.
func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
