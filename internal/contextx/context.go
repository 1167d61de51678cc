package contextx

// Key is a private type to avoid collisions in request context keys.
type Key string

// UserIDKey is the context key used to store the authenticated account ID (int64).
const UserIDKey Key = "userID"

// ClaimsKey is the context key used to store the verified token claims (*token.Claims).
const ClaimsKey Key = "claims"

// RoleKey is the context key used to store the caller's role once an admin
// guard has loaded it (account.Role).
const RoleKey Key = "role"

// ClientIPKey is the context key used to store the caller's IP address (string).
const ClientIPKey Key = "clientIP"
