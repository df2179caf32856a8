package model

import "time"

// Role names stored in users.role and embedded in JWT claims.
const (
	RolePassenger = "PASSENGER"
	RoleCashier   = "CASHIER"
	RoleAdmin     = "ADMIN"
)

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags.
//
// Fields:
//  ID        – primary key identifier of the user.
//  Username  – unique login name.
//  Password  – opaque credential string. The demo configuration
//              stores it verbatim; utils.CredentialVerifier is the
//              only code allowed to interpret it.
//  Role      – PASSENGER, CASHIER or ADMIN.
//  FullName  – display name of the account holder.
//  Email     – contact email.
//  Phone     – contact phone number.
//  CreatedAt – timestamp of registration.
type User struct {
	ID        uint64    // users.id
	Username  string    // users.username
	Password  string    // users.password
	Role      string    // users.role
	FullName  string    // users.full_name
	Email     string    // users.email
	Phone     string    // users.phone
	CreatedAt time.Time // users.created_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
