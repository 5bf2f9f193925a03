package types

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account in the system.
// Its JSON form is the public projection: the credential fields and role are never exposed.
type User struct {
	// ID is the opaque, store-assigned identifier of the user.
	ID string `json:"id" db:"id"`

	// Username is the unique name chosen at registration, or the Google
	// display name for federated accounts.
	Username string `json:"username" db:"username"`

	// Email is the unique, lowercase-normalized email address.
	Email string `json:"email" db:"email"`

	// PasswordHash is the bcrypt hash for local accounts; empty for federated ones.
	PasswordHash string `json:"-" db:"password_hash"`

	// GoogleID is the verified Google subject for federated accounts; empty for local ones.
	GoogleID string `json:"-" db:"google_id"`

	// Role is the authorization level ("user" or "admin").
	Role string `json:"-" db:"role"`

	// JoinDate is the timestamp when the account was created.
	JoinDate time.Time `json:"joinDate" db:"join_date"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// OwnerSummary is the owner reference resolved for cross-owner listings.
type OwnerSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
