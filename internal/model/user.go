package model

import "time"

// Role names carried in the users.role column and the JWT "role" claim.
const (
	RoleAdmin    = "Admin"
	RoleManager  = "Manager"
	RoleCustomer = "Customer"
)

// AllRoles lists every role in descending order of privilege.
var AllRoles = []string{RoleAdmin, RoleManager, RoleCustomer}

// User represents an application user record as stored in the
// `users` table.  Each user holds exactly one role; authorization
// policies are checks against a set of accepted roles.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Email        – unique email address.
//	PasswordHash – bcrypt hashed password.
//	FirstName    – given name.
//	LastName     – family name.
//	Phone        – optional profile phone.
//	Country      – optional country.
//	Role         – Admin, Manager or Customer.
//	IsBlocked    – blocked users may sign in but cannot book.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    `json:"id"`         // users.id
	Email        string    `json:"email"`      // users.email
	PasswordHash string    `json:"-"`          // users.password_hash
	FirstName    string    `json:"first_name"` // users.first_name
	LastName     string    `json:"last_name"`  // users.last_name
	Phone        *string   `json:"phone"`      // users.phone (nullable)
	Country      *string   `json:"country"`    // users.country (nullable)
	Role         string    `json:"role"`       // users.role
	IsBlocked    bool      `json:"is_blocked"` // users.is_blocked
	CreatedAt    time.Time `json:"created_at"` // users.created_at
	UpdatedAt    time.Time `json:"updated_at"` // users.updated_at
}

// FullName joins first and last name the way it is shown to providers.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA‑256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
