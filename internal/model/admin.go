package model

import "time"

// RoleAdmin is the role claim carried by every back-office session token.
// It is the only role the system issues today; the route guard still checks
// it explicitly rather than assuming it.
const RoleAdmin = "admin"

// Admin is the back-office administrator account. The store enforces that at
// most one Admin row ever exists (see the singleton constraint in the schema).
// Passwords are stored as bcrypt hashes.
type Admin struct {
	ID           int64      `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	PasswordHash string     `json:"-" db:"password_hash"` // bcrypt hash, never expose
	Email        string     `json:"email" db:"email"`
	Role         string     `json:"role" db:"role"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Public returns the subset of the account that is safe to send to clients.
func (a *Admin) Public() map[string]interface{} {
	m := map[string]interface{}{
		"id":       a.ID,
		"username": a.Username,
		"email":    a.Email,
		"role":     a.Role,
	}
	if a.LastLoginAt != nil {
		m["last_login_at"] = a.LastLoginAt
	}
	return m
}
