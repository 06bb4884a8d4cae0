package domain

import (
	"slices"
	"strings"
)

// Role represents the user's permission level in the system.
type Role string

const (
	// RoleUser is the default role: access to the user's own notes only.
	RoleUser Role = "user"
	// RoleAdmin may additionally list users and assign roles.
	RoleAdmin Role = "admin"
)

// Roles lists every assignable role.
var Roles = []Role{RoleUser, RoleAdmin}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return slices.Contains(Roles, r)
}

// ParseRole converts a string to a Role, returning false for unknown values.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.TrimSpace(s))
	return r, r.Valid()
}

// ProviderGoogle is the provider tag for users created through Google sign-in.
const ProviderGoogle = "google"

// User represents an account created through OAuth sign-in.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Picture   string `json:"picture,omitempty"`
	Provider  string `json:"provider"`
	Role      Role   `json:"role"`
	// Version counts updates applied by the store.
	Version int `json:"version"`
	Timestamps
}

// IsAdmin returns true if the user has administrative privileges.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasRole reports whether the user's role is in roles.
// An empty set matches every user.
func (u *User) HasRole(roles ...Role) bool {
	if len(roles) == 0 {
		return true
	}
	return slices.Contains(roles, u.Role)
}

// Profile is the identity information returned by an OAuth provider.
type Profile struct {
	Email     string
	FirstName string
	LastName  string
	Picture   string
	Provider  string
}

// NormalizeEmail returns the canonical form used for email uniqueness.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
