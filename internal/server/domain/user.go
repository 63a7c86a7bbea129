package domain

import (
	"slices"
	"time"
)

// RoleAdmin grants access to the user administration endpoints.
const RoleAdmin = "admin"

type User struct {
	ID            string
	Username      string
	PreferredName string
	PasswordHash  string   // argon2id PHC string
	Roles         []string // stored space separated
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasRole reports whether the user holds role.
func (u User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}
