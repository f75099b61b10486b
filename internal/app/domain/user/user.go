// Package user defines the account entity and the request-scoped identity
// view derived from it.
package user

import (
	"strings"
	"time"
)

// Roles understood by the scaffold. Role checks are plain string equality.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered account.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	Role         string    `json:"role" db:"role"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Active       bool      `json:"active" db:"active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Identity is the authenticated view of a user attached to a request-scoped
// container. It carries no credentials.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Identity derives the identity view of a user.
func (u User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// EmailDomain returns the part of the email after '@', or "" when absent.
func (i Identity) EmailDomain() string {
	if idx := strings.LastIndex(i.Email, "@"); idx >= 0 {
		return i.Email[idx+1:]
	}
	return ""
}
