package domain

import (
	"errors"
	"time"
)

// Role is the privilege level carried in identity tokens.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// ErrEmailTaken is returned when registering an email that already exists.
var ErrEmailTaken = errors.New("email already registered")

// User is an account owning a garden.
type User struct {
	ID                string
	Username          string
	Email             string
	PasswordHash      string
	Role              Role
	ProfilePictureURL string
	CreatedAt         time.Time
}
