// Package model defines domain entities for the application.
package model

import (
	"slices"
	"time"
)

// Role is the coarse permission level carried by every user.
type Role string

// Role constants.
const (
	RoleUser      Role = "user"
	RoleDeveloper Role = "developer"
	RoleAdmin     Role = "admin"
)

// ValidRoles contains all valid role values.
var ValidRoles = []Role{RoleUser, RoleDeveloper, RoleAdmin}

// IsValid checks if the role is one of the known roles.
func (r Role) IsValid() bool {
	return slices.Contains(ValidRoles, r)
}

// User represents an account in the catalog.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // Argon2id hash, never serialized
	Role      Role      `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary returns the display reference used when another entity points at this user.
func (u *User) Summary() *UserRef {
	return &UserRef{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}

// Actor builds the authenticated identity for this user.
func (u *User) Actor() *Actor {
	return &Actor{ID: u.ID, Role: u.Role}
}

// UserRef is the resolved {name, email} view of a user reference.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Actor is the authenticated identity performing a request.
// It is passed explicitly into every service operation.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// IsAdmin reports whether the actor holds the admin role.
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}
