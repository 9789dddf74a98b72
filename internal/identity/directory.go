// Package identity integrates with the external identity directory that owns
// user accounts and role claims. The service trusts the directory as ground
// truth for admin gating; tokens only carry hints.
package identity

import (
	"context"
	"time"
)

// Role values recognized by the directory.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is a directory identity as seen by this service.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	ImageURL  string    `json:"imageUrl"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsAdmin reports whether the user holds the admin role claim.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// Name returns the user's display name.
func (u *User) Name() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// Directory is the port to the external identity provider. Implementations:
// Client (HTTP) for production, Fake for tests.
type Directory interface {
	// User resolves a directory identity by id. Returns ErrUserNotFound
	// if the id is unknown.
	User(ctx context.Context, id string) (*User, error)

	// UserByEmail resolves a directory identity by primary email address.
	UserByEmail(ctx context.Context, email string) (*User, error)

	// ListAdmins returns every identity holding the admin role.
	ListAdmins(ctx context.Context) ([]User, error)

	// SetRole replaces the user's role claim.
	SetRole(ctx context.Context, id, role string) error
}
