package model

import (
	"time"

	"github.com/iliyamo/token-manager/internal/rbac"
)

// User represents an application user record as stored in the `users`
// table. PasswordHash and RefreshTokenHash never leave the server.
//
// Fields:
//
//	ID               – primary key identifier.
//	Email            – unique email address.
//	Name             – display name.
//	PasswordHash     – bcrypt hashed password.
//	Role             – VIEWER, MAINTAINER or ADMIN.
//	RefreshTokenHash – SHA-256 of the single active refresh token (nil when logged out).
//	CreatedAt        – timestamp of creation.
//	UpdatedAt        – timestamp of last update.
type User struct {
	ID               uint64    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	PasswordHash     string    `json:"-"`
	Role             rbac.Role `json:"role"`
	RefreshTokenHash *string   `json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Identity is the authenticated caller attached to a request.
type Identity struct {
	ID    uint64    `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  rbac.Role `json:"role"`
}

// Identity projects u onto the fields exposed to downstream handlers.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}
