// Package model defines domain entities for the application.
package model

import "time"

// AnonymousUsername is the reserved name of the default card author.
// Exactly one user row carries it, seeded at bootstrap.
const AnonymousUsername = "Anonymous"

// User represents a card author.
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	HashedPassword string    `json:"-"` // Never serialize
	Salt           []byte    `json:"-"` // Never serialize
	Anonymous      bool      `json:"anonymous"`
	CreatedAt      time.Time `json:"created_at"`
}

// HasCredentials reports whether the user can authenticate.
// The anonymous user is seeded without a password and can never log in.
func (u *User) HasCredentials() bool {
	return u.HashedPassword != "" && len(u.Salt) > 0
}

// PublicUser is the projection returned by user listing endpoints.
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ToPublic converts a User to its public projection.
func (u *User) ToPublic() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
	}
}
