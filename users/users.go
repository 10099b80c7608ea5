package users

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("user not found")

// User is a resource owner known to the reference models. The authorization
// pipeline treats it as opaque.
type User struct {
	ID         string    `json:"id,omitempty"`          // Unique identifier for the user
	Email      string    `json:"email,omitempty"`       // User's email address
	DateJoined time.Time `json:"date_joined,omitempty"` // Date and time when the user registered

	Verified bool `json:"verified,omitempty"` // Verified, has the user verified who they are
	Blocked  bool `json:"blocked,omitempty"`  // Blocked, has the user been blocked from logging in
}

// Active reports whether the user may be issued authorization codes.
func (u *User) Active() bool {
	return u != nil && u.Verified && !u.Blocked
}
