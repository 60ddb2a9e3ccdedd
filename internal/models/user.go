package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the public projection of an account; it never carries the password hash.
type User struct {
	ID        uuid.UUID `json:"-"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Bio       *string   `json:"bio"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Credentials is the stored secret for a user.
type Credentials struct {
	UserID       uuid.UUID `json:"-"`
	PasswordHash string    `json:"-"` // don't expose hash
}

// Account is a user together with its credentials, as returned by email lookup at login.
type Account struct {
	User        User
	Credentials Credentials
}

// LoggedInUser is the request-scoped identity built from a verified token.
type LoggedInUser struct {
	ID       uuid.UUID `json:"-"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Bio      *string   `json:"bio"`
	Image    *string   `json:"image"`
	Token    string    `json:"token"`
}

// NewLoggedInUser copies u and attaches the token the client presented.
func NewLoggedInUser(u User, token string) *LoggedInUser {
	return &LoggedInUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Bio:      u.Bio,
		Image:    u.Image,
		Token:    token,
	}
}

// UserUpdate holds the optional fields of a profile edit. Nil means unchanged.
type UserUpdate struct {
	Username *string
	Email    *string
	Password *string
	Bio      *string
	Image    *string
}
