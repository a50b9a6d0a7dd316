package domain

import (
	"strings"
	"time"
)

// User models a registered account. PasswordHash never leaves the core;
// callers only ever see a PublicUser.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser is the candidate record handed to a UserRegistry on insert.
type NewUser struct {
	Email        string
	Name         string
	PasswordHash string
}

// PublicUser is the caller-facing projection of a User.
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Public strips the credential from u.
func (u *User) Public() *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{ID: u.ID, Email: u.Email, Name: u.Name}
}

// NormalizeEmail returns the canonical form used for storage, uniqueness and
// lookups. Emails are compared case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MaxPasswordBytes is bcrypt's input limit; longer passwords are rejected
// rather than silently truncated.
const MaxPasswordBytes = 72
