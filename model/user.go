package model

import "time"

// User is the identity anchor for every credential in the system.
// EmailVerified is nil until the user redeems a verification token.
type User struct {
	ID            int        `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	Password      string     `json:"-"` // bcrypt hash, never serialized
	EmailVerified *time.Time `json:"email_verified,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// IsVerified reports whether the user has completed email verification.
func (u *User) IsVerified() bool {
	return u.EmailVerified != nil
}
