// file: model/token.go

package model

import "time"

// RefreshToken holds a live refresh token row. A row exists exactly while the
// token is the valid head of its session lineage; rotation deletes it and
// inserts a replacement.
type RefreshToken struct {
	Token     string    `json:"-"` // the token value is never exposed in JSON responses
	UserID    int       `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenPurpose distinguishes the two kinds of one-time tokens.
type TokenPurpose string

const (
	PurposeEmailVerification TokenPurpose = "email_verification"
	PurposePasswordReset     TokenPurpose = "password_reset"
)

// OneTimeToken is a single-use, expiring token for email verification or
// password reset. Expired rows are rejected on redemption; cleanup is lazy.
type OneTimeToken struct {
	Token     string       `json:"-"`
	UserID    int          `json:"user_id"`
	Purpose   TokenPurpose `json:"purpose"`
	ExpiresAt time.Time    `json:"expires_at"`
	CreatedAt time.Time    `json:"created_at"`
}
