// file: model/request.go

package model

// SignupRequest defines the payload for creating a new user.
// It includes validation tags to ensure data integrity at the entry point.
type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest defines the payload for user authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// EmailRequest defines the payload for flows that start from an email address
// (resending the verification mail, requesting a password reset).
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest defines the payload for completing a password reset.
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8"`
}
