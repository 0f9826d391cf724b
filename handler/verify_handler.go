// file: handler/verify_handler.go

package handler

import (
	"encoding/json"
	"errors"
	"go-auth-api/common"
	"go-auth-api/model"
	"go-auth-api/service"
	"net/http"
)

// VerifyHandler serves the email verification endpoints.
type VerifyHandler struct {
	oneTimeService *service.OneTimeTokenService
}

func NewVerifyHandler(oneTimeService *service.OneTimeTokenService) *VerifyHandler {
	return &VerifyHandler{oneTimeService: oneTimeService}
}

// SendVerificationEmail godoc
// @Summary      Re-send the verification email
// @Tags         verify
// @Accept       json
// @Produce      json
// @Router       /api/v1/send-verification-email [post]
func (h *VerifyHandler) SendVerificationEmail(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.EmailRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	if err := h.oneTimeService.SendVerificationEmail(req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			return common.NewAppError(http.StatusUnauthorized, "Email not found", nil)
		case errors.Is(err, service.ErrAlreadyVerified):
			return common.NewAppError(http.StatusConflict, "Email already verified", nil)
		case errors.Is(err, service.ErrAlreadyIssued):
			return common.NewAppError(http.StatusBadRequest, "Verification email already sent", nil)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Error sending verification email", err)
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(map[string]string{"message": "Verification email sent"})
	return nil
}

// VerifyEmail godoc
// @Summary      Redeem an email verification token
// @Tags         verify
// @Produce      json
// @Router       /api/v1/verify-email/{token} [post]
func (h *VerifyHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) *common.AppError {
	token := r.PathValue("token")
	if token == "" {
		return common.NewAppError(http.StatusNotFound, "Invalid or expired token", nil)
	}

	if err := h.oneTimeService.VerifyEmail(token); err != nil {
		// The response never reveals whether the token was unknown or expired.
		if errors.Is(err, service.ErrOneTimeTokenNotFound) || errors.Is(err, service.ErrOneTimeTokenExpired) {
			return common.NewAppError(http.StatusNotFound, "Invalid or expired token", nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Error verifying email", err)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(map[string]string{"message": "Email verification successful"})
	return nil
}
