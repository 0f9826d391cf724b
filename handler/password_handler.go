// file: handler/password_handler.go

package handler

import (
	"encoding/json"
	"errors"
	"go-auth-api/common"
	"go-auth-api/model"
	"go-auth-api/service"
	"net/http"
)

// PasswordHandler serves the password reset endpoints.
type PasswordHandler struct {
	oneTimeService *service.OneTimeTokenService
}

func NewPasswordHandler(oneTimeService *service.OneTimeTokenService) *PasswordHandler {
	return &PasswordHandler{oneTimeService: oneTimeService}
}

// ForgotPassword godoc
// @Summary      Request a password reset email
// @Tags         password
// @Accept       json
// @Produce      json
// @Router       /api/v1/forgot-password [post]
func (h *PasswordHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.EmailRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	if err := h.oneTimeService.ForgotPassword(req.Email); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return common.NewAppError(http.StatusConflict, "User not found", nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Error sending password reset email", err)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(map[string]string{"message": "Password reset email sent"})
	return nil
}

// ResetPassword godoc
// @Summary      Redeem a password reset token
// @Description  Sets a new password and revokes every session of the user
// @Tags         password
// @Accept       json
// @Produce      json
// @Router       /api/v1/reset-password/{token} [post]
func (h *PasswordHandler) ResetPassword(w http.ResponseWriter, r *http.Request) *common.AppError {
	token := r.PathValue("token")
	if token == "" {
		return common.NewAppError(http.StatusNotFound, "Invalid or expired token", nil)
	}

	var req model.ResetPasswordRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	if err := h.oneTimeService.ResetPassword(token, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrOneTimeTokenNotFound) || errors.Is(err, service.ErrOneTimeTokenExpired) {
			return common.NewAppError(http.StatusNotFound, "Invalid or expired token", nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Error resetting password", err)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(map[string]string{"message": "Password reset successful"})
	return nil
}
