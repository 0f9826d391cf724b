// file: handler/auth_handler.go

package handler

import (
	"encoding/json"
	"errors"
	"go-auth-api/common"
	"go-auth-api/model"
	"go-auth-api/service"
	"net/http"
)

// AuthHandler serves the session lifecycle endpoints: login, logout, refresh.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login godoc
// @Summary      Authenticate a user
// @Description  Verifies email and password, sets the refresh token cookie and returns an access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Router       /api/v1/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LoginRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	// A refresh token the client still carries is consumed before minting the
	// new pair.
	presented := refreshTokenFromRequest(r)
	if presented != "" {
		clearRefreshCookie(w)
	}

	pair, err := h.authService.Login(req.Email, req.Password, presented)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			return common.NewAppError(http.StatusUnauthorized, "Invalid email or password", nil)
		case errors.Is(err, service.ErrEmailNotVerified):
			return common.NewAppError(http.StatusUnauthorized, "Your email is not verified! Please confirm your email!", nil)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Login failed", err)
		}
	}

	setRefreshCookie(w, pair.RefreshToken)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(service.TokenPair{AccessToken: pair.AccessToken})
	return nil
}

// Logout godoc
// @Summary      End the current session
// @Description  Deletes the presented refresh token and clears its cookie; idempotent
// @Tags         auth
// @Router       /api/v1/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	presented := refreshTokenFromRequest(r)
	if presented == "" {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}

	clearRefreshCookie(w)

	if err := h.authService.Logout(presented); err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Logout failed", err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// Refresh godoc
// @Summary      Rotate the refresh token
// @Description  Exchanges a live refresh token for a new access/refresh pair; reuse of a consumed token revokes all of the owner's sessions
// @Tags         auth
// @Produce      json
// @Router       /api/v1/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) *common.AppError {
	presented := refreshTokenFromRequest(r)

	// The presented cookie is cleared up front; it is either consumed or
	// rejected, never valid afterwards.
	clearRefreshCookie(w)

	pair, err := h.authService.Refresh(presented)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthenticated):
			return common.NewAppError(http.StatusUnauthorized, "No refresh token provided", nil)
		case errors.Is(err, service.ErrForbidden):
			return common.NewAppError(http.StatusForbidden, "Invalid refresh token", nil)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Token refresh failed", err)
		}
	}

	setRefreshCookie(w, pair.RefreshToken)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(service.TokenPair{AccessToken: pair.AccessToken})
	return nil
}
