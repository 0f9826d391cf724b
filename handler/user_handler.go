package handler

import (
	"encoding/json"
	"errors"
	"go-auth-api/common"
	"go-auth-api/model"
	"go-auth-api/service"
	"net/http"
)

type UserHandler struct {
	userService    *service.UserService
	oneTimeService *service.OneTimeTokenService
}

func NewUserHandler(userService *service.UserService, oneTimeService *service.OneTimeTokenService) *UserHandler {
	return &UserHandler{userService: userService, oneTimeService: oneTimeService}
}

// Signup godoc
// @Summary      Create a new user account
// @Description  Registers a user and sends the email verification link
// @Tags         user
// @Accept       json
// @Produce      json
// @Router       /api/v1/signup [post]
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.SignupRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	user, err := h.userService.Register(req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return common.NewAppError(http.StatusConflict, "Email is already registered", nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Error creating user", err)
	}

	if err := h.oneTimeService.IssueVerificationForNewUser(user); err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Error creating verification token", err)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"message": "New user created"})
	return nil
}

// Me godoc
// @Summary      Get the authenticated user's profile
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Router       /api/me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Not authenticated", nil)
	}

	user, err := h.userService.GetProfile(userID)
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Error loading profile", err)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(user)
	return nil
}
