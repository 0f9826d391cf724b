package handler

import (
	"context"
	"go-auth-api/common"
	"go-auth-api/service"
	"net/http"
	"strings"
)

type contextKey string

const UserIDKey contextKey = "userID"

// AuthMiddleware authenticates requests by their bearer access token and puts
// the subject's user id into the request context.
func AuthMiddleware(authService *service.AuthService, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			err := common.NewAppError(http.StatusUnauthorized, "Authorization header is required", nil)
			err.Send(w)
			return
		}

		headerParts := strings.Split(authHeader, " ")
		if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
			err := common.NewAppError(http.StatusUnauthorized, "Invalid authorization header format", nil)
			err.Send(w)
			return
		}

		claims, err := authService.VerifyAccessToken(headerParts[1])
		if err != nil {
			// A credential was presented but did not hold up.
			appErr := common.NewAppError(http.StatusForbidden, "Invalid or expired token", err)
			appErr.Send(w)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserIDFromContext extracts the authenticated user id set by AuthMiddleware.
func UserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(UserIDKey).(int)
	return userID, ok
}
