package router

import (
	"go-auth-api/handler"
	"go-auth-api/service"
	"net/http"
)

func NewRouter(
	authService *service.AuthService,
	userHandler *handler.UserHandler,
	authHandler *handler.AuthHandler,
	verifyHandler *handler.VerifyHandler,
	passwordHandler *handler.PasswordHandler,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)

	mux.Handle("POST /api/v1/signup", handler.ErrorHandlingMiddleware(userHandler.Signup))
	mux.Handle("POST /api/v1/login", handler.ErrorHandlingMiddleware(authHandler.Login))
	mux.Handle("POST /api/v1/logout", handler.ErrorHandlingMiddleware(authHandler.Logout))
	mux.Handle("POST /api/v1/refresh", handler.ErrorHandlingMiddleware(authHandler.Refresh))

	mux.Handle("POST /api/v1/send-verification-email", handler.ErrorHandlingMiddleware(verifyHandler.SendVerificationEmail))
	mux.Handle("POST /api/v1/verify-email/{token}", handler.ErrorHandlingMiddleware(verifyHandler.VerifyEmail))

	mux.Handle("POST /api/v1/forgot-password", handler.ErrorHandlingMiddleware(passwordHandler.ForgotPassword))
	mux.Handle("POST /api/v1/reset-password/{token}", handler.ErrorHandlingMiddleware(passwordHandler.ResetPassword))

	mux.Handle("GET /api/me", handler.AuthMiddleware(authService, handler.ErrorHandlingMiddleware(userHandler.Me)))

	return mux
}
