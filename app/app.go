// File: app/app.go
package app

import (
	"context"
	"go-auth-api/config"
	"go-auth-api/db"
	"go-auth-api/handler"
	"go-auth-api/logger"
	"go-auth-api/repository"
	"go-auth-api/router"
	"go-auth-api/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func Run() {
	config.LoadConfig(".")
	logger.Init()
	logger.Log.Info("Logger initialized")
	logger.Log.Info("Configuration loaded successfully")

	database, err := db.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations("file://db/migrations"); err != nil {
		logger.Log.Fatalf("Error running migrations: %v", err)
	}

	redisClient, err := db.ConnectRedis()
	if err != nil {
		logger.Log.Fatalf("Error connecting to Redis: %v", err)
	}
	defer redisClient.Close()

	// --- Wiring All Layers Together ---

	userRepo := repository.NewUserRepository(database)
	tokenRepo := repository.NewTokenRepository(database)
	oneTimeRepo := repository.NewOneTimeTokenRepository(database)

	mailer := service.NewMailer()

	authService := service.NewAuthService(userRepo, tokenRepo)
	userService := service.NewUserService(userRepo, redisClient)
	oneTimeService := service.NewOneTimeTokenService(oneTimeRepo, userRepo, tokenRepo, mailer, redisClient)

	userHandler := handler.NewUserHandler(userService, oneTimeService)
	authHandler := handler.NewAuthHandler(authService)
	verifyHandler := handler.NewVerifyHandler(oneTimeService)
	passwordHandler := handler.NewPasswordHandler(oneTimeService)

	r := router.NewRouter(authService, userHandler, authHandler, verifyHandler, passwordHandler)

	// --- Start the Server with Graceful Shutdown ---
	port := config.AppConfig.Server.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}
