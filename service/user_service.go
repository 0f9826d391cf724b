// file: service/user_service.go

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"go-auth-api/logger"
	"go-auth-api/model"
	"go-auth-api/repository"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrEmailTaken is returned when signing up with an email that already has an account.
var ErrEmailTaken = errors.New("email is already registered")

const profileCacheTTL = 5 * time.Minute

func userCacheKey(userID int) string {
	return fmt.Sprintf("user:%d", userID)
}

// UserService handles account creation and profile reads.
type UserService struct {
	userRepo repository.IUserRepository
	cache    ICacheClient
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.IUserRepository, cache ICacheClient) *UserService {
	return &UserService{userRepo: userRepo, cache: cache}
}

// Register creates a new user with a hashed password.
// The email must not already be registered.
func (s *UserService) Register(username, email, password string) (*model.User, error) {
	existing, err := s.userRepo.GetUserByEmail(email)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: username,
		Email:    email,
		Password: hashedPassword,
	}
	if err := s.userRepo.CreateUser(user); err != nil {
		return nil, err
	}

	logger.Log.WithField("user_id", user.ID).Info("New user registered")
	return user, nil
}

// GetProfile returns a user's profile, utilizing a cache-aside strategy.
// The cached entry is invalidated whenever the user row changes (email
// verification, password reset).
func (s *UserService) GetProfile(userID int) (*model.User, error) {
	ctx := context.Background()
	cacheKey := userCacheKey(userID)

	cached, err := s.cache.Get(ctx, cacheKey).Result()
	if err == nil {
		user := &model.User{}
		if err := json.Unmarshal([]byte(cached), user); err == nil {
			return user, nil
		}
		// A corrupt cache entry falls through to the database.
	} else if err != redis.Nil {
		logger.Log.WithError(err).Warn("Profile cache read failed, falling back to database")
	}

	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(user); err == nil {
		if err := s.cache.Set(ctx, cacheKey, data, profileCacheTTL).Err(); err != nil {
			logger.Log.WithError(err).Warn("Failed to populate profile cache")
		}
	}

	return user, nil
}
