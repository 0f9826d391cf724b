// file: service/auth_service.go

package service

import (
	"database/sql"
	"errors"
	"fmt"
	"go-auth-api/config"
	"go-auth-api/logger"
	"go-auth-api/model"
	"go-auth-api/repository"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUnauthenticated is returned when no credential was presented at all.
	ErrUnauthenticated = errors.New("no credential presented")
	// ErrInvalidCredentials is returned for unknown emails and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailNotVerified is returned when a user tries to log in before
	// completing email verification.
	ErrEmailNotVerified = errors.New("email is not verified")
	// ErrForbidden is returned for invalid, expired, or reused refresh tokens.
	ErrForbidden = errors.New("refresh token rejected")
	// ErrTokenExpired is returned by token verification when the expiry has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned by token verification for bad signatures and
	// malformed payloads.
	ErrTokenInvalid = errors.New("token invalid")
)

// TokenPair is the credential pair handed to a client on login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// AuthService owns credential issuance and the refresh-token rotation protocol.
type AuthService struct {
	userRepo  repository.IUserRepository
	tokenRepo repository.ITokenRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.IUserRepository, tokenRepo repository.ITokenRepository) *AuthService {
	return &AuthService{userRepo: userRepo, tokenRepo: tokenRepo}
}

func getAccessKey() []byte {
	return []byte(config.AppConfig.JWT.Access.SecretKey)
}

func getRefreshKey() []byte {
	return []byte(config.AppConfig.JWT.Refresh.SecretKey)
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to hash password")
		return "", err
	}
	return string(bytes), nil
}

// CheckPasswordHash compares a plaintext password against a bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func signToken(userID int, key []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &model.AppClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			// Timestamps have second granularity; the token id keeps two
			// tokens minted for the same user in the same second distinct.
			ID: uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(key)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to sign JWT")
		return "", fmt.Errorf("failed to sign token string: %w", err)
	}
	return tokenString, nil
}

func verifyToken(tokenString string, key []byte) (*model.AppClaims, error) {
	claims := &model.AppClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// GenerateAccessToken mints a short-lived, self-contained bearer token.
func (s *AuthService) GenerateAccessToken(userID int) (string, error) {
	ttl := time.Duration(config.AppConfig.JWT.Access.ExpireMinutes) * time.Minute
	return signToken(userID, getAccessKey(), ttl)
}

// GenerateRefreshToken mints a long-lived refresh token. The token is a signed
// JWT so that a replayed value can be attributed to its subject after the
// stored row is gone, but the store lookup remains the authority on liveness.
func (s *AuthService) GenerateRefreshToken(userID int) (string, error) {
	ttl := time.Duration(config.AppConfig.JWT.Refresh.ExpireDays) * 24 * time.Hour
	return signToken(userID, getRefreshKey(), ttl)
}

// VerifyAccessToken checks signature and expiry of an access token.
func (s *AuthService) VerifyAccessToken(tokenString string) (*model.AppClaims, error) {
	return verifyToken(tokenString, getAccessKey())
}

// VerifyRefreshToken checks signature and expiry of a refresh token.
func (s *AuthService) VerifyRefreshToken(tokenString string) (*model.AppClaims, error) {
	return verifyToken(tokenString, getRefreshKey())
}

func (s *AuthService) issuePair(userID int) (*TokenPair, error) {
	accessToken, err := s.GenerateAccessToken(userID)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.GenerateRefreshToken(userID)
	if err != nil {
		return nil, err
	}

	if err := s.tokenRepo.Create(&model.RefreshToken{Token: refreshToken, UserID: userID}); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Login authenticates a user by email and password and issues a fresh token
// pair. presentedRefresh is the refresh token the client already carries, if
// any; it is consumed (or, on anomaly, the user's whole session set is wiped)
// before the new pair is minted.
func (s *AuthService) Login(email, password, presentedRefresh string) (*TokenPair, error) {
	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsVerified() {
		return nil, ErrEmailNotVerified
	}

	if !CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	if presentedRefresh != "" {
		if err := s.rotateOnLogin(presentedRefresh, user.ID); err != nil {
			return nil, err
		}
	}

	return s.issuePair(user.ID)
}

// rotateOnLogin cleans up the refresh token a client presents while logging
// in. A token owned by the authenticating user is simply consumed; a token
// that is unknown or belongs to a different user triggers a precautionary wipe
// of all the authenticating user's sessions. Login proceeds either way: the
// anomaly here is "token does not match this account", not a replay.
func (s *AuthService) rotateOnLogin(presented string, userID int) error {
	stored, err := s.tokenRepo.GetByToken(presented)
	if err != nil && err != sql.ErrNoRows {
		return err
	}

	if stored == nil || stored.UserID != userID {
		logger.Log.WithField("user_id", userID).Warn("Stale or foreign refresh token presented at login, revoking all sessions")
		return s.tokenRepo.DeleteByUserID(userID)
	}

	_, err = s.tokenRepo.DeleteByToken(presented)
	return err
}

// Refresh exchanges a live refresh token for a new access/refresh pair.
//
// The stored row is deleted before the replacement is minted; deletion is the
// linearization point, so of two concurrent calls with the same token exactly
// one succeeds and the other is routed into reuse handling. A client that
// disconnects after the delete simply loses the session; the old token stays
// consumed and the client must re-authenticate.
func (s *AuthService) Refresh(presented string) (*TokenPair, error) {
	if presented == "" {
		return nil, ErrUnauthenticated
	}

	stored, err := s.tokenRepo.GetByToken(presented)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, s.handleReuse(presented)
		}
		return nil, err
	}

	deleted, err := s.tokenRepo.DeleteByToken(presented)
	if err != nil {
		return nil, err
	}
	if !deleted {
		// A concurrent call consumed the row first. Indistinguishable from a
		// replay, so it gets the same treatment.
		return nil, s.handleReuse(presented)
	}

	claims, err := s.VerifyRefreshToken(presented)
	if err != nil {
		return nil, ErrForbidden
	}
	if claims.UserID != stored.UserID {
		// Store and signature disagree about the owner. Should not happen.
		logger.Log.WithField("user_id", stored.UserID).Error("Refresh token owner mismatch between store and signature")
		return nil, ErrForbidden
	}

	return s.issuePair(stored.UserID)
}

// handleReuse is the reuse-detection branch: the presented token is not (or no
// longer) in the store. If its signature still verifies, it was once issued
// and has been replayed after rotation or revocation, which is treated as
// theft evidence: every session of the claimed subject is revoked. A token
// that fails verification is garbage or expired and proves nothing, so no
// wipe is performed for it.
func (s *AuthService) handleReuse(presented string) error {
	claims, err := s.VerifyRefreshToken(presented)
	if err != nil {
		return ErrForbidden
	}

	logger.Log.WithField("user_id", claims.UserID).Warn("Refresh token reuse detected, revoking all sessions for user")
	if err := s.tokenRepo.DeleteByUserID(claims.UserID); err != nil {
		// Access is denied regardless; an incomplete wipe must be visible in
		// the logs so it can be retried out-of-band.
		logger.Log.WithError(err).WithField("user_id", claims.UserID).Error("Failed to revoke sessions after reuse detection")
	}
	return ErrForbidden
}

// Logout consumes the presented refresh token. It is idempotent: an absent
// token means the session is already gone, which is a success.
func (s *AuthService) Logout(presented string) error {
	if presented == "" {
		return nil
	}
	_, err := s.tokenRepo.DeleteByToken(presented)
	return err
}
