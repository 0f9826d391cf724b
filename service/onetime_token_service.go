// file: service/onetime_token_service.go

package service

import (
	"context"
	"database/sql"
	"errors"
	"go-auth-api/config"
	"go-auth-api/logger"
	"go-auth-api/model"
	"go-auth-api/repository"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrAlreadyIssued is returned when an unexpired token of the same purpose
	// already exists for the user.
	ErrAlreadyIssued = errors.New("an active token of this purpose already exists")
	// ErrOneTimeTokenNotFound is returned when a token is absent or its purpose
	// does not match.
	ErrOneTimeTokenNotFound = errors.New("one-time token not found")
	// ErrOneTimeTokenExpired is returned when a token exists but its expiry has passed.
	ErrOneTimeTokenExpired = errors.New("one-time token expired")
	// ErrUserNotFound is returned when a flow references an unknown email address.
	ErrUserNotFound = errors.New("user not found")
	// ErrAlreadyVerified is returned when a verification mail is requested for a
	// verified address.
	ErrAlreadyVerified = errors.New("email already verified")
)

// OneTimeTokenService implements the single-use token protocol for email
// verification and password reset.
type OneTimeTokenService struct {
	otRepo    repository.IOneTimeTokenRepository
	userRepo  repository.IUserRepository
	tokenRepo repository.ITokenRepository
	mailer    IMailer
	cache     ICacheClient
}

// NewOneTimeTokenService creates a new OneTimeTokenService.
func NewOneTimeTokenService(
	otRepo repository.IOneTimeTokenRepository,
	userRepo repository.IUserRepository,
	tokenRepo repository.ITokenRepository,
	mailer IMailer,
	cache ICacheClient,
) *OneTimeTokenService {
	return &OneTimeTokenService{
		otRepo:    otRepo,
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		mailer:    mailer,
		cache:     cache,
	}
}

func oneTimeTokenTTL() time.Duration {
	return time.Duration(config.AppConfig.OneTimeToken.ExpireMinutes) * time.Minute
}

// Issue creates a single-use token for the user. At most one unexpired token
// of a given purpose may exist per user; a second request fails with
// ErrAlreadyIssued instead of creating a duplicate.
func (s *OneTimeTokenService) Issue(userID int, purpose model.TokenPurpose) (string, error) {
	live, err := s.otRepo.GetUnexpiredByUser(userID, purpose)
	if err != nil {
		return "", err
	}
	if len(live) > 0 {
		return "", ErrAlreadyIssued
	}

	token := &model.OneTimeToken{
		Token:     uuid.NewString(),
		UserID:    userID,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(oneTimeTokenTTL()),
	}
	if err := s.otRepo.Create(token); err != nil {
		return "", err
	}
	return token.Token, nil
}

// Redeem looks up a token by value and checks purpose and expiry. It does not
// delete the token; the calling flow deletes the whole purpose group so that
// sibling tokens die together.
func (s *OneTimeTokenService) Redeem(value string, purpose model.TokenPurpose) (*model.OneTimeToken, error) {
	token, err := s.otRepo.GetByToken(value)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOneTimeTokenNotFound
		}
		return nil, err
	}
	if token.Purpose != purpose {
		return nil, ErrOneTimeTokenNotFound
	}
	if !token.ExpiresAt.After(time.Now()) {
		return nil, ErrOneTimeTokenExpired
	}
	return token, nil
}

// SendVerificationEmail issues a verification token for the address and mails
// the link. Fails if the address is unknown, already verified, or already has
// an active verification token.
func (s *OneTimeTokenService) SendVerificationEmail(email string) error {
	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrUserNotFound
		}
		return err
	}
	if user.IsVerified() {
		return ErrAlreadyVerified
	}

	token, err := s.Issue(user.ID, model.PurposeEmailVerification)
	if err != nil {
		return err
	}

	s.mailer.SendVerifyEmail(user.Email, token)
	return nil
}

// IssueVerificationForNewUser issues and mails a verification token as part of
// signup. The user row was just created, so the single-active-token check
// cannot fail for protocol reasons.
func (s *OneTimeTokenService) IssueVerificationForNewUser(user *model.User) error {
	token, err := s.Issue(user.ID, model.PurposeEmailVerification)
	if err != nil {
		return err
	}
	s.mailer.SendVerifyEmail(user.Email, token)
	return nil
}

// VerifyEmail redeems a verification token: the user is marked verified and
// every verification token the user owns is deleted in the same step.
func (s *OneTimeTokenService) VerifyEmail(value string) error {
	token, err := s.Redeem(value, model.PurposeEmailVerification)
	if err != nil {
		return err
	}

	if err := s.userRepo.MarkEmailVerified(token.UserID, time.Now()); err != nil {
		return err
	}
	if err := s.otRepo.DeleteByUserID(token.UserID, model.PurposeEmailVerification); err != nil {
		return err
	}

	s.cache.Del(context.Background(), userCacheKey(token.UserID))
	logger.Log.WithField("user_id", token.UserID).Info("Email verified")
	return nil
}

// ForgotPassword issues a reset token for the address and mails the link.
// If an unexpired reset token is already pending, no new token is created and
// no mail is sent, but the call still succeeds so that an outsider cannot
// probe whether a reset is in flight.
func (s *OneTimeTokenService) ForgotPassword(email string) error {
	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrUserNotFound
		}
		return err
	}

	token, err := s.Issue(user.ID, model.PurposePasswordReset)
	if err != nil {
		if errors.Is(err, ErrAlreadyIssued) {
			logger.Log.WithField("user_id", user.ID).Info("Password reset already pending, not re-sending")
			return nil
		}
		return err
	}

	s.mailer.SendResetEmail(user.Email, token)
	return nil
}

// ResetPassword redeems a reset token and replaces the user's password.
// Every reset token and every refresh token the user owns is deleted: a
// password reset invalidates all existing sessions.
func (s *OneTimeTokenService) ResetPassword(value, newPassword string) error {
	token, err := s.Redeem(value, model.PurposePasswordReset)
	if err != nil {
		return err
	}

	hashedPassword, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(token.UserID, hashedPassword); err != nil {
		return err
	}

	if err := s.otRepo.DeleteByUserID(token.UserID, model.PurposePasswordReset); err != nil {
		return err
	}
	if err := s.tokenRepo.DeleteByUserID(token.UserID); err != nil {
		return err
	}

	s.cache.Del(context.Background(), userCacheKey(token.UserID))
	logger.Log.WithField("user_id", token.UserID).Info("Password reset completed, all sessions revoked")
	return nil
}
