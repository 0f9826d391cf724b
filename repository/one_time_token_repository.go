// file: repository/one_time_token_repository.go

package repository

import (
	"database/sql"
	"go-auth-api/logger"
	"go-auth-api/model"

	"github.com/sirupsen/logrus"
)

// IOneTimeTokenRepository defines the contract for one-time token
// (email verification, password reset) database operations.
type IOneTimeTokenRepository interface {
	Create(token *model.OneTimeToken) error
	GetByToken(token string) (*model.OneTimeToken, error)
	// GetUnexpiredByUser returns all tokens of the given purpose for a user
	// whose expiry is still in the future.
	GetUnexpiredByUser(userID int, purpose model.TokenPurpose) ([]*model.OneTimeToken, error)
	DeleteByUserID(userID int, purpose model.TokenPurpose) error
}

// OneTimeTokenRepository implements IOneTimeTokenRepository.
type OneTimeTokenRepository struct {
	DB *sql.DB
}

// NewOneTimeTokenRepository creates a new OneTimeTokenRepository.
func NewOneTimeTokenRepository(db *sql.DB) *OneTimeTokenRepository {
	return &OneTimeTokenRepository{DB: db}
}

// Create inserts a new one-time token record into the database.
func (r *OneTimeTokenRepository) Create(token *model.OneTimeToken) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":    token.UserID,
		"purpose":    token.Purpose,
		"expires_at": token.ExpiresAt,
	})

	query := `INSERT INTO one_time_tokens (token, user_id, purpose, expires_at) VALUES ($1, $2, $3, $4) RETURNING created_at`
	err := r.DB.QueryRow(query, token.Token, token.UserID, token.Purpose, token.ExpiresAt).Scan(&token.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create one-time token query")
		return err
	}
	return nil
}

// GetByToken retrieves a one-time token by its value, regardless of expiry.
// Returns sql.ErrNoRows if the token is not present.
func (r *OneTimeTokenRepository) GetByToken(token string) (*model.OneTimeToken, error) {
	row := &model.OneTimeToken{}
	query := `SELECT token, user_id, purpose, expires_at, created_at FROM one_time_tokens WHERE token = $1`
	err := r.DB.QueryRow(query, token).Scan(&row.Token, &row.UserID, &row.Purpose, &row.ExpiresAt, &row.CreatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithError(err).Error("Failed to execute get one-time token query")
		}
		return nil, err
	}
	return row, nil
}

// GetUnexpiredByUser returns the user's live tokens of a given purpose.
func (r *OneTimeTokenRepository) GetUnexpiredByUser(userID int, purpose model.TokenPurpose) ([]*model.OneTimeToken, error) {
	query := `SELECT token, user_id, purpose, expires_at, created_at FROM one_time_tokens WHERE user_id = $1 AND purpose = $2 AND expires_at > NOW()`
	rows, err := r.DB.Query(query, userID, purpose)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute get unexpired one-time tokens query")
		return nil, err
	}
	defer rows.Close()

	var tokens []*model.OneTimeToken
	for rows.Next() {
		t := &model.OneTimeToken{}
		if err := rows.Scan(&t.Token, &t.UserID, &t.Purpose, &t.ExpiresAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// DeleteByUserID deletes all tokens of a given purpose for a user.
// Used after a successful redemption so sibling tokens die with the redeemed one.
func (r *OneTimeTokenRepository) DeleteByUserID(userID int, purpose model.TokenPurpose) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id": userID,
		"purpose": purpose,
	})

	query := `DELETE FROM one_time_tokens WHERE user_id = $1 AND purpose = $2`
	_, err := r.DB.Exec(query, userID, purpose)
	if err != nil {
		log.WithError(err).Error("Failed to execute delete one-time tokens query")
		return err
	}
	return nil
}
