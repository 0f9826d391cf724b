// file: repository/token_repository.go

package repository

import (
	"database/sql"
	"go-auth-api/logger"
	"go-auth-api/model"
)

// ITokenRepository defines the contract for refresh token database operations.
type ITokenRepository interface {
	Create(token *model.RefreshToken) error
	GetByToken(token string) (*model.RefreshToken, error)
	// DeleteByToken removes a single token row and reports whether a row was
	// actually deleted. The rotation protocol relies on this: of two
	// concurrent calls presenting the same token, exactly one sees true.
	DeleteByToken(token string) (bool, error)
	DeleteByUserID(userID int) error
}

// TokenRepository implements ITokenRepository.
type TokenRepository struct {
	DB *sql.DB
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{DB: db}
}

// Create inserts a new refresh token record into the database.
func (r *TokenRepository) Create(token *model.RefreshToken) error {
	log := logger.Log.WithField("user_id", token.UserID)

	query := `INSERT INTO refresh_tokens (token, user_id) VALUES ($1, $2) RETURNING created_at`
	err := r.DB.QueryRow(query, token.Token, token.UserID).Scan(&token.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create refresh token query")
		return err
	}
	return nil
}

// GetByToken retrieves a refresh token row by its value.
// Returns sql.ErrNoRows if the token is not present.
func (r *TokenRepository) GetByToken(token string) (*model.RefreshToken, error) {
	row := &model.RefreshToken{}
	query := `SELECT token, user_id, created_at FROM refresh_tokens WHERE token = $1`
	err := r.DB.QueryRow(query, token).Scan(&row.Token, &row.UserID, &row.CreatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithError(err).Error("Failed to execute get refresh token query")
		}
		return nil, err
	}
	return row, nil
}

// DeleteByToken deletes a single refresh token row by value.
func (r *TokenRepository) DeleteByToken(token string) (bool, error) {
	query := `DELETE FROM refresh_tokens WHERE token = $1`
	res, err := r.DB.Exec(query, token)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute delete refresh token query")
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteByUserID deletes all refresh tokens for a specific user.
// This is used for revoking every session at once.
func (r *TokenRepository) DeleteByUserID(userID int) error {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to delete all refresh tokens for a user")

	query := `DELETE FROM refresh_tokens WHERE user_id = $1`
	_, err := r.DB.Exec(query, userID)
	if err != nil {
		log.WithError(err).Error("Failed to execute delete refresh tokens query")
		return err
	}
	return nil
}
