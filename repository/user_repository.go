package repository

import (
	"database/sql"
	"go-auth-api/model"
	"time"
)

// IUserRepository defines the contract for user database operations.
type IUserRepository interface {
	CreateUser(user *model.User) error
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(id int) (*model.User, error)
	UpdatePassword(userID int, passwordHash string) error
	MarkEmailVerified(userID int, when time.Time) error
}

// UserRepository implements IUserRepository on top of Postgres.
type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) CreateUser(user *model.User) error {
	query := `INSERT INTO users (username, email, password) VALUES ($1, $2, $3) RETURNING id, created_at`
	return r.DB.QueryRow(query, user.Username, user.Email, user.Password).Scan(&user.ID, &user.CreatedAt)
}

func (r *UserRepository) GetUserByEmail(email string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT id, username, email, password, email_verified, created_at FROM users WHERE email=$1`
	err := r.DB.QueryRow(query, email).Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.EmailVerified, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(id int) (*model.User, error) {
	user := &model.User{}
	query := `SELECT id, username, email, password, email_verified, created_at FROM users WHERE id=$1`
	err := r.DB.QueryRow(query, id).Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.EmailVerified, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdatePassword replaces the stored password hash for a user.
func (r *UserRepository) UpdatePassword(userID int, passwordHash string) error {
	query := `UPDATE users SET password = $1 WHERE id = $2`
	_, err := r.DB.Exec(query, passwordHash, userID)
	return err
}

// MarkEmailVerified records the moment the user completed email verification.
func (r *UserRepository) MarkEmailVerified(userID int, when time.Time) error {
	query := `UPDATE users SET email_verified = $1 WHERE id = $2`
	_, err := r.DB.Exec(query, when, userID)
	return err
}
