// Package repository provides persistence implementations for the
// authentication and resource services using a PostgreSQL database.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gestibat/gestibat/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// PostgresAuthRepository implements user and refresh-token persistence
// against a PostgreSQL database.
type PostgresAuthRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAuthRepository creates a new PostgresAuthRepository with the
// given database connection.
func NewPostgresAuthRepository(db *sql.DB) *PostgresAuthRepository {
	return &PostgresAuthRepository{DB: db}
}

// GetUser fetches a user by login. Returns ErrNotFound when the login is
// unknown.
func (r *PostgresAuthRepository) GetUser(ctx context.Context, login string) (*models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT login, password_hash FROM users WHERE login = $1`,
		login,
	).Scan(&u.Login, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetUser: %w", err)
	}
	return &u, nil
}

// CreateUser inserts a new user. Duplicate logins are left untouched.
func (r *PostgresAuthRepository) CreateUser(ctx context.Context, login string, passwordHash []byte) error {
	_, err := r.DB.ExecContext(
		ctx,
		`INSERT INTO users (login, password_hash) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		login, string(passwordHash),
	)
	if err != nil {
		return fmt.Errorf("CreateUser: %w", err)
	}
	return nil
}

// SaveRefreshToken stores an opaque refresh token for the user.
func (r *PostgresAuthRepository) SaveRefreshToken(ctx context.Context, id, login string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(
		ctx,
		`INSERT INTO refresh_tokens (id, user_login, expires_at) VALUES ($1, $2, $3)`,
		id, login, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("SaveRefreshToken: %w", err)
	}
	return nil
}

// ConsumeRefreshToken deletes the token and returns its owner. An unknown
// or expired token yields ErrNotFound, so a token can be used only once.
func (r *PostgresAuthRepository) ConsumeRefreshToken(ctx context.Context, id string) (string, error) {
	var login string
	err := r.DB.QueryRowContext(
		ctx,
		`DELETE FROM refresh_tokens WHERE id = $1 AND expires_at > now() RETURNING user_login`,
		id,
	).Scan(&login)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("ConsumeRefreshToken: %w", err)
	}
	return login, nil
}

// DeleteUserRefreshTokens revokes every refresh token held by the user.
func (r *PostgresAuthRepository) DeleteUserRefreshTokens(ctx context.Context, login string) error {
	_, err := r.DB.ExecContext(
		ctx,
		`DELETE FROM refresh_tokens WHERE user_login = $1`,
		login,
	)
	if err != nil {
		return fmt.Errorf("DeleteUserRefreshTokens: %w", err)
	}
	return nil
}
