// Package service provides the business logic behind the auth and
// resource endpoints, delegating persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/gestibat/gestibat/internal/models"
	"github.com/gestibat/gestibat/internal/repository"
	"github.com/gestibat/gestibat/internal/token"
)

// DefaultRefreshTTL is how long a refresh token stays usable.
const DefaultRefreshTTL = 14 * 24 * time.Hour

// ErrInvalidCredentials is returned when the login or password is wrong,
// or when a refresh token is unknown or expired.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthRepository defines the persistence operations required by the
// authentication service.
type AuthRepository interface {
	// GetUser fetches a user by login; repository.ErrNotFound when unknown.
	GetUser(ctx context.Context, login string) (*models.User, error)
	// CreateUser creates a new user record.
	CreateUser(ctx context.Context, login string, passwordHash []byte) error
	// SaveRefreshToken stores an opaque refresh token for the user.
	SaveRefreshToken(ctx context.Context, id, login string, expiresAt time.Time) error
	// ConsumeRefreshToken removes the token and returns its owner;
	// repository.ErrNotFound when unknown or expired.
	ConsumeRefreshToken(ctx context.Context, id string) (string, error)
	// DeleteUserRefreshTokens revokes all refresh tokens of the user.
	DeleteUserRefreshTokens(ctx context.Context, login string) error
}

// AuthService implements login, token refresh, and logout.
type AuthService struct {
	repo       AuthRepository
	tokens     *token.Manager
	refreshTTL time.Duration
	now        func() time.Time
}

// NewAuthService constructs an AuthService. ttl <= 0 falls back to
// DefaultRefreshTTL.
func NewAuthService(repo AuthRepository, tokens *token.Manager, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = DefaultRefreshTTL
	}
	return &AuthService{repo: repo, tokens: tokens, refreshTTL: ttl, now: time.Now}
}

// Register creates a user with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, login, password string) error {
	if login == "" || password == "" {
		return errors.New("login and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.CreateUser(ctx, login, hash)
}

// Login verifies the credentials, issues a short-lived access token and a
// fresh refresh token.
func (s *AuthService) Login(ctx context.Context, login, password string) (access, refreshID string, err error) {
	user, err := s.repo.GetUser(ctx, login)
	if errors.Is(err, repository.ErrNotFound) {
		return "", "", ErrInvalidCredentials
	}
	if err != nil {
		return "", "", err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return "", "", ErrInvalidCredentials
	}
	return s.issue(ctx, login)
}

// Refresh exchanges a refresh token for a new access token, rotating the
// refresh token. A consumed, unknown, or expired token fails with
// ErrInvalidCredentials.
func (s *AuthService) Refresh(ctx context.Context, refreshID string) (access, newRefreshID string, err error) {
	login, err := s.repo.ConsumeRefreshToken(ctx, refreshID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", "", ErrInvalidCredentials
	}
	if err != nil {
		return "", "", err
	}
	return s.issue(ctx, login)
}

// Logout consumes the refresh token and revokes every other token the
// user still holds. Unknown tokens are a no-op.
func (s *AuthService) Logout(ctx context.Context, refreshID string) error {
	login, err := s.repo.ConsumeRefreshToken(ctx, refreshID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.repo.DeleteUserRefreshTokens(ctx, login)
}

func (s *AuthService) issue(ctx context.Context, login string) (string, string, error) {
	access, err := s.tokens.Issue(login)
	if err != nil {
		return "", "", err
	}
	refreshID := uuid.NewString()
	expires := s.now().Add(s.refreshTTL)
	if err := s.repo.SaveRefreshToken(ctx, refreshID, login, expires); err != nil {
		return "", "", err
	}
	return access, refreshID, nil
}
