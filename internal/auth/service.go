package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/finderapp/lostfound-core/internal/infrastructure/logging"
)

// Service implements registration, login, and current-user resolution.
//
// Thread Safety: all methods are safe for concurrent use; the only shared
// state is the underlying database.
type Service struct {
	users    UserRepository
	secret   string
	tokenTTL time.Duration
	logger   *logging.Logger
}

// NewService creates an auth service backed by the given user repository.
// The secret signs access tokens; ttl is the token lifetime (24h if zero).
func NewService(users UserRepository, secret string, ttl time.Duration, logger *logging.Logger) *Service {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &Service{
		users:    users,
		secret:   secret,
		tokenTTL: ttl,
		logger:   logger,
	}
}

// Register creates a new account. Username and email are trimmed; email is
// optional. Returns ErrMissingCredentials when username or password is empty
// after trimming, ErrUsernameExists or ErrEmailExists on uniqueness conflicts.
// The raw password is never stored.
func (s *Service) Register(ctx context.Context, username, email, password string) (*User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameExists
	}
	if email != "" {
		if _, err := s.users.GetByEmail(ctx, email); err == nil {
			return nil, ErrEmailExists
		}
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}

	// The repository re-checks uniqueness via constraints, closing the race
	// between the lookups above and the insert.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login verifies credentials and issues a signed bearer token.
// An unknown username and a wrong password return the same
// ErrInvalidCredentials, so callers cannot enumerate usernames.
func (s *Service) Login(ctx context.Context, username, password string) (string, *User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return "", nil, ErrInvalidCredentials
	}

	token, err := GenerateAccessToken(user, s.secret, s.tokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("issuing token: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID, "username", user.Username)
	return token, user, nil
}

// ResolveUser validates a bearer token and returns the account it belongs to.
// Returns ErrTokenExpired or ErrTokenInvalid for bad tokens, and
// ErrUserNotFound when the token's subject no longer exists.
func (s *Service) ResolveUser(ctx context.Context, tokenString string) (*User, error) {
	claims, err := ParseAccessToken(tokenString, s.secret)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
