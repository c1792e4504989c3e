package auth

import (
	"errors"
	"time"
)

// User represents a registered account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"` // never serialised
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Sentinel errors for auth operations.
var (
	// ErrMissingCredentials is returned when a username or password is empty.
	ErrMissingCredentials = errors.New("auth: username and password are required")

	// ErrInvalidCredentials is returned for both unknown usernames and wrong
	// passwords, deliberately giving no enumeration signal.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrUserNotFound is returned when a user ID or username does not exist.
	ErrUserNotFound = errors.New("auth: user not found")

	// ErrUsernameExists is returned when registering a taken username.
	ErrUsernameExists = errors.New("auth: username already exists")

	// ErrEmailExists is returned when registering a taken email address.
	ErrEmailExists = errors.New("auth: email already exists")

	// ErrTokenExpired is returned when a token's expiry has passed.
	ErrTokenExpired = errors.New("auth: token has expired")

	// ErrTokenInvalid is returned when a token fails signature or format checks.
	ErrTokenInvalid = errors.New("auth: invalid token")
)
