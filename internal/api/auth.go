package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/finderapp/lostfound-core/internal/auth"
)

// registerRequest is the request body for POST /api/auth/register.
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginRequest is the request body for POST /api/auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the response body for POST /api/auth/login.
type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	UserID   string `json:"user_id"`
	IsAdmin  bool   `json:"is_admin"`
}

// handleRegister creates a new user account.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	user, err := s.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		writeValidationError(w, "username and password are required")
		return
	case errors.Is(err, auth.ErrUsernameExists):
		writeConflict(w, "username already exists")
		return
	case errors.Is(err, auth.ErrEmailExists):
		writeConflict(w, "email already registered")
		return
	case err != nil:
		s.logger.Error("registration failed", "error", err)
		writeInternalError(w, "registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "user registered successfully",
		"user":    user,
	})
}

// handleLogin authenticates a user and returns a bearer token.
//
// Unknown username and wrong password produce the same response, so the
// endpoint cannot be used to probe which accounts exist.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	token, user, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrMissingCredentials) {
		writeUnauthorized(w, "invalid credentials")
		return
	}
	if err != nil {
		s.logger.Error("login failed", "error", err)
		writeInternalError(w, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:    token,
		Username: user.Username,
		UserID:   user.ID,
		IsAdmin:  user.IsAdmin,
	})
}

// handleProfile returns the authenticated user's account details.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}
