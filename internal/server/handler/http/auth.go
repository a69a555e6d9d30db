// Package http provides the HTTP handlers for authentication and the
// generic resource CRUD endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gestibat/gestibat/internal/service"
)

// refreshCookie is the HttpOnly cookie carrying the opaque refresh token.
// Scoped to the token endpoints so resource requests never leak it.
const refreshCookie = "refresh_token"

// AuthService defines the authentication operations required by the
// token endpoints.
type AuthService interface {
	// Login verifies credentials and returns an access token plus a
	// refresh token id.
	Login(ctx context.Context, login, password string) (access, refreshID string, err error)
	// Refresh rotates a refresh token and returns a new access token.
	Refresh(ctx context.Context, refreshID string) (access, newRefreshID string, err error)
	// Logout revokes the refresh token and its siblings.
	Logout(ctx context.Context, refreshID string) error
}

// AuthHandler handles the /token/ endpoints.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
	// RefreshTTL bounds the refresh cookie lifetime.
	RefreshTTL time.Duration
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type accessResponse struct {
	Access string `json:"access"`
}

// Login handles POST /token/. On success the access token is returned in
// the body and the refresh token in an HttpOnly cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Login == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "login and password are required")
		return
	}

	access, refreshID, err := h.AuthService.Login(r.Context(), req.Login, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.setRefreshCookie(w, refreshID)
	writeJSON(w, http.StatusOK, accessResponse{Access: access})
}

// Refresh handles POST /token/refresh/. The refresh credential is read
// from the cookie; the body is ignored. Success rotates the cookie and
// returns a fresh access token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookie)
	if err != nil || cookie.Value == "" {
		writeError(w, http.StatusUnauthorized, "refresh token missing")
		return
	}

	access, newID, err := h.AuthService.Refresh(r.Context(), cookie.Value)
	if errors.Is(err, service.ErrInvalidCredentials) {
		h.clearRefreshCookie(w)
		writeError(w, http.StatusUnauthorized, "refresh token invalid or expired")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.setRefreshCookie(w, newID)
	writeJSON(w, http.StatusOK, accessResponse{Access: access})
}

// Logout handles POST /token/logout/, revoking the refresh token and
// clearing the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(refreshCookie); err == nil && cookie.Value != "" {
		if err := h.AuthService.Logout(r.Context(), cookie.Value); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}
	h.clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    id,
		Path:     "/token/",
		MaxAge:   int(h.RefreshTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    "",
		Path:     "/token/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
