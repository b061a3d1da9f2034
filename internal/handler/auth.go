package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hazelwick/spotless/internal/auth"
	"github.com/hazelwick/spotless/internal/middleware"
	"github.com/hazelwick/spotless/internal/model"
	"github.com/hazelwick/spotless/internal/store"
)

type AuthHandler struct {
	users    *store.UserStore
	sessions *store.SessionStore
	logger   *slog.Logger
}

func NewAuthHandler(users *store.UserStore, sessions *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

// Login verifies a panel user's password and issues a session. The raw
// token is returned here and never again.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		respondValidation(w, h.logger, "email and password are required")
		return
	}

	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid credentials"})
		return
	}

	raw, hash, err := auth.NewToken()
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	expiresAt := time.Now().UTC().Add(store.SessionTTL)
	sess, err := h.sessions.Create(user.ID, hash, expiresAt, r.UserAgent(), middleware.RealIP(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	setSessionCookie(w, middleware.SessionCookieName, raw, sess.ExpiresAt)
	respondJSON(w, http.StatusOK, sessionResponse{Token: raw, ExpiresAt: sess.ExpiresAt, User: user})
}

// Logout revokes the current session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if err := h.sessions.RevokeByID(ac.SessionID, "logout"); err != nil {
		respondError(w, h.logger, err)
		return
	}
	clearSessionCookie(w, middleware.SessionCookieName)
	w.WriteHeader(http.StatusNoContent)
}

// LogoutAll revokes every session the current user has.
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	n, err := h.sessions.RevokeAllForUser(ac.UserID, "logout all")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	clearSessionCookie(w, middleware.SessionCookieName)
	respondJSON(w, http.StatusOK, map[string]int64{"revoked": n})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(auth.UserID(r.Context()))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword replaces the password and revokes all sessions; the
// client signs in again with the new credential.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if len(req.NewPassword) < 8 {
		respondValidation(w, h.logger, "new password must be at least 8 characters")
		return
	}

	user, err := h.users.GetByID(ac.UserID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid credentials"})
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if err := h.users.UpdatePassword(ac.UserID, hash); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if _, err := h.sessions.RevokeAllForUser(ac.UserID, "password change"); err != nil {
		respondError(w, h.logger, err)
		return
	}
	clearSessionCookie(w, middleware.SessionCookieName)
	w.WriteHeader(http.StatusNoContent)
}

func setSessionCookie(w http.ResponseWriter, name, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
