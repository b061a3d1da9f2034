package handler

import (
	"log/slog"
	"net/http"

	"github.com/hazelwick/spotless/internal/auth"
	"github.com/hazelwick/spotless/internal/model"
	"github.com/hazelwick/spotless/internal/store"
)

// UserHandler is the admin-only staff management surface.
type UserHandler struct {
	users    *store.UserStore
	sessions *store.SessionStore
	logger   *slog.Logger
}

func NewUserHandler(users *store.UserStore, sessions *store.SessionStore, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, sessions: sessions, logger: logger}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	f := store.UserFilter{
		Role:   r.URL.Query().Get("role"),
		Search: r.URL.Query().Get("search"),
	}
	page, err := h.users.List(f, pageRequest(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, h.logger, "invalid id")
		return
	}
	user, err := h.users.GetByID(id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if user == nil {
		respondJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
		return
	}
	respondJSON(w, http.StatusOK, user)
}

type createUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.Email == "" || req.Name == "" {
		respondValidation(w, h.logger, "email and name are required")
		return
	}
	if len(req.Password) < 8 {
		respondValidation(w, h.logger, "password must be at least 8 characters")
		return
	}
	if req.Role == "" {
		req.Role = model.RoleStaff
	}
	if req.Role != model.RoleAdmin && req.Role != model.RoleStaff {
		respondValidation(w, h.logger, "unknown role %q", req.Role)
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	user, err := h.users.Create(req.Email, req.Name, hash, req.Role)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

type updateUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, h.logger, "invalid id")
		return
	}
	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.Email == "" || req.Name == "" {
		respondValidation(w, h.logger, "email and name are required")
		return
	}
	if req.Role != model.RoleAdmin && req.Role != model.RoleStaff {
		respondValidation(w, h.logger, "unknown role %q", req.Role)
		return
	}
	user, err := h.users.Update(id, req.Email, req.Name, req.Role)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// Delete offboards a staff member and revokes their sessions so access
// ends immediately.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, h.logger, "invalid id")
		return
	}
	if ac, ok := auth.FromContext(r.Context()); ok && ac.UserID == id {
		respondValidation(w, h.logger, "cannot delete your own account")
		return
	}
	if err := h.users.Delete(id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if _, err := h.sessions.RevokeAllForUser(id, "account deleted"); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, h.logger, "invalid id")
		return
	}
	user, err := h.users.Restore(id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
