package handler

import (
	"log/slog"
	"net/http"

	"github.com/hazelwick/spotless/internal/store"
)

type ServiceHandler struct {
	services *store.ServiceStore
	logger   *slog.Logger
}

func NewServiceHandler(services *store.ServiceStore, logger *slog.Logger) *ServiceHandler {
	return &ServiceHandler{services: services, logger: logger}
}

func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	f := store.ServiceFilter{ActiveOnly: r.URL.Query().Get("active") == "true"}
	page, err := h.services.List(f, pageRequest(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// ListPublic is the unauthenticated catalog: active services only.
func (h *ServiceHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	page, err := h.services.List(store.ServiceFilter{ActiveOnly: true}, pageRequest(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *ServiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, h.logger, "invalid id")
		return
	}
	service, err := h.services.GetByID(id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if service == nil {
		respondJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
		return
	}
	respondJSON(w, http.StatusOK, service)
}

type serviceRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	BasePriceCents  int64  `json:"base_price_cents"`
	DurationMinutes int    `json:"duration_minutes"`
	Active          bool   `json:"active"`
}

func (r serviceRequest) validate() string {
	if r.Name == "" {
		return "name is required"
	}
	if r.BasePriceCents < 0 {
		return "base_price_cents must not be negative"
	}
	return ""
}

func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if msg := req.validate(); msg != "" {
		respondValidation(w, h.logger, "%s", msg)
		return
	}
	service, err := h.services.Create(req.Name, req.Description, req.BasePriceCents, req.DurationMinutes, req.Active)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, service)
}

func (h *ServiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, h.logger, "invalid id")
		return
	}
	var req serviceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if msg := req.validate(); msg != "" {
		respondValidation(w, h.logger, "%s", msg)
		return
	}
	service, err := h.services.Update(id, req.Name, req.Description, req.BasePriceCents, req.DurationMinutes, req.Active)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, service)
}

func (h *ServiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, h.logger, "invalid id")
		return
	}
	if err := h.services.Delete(id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ServiceHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, h.logger, "invalid id")
		return
	}
	service, err := h.services.Restore(id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, service)
}
