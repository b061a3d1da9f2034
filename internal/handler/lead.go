package handler

import (
	"log/slog"
	"net/http"

	"github.com/hazelwick/spotless/internal/model"
	"github.com/hazelwick/spotless/internal/store"
)

type LeadHandler struct {
	leads  *store.LeadStore
	logger *slog.Logger
}

func NewLeadHandler(leads *store.LeadStore, logger *slog.Logger) *LeadHandler {
	return &LeadHandler{leads: leads, logger: logger}
}

type leadRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
	Source  string `json:"source"`
}

// Create is the public quote-request endpoint; it sits behind the rate
// limiter in the router.
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req leadRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.Name == "" || req.Email == "" {
		respondValidation(w, h.logger, "name and email are required")
		return
	}
	lead, err := h.leads.Create(req.Name, req.Email, req.Phone, req.Message, req.Source)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, lead)
}

func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	f := store.LeadFilter{
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("search"),
	}
	page, err := h.leads.List(f, pageRequest(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, h.logger, "invalid id")
		return
	}
	lead, err := h.leads.GetByID(id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if lead == nil {
		respondJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
		return
	}
	respondJSON(w, http.StatusOK, lead)
}

var validLeadStatus = map[string]bool{
	model.LeadNew:       true,
	model.LeadContacted: true,
	model.LeadConverted: true,
	model.LeadClosed:    true,
}

func (h *LeadHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, h.logger, "invalid id")
		return
	}
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if !validLeadStatus[req.Status] {
		respondValidation(w, h.logger, "unknown status %q", req.Status)
		return
	}
	lead, err := h.leads.UpdateStatus(id, req.Status)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, h.logger, "invalid id")
		return
	}
	if err := h.leads.Delete(id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LeadHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, h.logger, "invalid id")
		return
	}
	lead, err := h.leads.Restore(id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, lead)
}
