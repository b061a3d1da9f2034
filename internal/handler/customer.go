package handler

import (
	"log/slog"
	"net/http"

	"github.com/hazelwick/spotless/internal/store"
)

type CustomerHandler struct {
	customers *store.CustomerStore
	bookings  *store.BookingStore
	logger    *slog.Logger
}

func NewCustomerHandler(customers *store.CustomerStore, bookings *store.BookingStore, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{customers: customers, bookings: bookings, logger: logger}
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	f := store.CustomerFilter{Search: r.URL.Query().Get("search")}
	page, err := h.customers.List(f, pageRequest(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, h.logger, "invalid id")
		return
	}
	customer, err := h.customers.GetByID(id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if customer == nil {
		respondJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

type customerRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Notes string `json:"notes"`
}

func (r customerRequest) validate() string {
	if r.Email == "" {
		return "email is required"
	}
	if r.Name == "" {
		return "name is required"
	}
	return ""
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if msg := req.validate(); msg != "" {
		respondValidation(w, h.logger, "%s", msg)
		return
	}
	customer, err := h.customers.Create(req.Email, req.Name, req.Phone, req.Notes)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, customer)
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, h.logger, "invalid id")
		return
	}
	var req customerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if msg := req.validate(); msg != "" {
		respondValidation(w, h.logger, "%s", msg)
		return
	}
	customer, err := h.customers.Update(id, req.Email, req.Name, req.Phone, req.Notes)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

// Delete offboards a customer: their record and any remaining bookings
// are soft-deleted together.
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, h.logger, "invalid id")
		return
	}
	if err := h.customers.Delete(id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if _, err := h.bookings.DeleteByCustomer(id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CustomerHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, h.logger, "invalid id")
		return
	}
	customer, err := h.customers.Restore(id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, customer)
}
