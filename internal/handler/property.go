package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hazelwick/spotless/internal/store"
)

type PropertyHandler struct {
	properties *store.PropertyStore
	logger     *slog.Logger
}

func NewPropertyHandler(properties *store.PropertyStore, logger *slog.Logger) *PropertyHandler {
	return &PropertyHandler{properties: properties, logger: logger}
}

func (h *PropertyHandler) List(w http.ResponseWriter, r *http.Request) {
	var f store.PropertyFilter
	if v := r.URL.Query().Get("customer_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondValidation(w, h.logger, "invalid customer_id")
			return
		}
		f.CustomerID = id
	}
	page, err := h.properties.List(f, pageRequest(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *PropertyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, h.logger, "invalid id")
		return
	}
	property, err := h.properties.GetByID(id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if property == nil {
		respondJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
		return
	}
	respondJSON(w, http.StatusOK, property)
}

type propertyRequest struct {
	CustomerID  int64  `json:"customer_id"`
	Address     string `json:"address"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code"`
	Bedrooms    int    `json:"bedrooms"`
	Bathrooms   int    `json:"bathrooms"`
	SquareFeet  int    `json:"square_feet"`
	AccessNotes string `json:"access_notes"`
}

func (r propertyRequest) validate(requireCustomer bool) string {
	if requireCustomer && r.CustomerID == 0 {
		return "customer_id is required"
	}
	if r.Address == "" {
		return "address is required"
	}
	return ""
}

func (h *PropertyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req propertyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if msg := req.validate(true); msg != "" {
		respondValidation(w, h.logger, "%s", msg)
		return
	}
	property, err := h.properties.Create(req.CustomerID, req.Address, req.City, req.PostalCode, req.Bedrooms, req.Bathrooms, req.SquareFeet, req.AccessNotes)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, property)
}

func (h *PropertyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, h.logger, "invalid id")
		return
	}
	var req propertyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if msg := req.validate(false); msg != "" {
		respondValidation(w, h.logger, "%s", msg)
		return
	}
	property, err := h.properties.Update(id, req.Address, req.City, req.PostalCode, req.Bedrooms, req.Bathrooms, req.SquareFeet, req.AccessNotes)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, property)
}

func (h *PropertyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, h.logger, "invalid id")
		return
	}
	if err := h.properties.Delete(id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PropertyHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, h.logger, "invalid id")
		return
	}
	property, err := h.properties.Restore(id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, property)
}
