package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hazelwick/spotless/internal/apperr"
	"github.com/hazelwick/spotless/internal/store"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

// respondError maps the error taxonomy onto status codes. Unexpected
// errors are logged with full detail and answered with a generic message.
func respondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch apperr.Classify(err) {
	case apperr.Conflict:
		respondJSON(w, http.StatusConflict, errorBody{Error: "a record with those unique values already exists"})
	case apperr.NotFound:
		respondJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case apperr.InvalidReference:
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "a referenced record does not exist"})
	case apperr.ValidationFailed:
		respondJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	default:
		logger.Error("unexpected error", "error", err)
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func respondValidation(w http.ResponseWriter, logger *slog.Logger, format string, args ...any) {
	respondError(w, logger, apperr.Validation(format, args...))
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// pageRequest parses the shared limit/cursor query parameters.
func pageRequest(r *http.Request) store.PageRequest {
	var req store.PageRequest
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.Limit = n
		}
	}
	if v := r.URL.Query().Get("cursor"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.Cursor = &n
		}
	}
	return req
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}
