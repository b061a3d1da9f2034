package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hazelwick/spotless/internal/model"
	"github.com/hazelwick/spotless/internal/notify"
	"github.com/hazelwick/spotless/internal/store"
)

type BookingHandler struct {
	bookings  *store.BookingStore
	summaries *store.BookingSummaryStore
	notifier  *notify.Notifier
	logger    *slog.Logger
}

func NewBookingHandler(bookings *store.BookingStore, summaries *store.BookingSummaryStore, notifier *notify.Notifier, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, summaries: summaries, notifier: notifier, logger: logger}
}

var validBookingStatus = map[string]bool{
	model.BookingPending:    true,
	model.BookingConfirmed:  true,
	model.BookingInProgress: true,
	model.BookingCompleted:  true,
	model.BookingCancelled:  true,
}

func bookingFilterFromQuery(r *http.Request) (store.BookingFilter, error) {
	var f store.BookingFilter
	q := r.URL.Query()
	f.Status = q.Get("status")
	if f.Status != "" && !validBookingStatus[f.Status] {
		return f, fmt.Errorf("unknown status %q", f.Status)
	}
	for param, dst := range map[string]*int64{
		"customer_id": &f.CustomerID,
		"property_id": &f.PropertyID,
		"service_id":  &f.ServiceID,
		"assigned_to": &f.AssignedUserID,
	} {
		if v := q.Get(param); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return f, fmt.Errorf("invalid %s", param)
			}
			*dst = id
		}
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, fmt.Errorf("invalid from: use RFC 3339")
		}
		f.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, fmt.Errorf("invalid to: use RFC 3339")
		}
		f.To = &t
	}
	return f, nil
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := bookingFilterFromQuery(r)
	if err != nil {
		respondValidation(w, h.logger, "%v", err)
		return
	}
	page, err := h.bookings.List(f, pageRequest(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *BookingHandler) Count(w http.ResponseWriter, r *http.Request) {
	f, err := bookingFilterFromQuery(r)
	if err != nil {
		respondValidation(w, h.logger, "%v", err)
		return
	}
	n, err := h.bookings.Count(f)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"count": n})
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, h.logger, "invalid id")
		return
	}
	booking, err := h.bookings.GetByID(id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if booking == nil {
		respondJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

type bookingRequest struct {
	CustomerID     int64     `json:"customer_id"`
	PropertyID     int64     `json:"property_id"`
	ServiceID      int64     `json:"service_id"`
	AssignedUserID *int64    `json:"assigned_user_id"`
	Status         string    `json:"status"`
	ScheduledAt    time.Time `json:"scheduled_at"`
	PriceCents     int64     `json:"price_cents"`
	Notes          string    `json:"notes"`
}

func (r bookingRequest) validate() string {
	if r.CustomerID == 0 || r.PropertyID == 0 || r.ServiceID == 0 {
		return "customer_id, property_id and service_id are required"
	}
	if r.ScheduledAt.IsZero() {
		return "scheduled_at is required"
	}
	if r.Status != "" && !validBookingStatus[r.Status] {
		return fmt.Sprintf("unknown status %q", r.Status)
	}
	return ""
}

func (r bookingRequest) input() store.BookingInput {
	return store.BookingInput{
		CustomerID:     r.CustomerID,
		PropertyID:     r.PropertyID,
		ServiceID:      r.ServiceID,
		AssignedUserID: r.AssignedUserID,
		Status:         r.Status,
		ScheduledAt:    r.ScheduledAt,
		PriceCents:     r.PriceCents,
		Notes:          r.Notes,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if msg := req.validate(); msg != "" {
		respondValidation(w, h.logger, "%s", msg)
		return
	}
	booking, err := h.bookings.Create(req.input())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.notifyAssignment(booking, nil)
	respondJSON(w, http.StatusCreated, booking)
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, h.logger, "invalid id")
		return
	}
	var req bookingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if msg := req.validate(); msg != "" {
		respondValidation(w, h.logger, "%s", msg)
		return
	}
	prev, err := h.bookings.GetByID(id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	booking, err := h.bookings.Update(id, req.input())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var prevAssigned *int64
	if prev != nil {
		prevAssigned = prev.AssignedUserID
	}
	h.notifyAssignment(booking, prevAssigned)
	respondJSON(w, http.StatusOK, booking)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
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
	if !validBookingStatus[req.Status] {
		respondValidation(w, h.logger, "unknown status %q", req.Status)
		return
	}
	booking, err := h.bookings.UpdateStatus(id, req.Status)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if booking.AssignedUserID != nil {
		if _, err := h.notifier.Notify(*booking.AssignedUserID, "booking",
			"Booking status changed",
			fmt.Sprintf("Booking #%d is now %s", booking.ID, booking.Status)); err != nil {
			h.logger.Error("notify status change", "error", err)
		}
	}
	respondJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, h.logger, "invalid id")
		return
	}
	if err := h.bookings.Delete(id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BookingHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, h.logger, "invalid id")
		return
	}
	booking, err := h.bookings.Restore(id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, h.logger, "invalid id")
		return
	}
	summary, err := h.summaries.GetByBookingID(id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if summary == nil {
		respondJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

type summaryRequest struct {
	Summary   string `json:"summary"`
	Generator string `json:"generator"`
}

// PutSummary writes the booking's summary, replacing any existing one.
func (h *BookingHandler) PutSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, h.logger, "invalid id")
		return
	}
	var req summaryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.Summary == "" {
		respondValidation(w, h.logger, "summary is required")
		return
	}
	booking, err := h.bookings.GetByID(id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if booking == nil {
		respondJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
		return
	}
	summary, err := h.summaries.Upsert(id, req.Summary, req.Generator)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// notifyAssignment tells a user they were assigned a booking. prev is the
// assignee before the change, so reassignments only ping the new user.
func (h *BookingHandler) notifyAssignment(b *model.Booking, prev *int64) {
	if b == nil || b.AssignedUserID == nil {
		return
	}
	if prev != nil && *prev == *b.AssignedUserID {
		return
	}
	_, err := h.notifier.Notify(*b.AssignedUserID, "booking",
		"New booking assigned",
		fmt.Sprintf("Booking #%d scheduled for %s", b.ID, b.ScheduledAt.Format("Jan 2 15:04")))
	if err != nil {
		h.logger.Error("notify assignment", "error", err)
	}
}
