package handler

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hazelwick/spotless/internal/database"
	"github.com/hazelwick/spotless/internal/notify"
	"github.com/hazelwick/spotless/internal/push"
	"github.com/hazelwick/spotless/internal/store"
)

func newBookingHandler(t *testing.T) *BookingHandler {
	t.Helper()
	sqlDB, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db := store.NewDB(sqlDB)
	logger := slog.New(slog.DiscardHandler)
	notifier := notify.NewNotifier(
		store.NewNotificationStore(db),
		store.NewPushStore(db),
		notify.NewHub(),
		push.NewService(push.Config{}),
		logger,
	)
	return NewBookingHandler(store.NewBookingStore(db), store.NewBookingSummaryStore(db), notifier, logger)
}

func TestCreateBookingRejectsUnknownStatus(t *testing.T) {
	h := newBookingHandler(t)

	// The status lands in the error message; percent signs in it must
	// come back verbatim, not be interpreted as formatting verbs.
	body := `{"customer_id":1,"property_id":1,"service_id":1,"scheduled_at":"2026-09-01T10:00:00Z","status":"50%s done"}`
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest("POST", "/api/bookings", newBody(body)))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body.String())
	}
	got := rec.Body.String()
	if !strings.Contains(got, "50%s done") {
		t.Errorf("error should quote the status verbatim: %s", got)
	}
	if strings.Contains(got, "%!") {
		t.Errorf("error contains a formatting artifact: %s", got)
	}
}

func TestCreateBookingRequiresReferences(t *testing.T) {
	h := newBookingHandler(t)

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest("POST", "/api/bookings", newBody(`{"scheduled_at":"2026-09-01T10:00:00Z"}`)))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}
