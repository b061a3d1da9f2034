package handler

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hazelwick/spotless/internal/auth"
	"github.com/hazelwick/spotless/internal/database"
	"github.com/hazelwick/spotless/internal/email"
	"github.com/hazelwick/spotless/internal/store"
)

func newPortalHandler(t *testing.T) (*PortalHandler, *store.DB) {
	t.Helper()
	sqlDB, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db := store.NewDB(sqlDB)
	logger := slog.New(slog.DiscardHandler)
	h := NewPortalHandler(
		store.NewCustomerStore(db),
		store.NewPropertyStore(db),
		store.NewBookingStore(db),
		store.NewMagicLinkStore(db),
		store.NewPortalSessionStore(db),
		email.NewClient("", "noreply@example.com", "http://localhost", logger),
		logger,
	)
	return h, db
}

func TestVerifyConsumesLinkOnce(t *testing.T) {
	h, db := newPortalHandler(t)

	if _, err := store.NewCustomerStore(db).Create("c@example.com", "C", "", ""); err != nil {
		t.Fatalf("create customer: %v", err)
	}
	raw, hash, err := auth.NewToken()
	if err != nil {
		t.Fatalf("new token: %v", err)
	}
	if _, err := store.NewMagicLinkStore(db).Create("c@example.com", hash, time.Now().UTC().Add(store.MagicLinkTTL)); err != nil {
		t.Fatalf("create magic link: %v", err)
	}

	rec := httptest.NewRecorder()
	h.Verify(rec, httptest.NewRequest("GET", "/api/portal/verify?token="+raw, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("first verify status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	// A portal session cookie was issued.
	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "spotless_portal" && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("expected portal session cookie")
	}

	// The link is spent: replay fails.
	rec = httptest.NewRecorder()
	h.Verify(rec, httptest.NewRequest("GET", "/api/portal/verify?token="+raw, nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("replay status = %d, want 401", rec.Code)
	}
}

func TestVerifyRejectsUnknownToken(t *testing.T) {
	h, _ := newPortalHandler(t)

	rec := httptest.NewRecorder()
	h.Verify(rec, httptest.NewRequest("GET", "/api/portal/verify?token=deadbeef", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Verify(rec, httptest.NewRequest("GET", "/api/portal/verify", nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("missing token status = %d, want 422", rec.Code)
	}
}

func TestRequestLinkDoesNotRevealEmails(t *testing.T) {
	h, db := newPortalHandler(t)

	if _, err := store.NewCustomerStore(db).Create("known@example.com", "K", "", ""); err != nil {
		t.Fatalf("create customer: %v", err)
	}

	for _, body := range []string{
		`{"email":"known@example.com"}`,
		`{"email":"unknown@example.com"}`,
	} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/portal/request-link", newBody(body))
		h.RequestLink(rec, req)
		if rec.Code != http.StatusAccepted {
			t.Errorf("status for %s = %d, want 202 either way", body, rec.Code)
		}
	}

	// Only the known email got a token.
	var n int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM magic_link_tokens`).Scan(&n); err != nil {
		t.Fatalf("count tokens: %v", err)
	}
	if n != 1 {
		t.Errorf("tokens = %d, want 1", n)
	}
}
