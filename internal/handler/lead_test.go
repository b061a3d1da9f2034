package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hazelwick/spotless/internal/database"
	"github.com/hazelwick/spotless/internal/model"
	"github.com/hazelwick/spotless/internal/store"
)

func newBody(s string) io.Reader {
	return strings.NewReader(s)
}

func newLeadHandler(t *testing.T) *LeadHandler {
	t.Helper()
	sqlDB, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return NewLeadHandler(store.NewLeadStore(store.NewDB(sqlDB)), slog.New(slog.DiscardHandler))
}

func TestLeadCreate(t *testing.T) {
	h := newLeadHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/leads", newBody(`{"name":"Pat","email":"pat@example.com","message":"Quote please"}`))
	h.Create(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var lead model.Lead
	if err := json.NewDecoder(rec.Body).Decode(&lead); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if lead.Status != model.LeadNew {
		t.Errorf("status = %q, want %q", lead.Status, model.LeadNew)
	}
	if lead.Source != "website" {
		t.Errorf("source = %q, want default", lead.Source)
	}
}

func TestLeadCreateValidation(t *testing.T) {
	h := newLeadHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/leads", newBody(`{"name":"","email":""}`))
	h.Create(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty fields status = %d, want 422", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/api/leads", newBody(`{"name":"X","email":"x@x.com","bogus":true}`))
	h.Create(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown field status = %d, want 422", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/api/leads", newBody(`{not json`))
	h.Create(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("malformed body status = %d, want 422", rec.Code)
	}
}

func TestLeadStatusTransitions(t *testing.T) {
	h := newLeadHandler(t)

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest("POST", "/api/leads", newBody(`{"name":"Pat","email":"pat@example.com"}`)))
	var lead model.Lead
	if err := json.NewDecoder(rec.Body).Decode(&lead); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/leads/1/status", newBody(`{"status":"contacted"}`))
	req.SetPathValue("id", "1")
	h.UpdateStatus(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status update = %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/api/leads/1/status", newBody(`{"status":"bogus"}`))
	req.SetPathValue("id", "1")
	h.UpdateStatus(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad status = %d, want 422", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/api/leads/999/status", newBody(`{"status":"closed"}`))
	req.SetPathValue("id", "999")
	h.UpdateStatus(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing lead status = %d, want 404", rec.Code)
	}
}
