package store

import (
	"testing"
	"time"
)

func TestBookingSummaryUpsert(t *testing.T) {
	db := newTestDB(t)
	s := NewBookingSummaryStore(db)
	f := setupBookingFixture(t, db)

	b, err := NewBookingStore(db).Create(f.input(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	first, err := s.Upsert(b.ID, "Initial write-up", "gpt")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if first.Summary != "Initial write-up" {
		t.Errorf("summary = %q", first.Summary)
	}

	second, err := s.Upsert(b.ID, "Regenerated write-up", "claude")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("regeneration created a new row: %d != %d", second.ID, first.ID)
	}
	if second.Summary != "Regenerated write-up" || second.Generator != "claude" {
		t.Errorf("summary not overwritten: %q / %q", second.Summary, second.Generator)
	}

	var count int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM booking_summaries WHERE booking_id = ?`, b.ID).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("rows = %d, want exactly 1 per booking", count)
	}
}

func TestBookingSummaryUpsertRevivesDeleted(t *testing.T) {
	db := newTestDB(t)
	s := NewBookingSummaryStore(db)
	f := setupBookingFixture(t, db)

	b, err := NewBookingStore(db).Create(f.input(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if _, err := s.Upsert(b.ID, "v1", "gpt"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := s.Delete(b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := s.GetByBookingID(b.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Fatal("deleted summary should be invisible")
	}

	// Regeneration over a deleted row brings it back.
	revived, err := s.Upsert(b.ID, "v2", "gpt")
	if err != nil {
		t.Fatalf("upsert after delete: %v", err)
	}
	if revived == nil || revived.Summary != "v2" {
		t.Fatal("upsert should revive the deleted summary")
	}
	if revived.DeletedAt != nil {
		t.Error("revived summary should have nil deleted_at")
	}
}
