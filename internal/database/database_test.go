package database

import (
	"testing"
	"time"
)

func TestOpenAppliesMigrations(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	var n int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('customers', 'bookings', 'sessions')`).Scan(&n)
	if err != nil {
		t.Fatalf("query schema: %v", err)
	}
	if n != 3 {
		t.Errorf("migrated tables = %d, want 3", n)
	}
}

func TestOpenEnforcesForeignKeys(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	now := time.Now().UTC()
	_, err = db.Exec(
		`INSERT INTO properties (customer_id, address, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		999, "1 Nowhere Lane", now, now,
	)
	if err == nil {
		t.Fatal("insert with dangling customer_id succeeded, want foreign key violation")
	}
}
