package store

import (
	"testing"
	"time"

	"github.com/hazelwick/spotless/internal/model"
)

func farFuture() time.Time {
	return time.Now().UTC().Add(24 * time.Hour)
}

func createTestUser(t *testing.T, db *DB) *model.User {
	t.Helper()
	u, err := NewUserStore(db).Create("staff@example.com", "Staff", "hash", "staff")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestSessionLifecycle(t *testing.T) {
	db := newTestDB(t)
	s := NewSessionStore(db)
	u := createTestUser(t, db)

	sess, err := s.Create(u.ID, "hash-abc", farFuture(), "test-agent", "127.0.0.1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sess.UserID != u.ID {
		t.Errorf("user_id = %d, want %d", sess.UserID, u.ID)
	}

	got, err := s.FindValidByHash("hash-abc")
	if err != nil {
		t.Fatalf("find valid: %v", err)
	}
	if got == nil || got.ID != sess.ID {
		t.Fatal("expected to find the live session")
	}

	if err := s.RevokeByID(sess.ID, "logout"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	got, err = s.FindValidByHash("hash-abc")
	if err != nil {
		t.Fatalf("find after revoke: %v", err)
	}
	if got != nil {
		t.Error("revoked session should not be valid")
	}
}

func TestFindValidByHashMissIsNotAnError(t *testing.T) {
	db := newTestDB(t)
	s := NewSessionStore(db)

	got, err := s.FindValidByHash("nope")
	if err != nil {
		t.Fatalf("find valid: %v", err)
	}
	if got != nil {
		t.Error("expected nil for unknown hash")
	}
}

func TestExpiredSessionNotValid(t *testing.T) {
	db := newTestDB(t)
	s := NewSessionStore(db)
	u := createTestUser(t, db)

	past := time.Now().UTC().Add(-time.Minute)
	if _, err := s.Create(u.ID, "hash-old", past, "", ""); err != nil {
		t.Fatalf("create session: %v", err)
	}

	got, err := s.FindValidByHash("hash-old")
	if err != nil {
		t.Fatalf("find valid: %v", err)
	}
	if got != nil {
		t.Error("expired session should not be valid")
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	s := NewSessionStore(db)
	u := createTestUser(t, db)

	sess, err := s.Create(u.ID, "hash-1", farFuture(), "", "")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := s.RevokeByID(sess.ID, "first"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := s.RevokeByID(sess.ID, "second"); err != nil {
		t.Fatalf("repeat revoke: %v", err)
	}

	// The first revocation reason sticks.
	row := db.QueryRow(`SELECT revocation_reason FROM sessions WHERE id = ?`, sess.ID)
	var reason string
	if err := row.Scan(&reason); err != nil {
		t.Fatalf("scan reason: %v", err)
	}
	if reason != "first" {
		t.Errorf("reason = %q, want %q", reason, "first")
	}
}

func TestRevokeAllForUser(t *testing.T) {
	db := newTestDB(t)
	s := NewSessionStore(db)
	u := createTestUser(t, db)

	for _, h := range []string{"h1", "h2", "h3"} {
		if _, err := s.Create(u.ID, h, farFuture(), "", ""); err != nil {
			t.Fatalf("create session %s: %v", h, err)
		}
	}
	if err := s.RevokeByTokenHash("h1", "logout"); err != nil {
		t.Fatalf("revoke h1: %v", err)
	}

	n, err := s.RevokeAllForUser(u.ID, "password change")
	if err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	if n != 2 {
		t.Errorf("revoked = %d, want 2 (already-revoked rows untouched)", n)
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	db := newTestDB(t)
	s := NewSessionStore(db)
	u := createTestUser(t, db)

	past := time.Now().UTC().Add(-time.Hour)
	s.Create(u.ID, "dead", past, "", "")
	s.Create(u.ID, "live", farFuture(), "", "")

	n, err := s.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}

	got, err := s.FindValidByHash("live")
	if err != nil {
		t.Fatalf("find live: %v", err)
	}
	if got == nil {
		t.Error("live session should survive hygiene")
	}
}

func TestPortalSessionLifecycle(t *testing.T) {
	db := newTestDB(t)
	s := NewPortalSessionStore(db)

	if _, err := s.Create("customer@example.com", "p-hash", farFuture(), "", ""); err != nil {
		t.Fatalf("create portal session: %v", err)
	}

	got, err := s.FindValidByHash("p-hash")
	if err != nil {
		t.Fatalf("find valid: %v", err)
	}
	if got == nil || got.Email != "customer@example.com" {
		t.Fatal("expected live portal session for email")
	}

	n, err := s.RevokeAllForEmail("customer@example.com", "offboarded")
	if err != nil {
		t.Fatalf("revoke all for email: %v", err)
	}
	if n != 1 {
		t.Errorf("revoked = %d, want 1", n)
	}
	got, err = s.FindValidByHash("p-hash")
	if err != nil {
		t.Fatalf("find after revoke: %v", err)
	}
	if got != nil {
		t.Error("revoked portal session should not be valid")
	}
}
