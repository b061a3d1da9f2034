package store

import (
	"testing"
	"time"
)

func TestMagicLinkSingleUse(t *testing.T) {
	db := newTestDB(t)
	s := NewMagicLinkStore(db)

	token, err := s.Create("customer@example.com", "ml-hash", farFuture())
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	got, err := s.FindValidByHash("ml-hash")
	if err != nil {
		t.Fatalf("find valid: %v", err)
	}
	if got == nil || got.ID != token.ID {
		t.Fatal("expected to find the fresh token")
	}

	won, err := s.Consume(token.ID)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !won {
		t.Fatal("first consume should win")
	}

	// A second consume sees the stamped row and loses. This is the replay
	// guard: of two concurrent verifications exactly one wins.
	won, err = s.Consume(token.ID)
	if err != nil {
		t.Fatalf("repeat consume: %v", err)
	}
	if won {
		t.Error("second consume should lose")
	}

	got, err = s.FindValidByHash("ml-hash")
	if err != nil {
		t.Fatalf("find after consume: %v", err)
	}
	if got != nil {
		t.Error("consumed token should not be valid")
	}
}

func TestCreateInvalidatesPreviousTokens(t *testing.T) {
	db := newTestDB(t)
	s := NewMagicLinkStore(db)

	if _, err := s.Create("customer@example.com", "old-hash", farFuture()); err != nil {
		t.Fatalf("create first token: %v", err)
	}
	if _, err := s.Create("customer@example.com", "new-hash", farFuture()); err != nil {
		t.Fatalf("create second token: %v", err)
	}

	old, err := s.FindValidByHash("old-hash")
	if err != nil {
		t.Fatalf("find old: %v", err)
	}
	if old != nil {
		t.Error("requesting a new link should invalidate the previous one")
	}

	fresh, err := s.FindValidByHash("new-hash")
	if err != nil {
		t.Fatalf("find new: %v", err)
	}
	if fresh == nil {
		t.Error("latest token should be valid")
	}
}

func TestExpiredMagicLinkNotValid(t *testing.T) {
	db := newTestDB(t)
	s := NewMagicLinkStore(db)

	past := time.Now().UTC().Add(-time.Minute)
	if _, err := s.Create("customer@example.com", "stale", past); err != nil {
		t.Fatalf("create token: %v", err)
	}

	got, err := s.FindValidByHash("stale")
	if err != nil {
		t.Fatalf("find valid: %v", err)
	}
	if got != nil {
		t.Error("expired token should not be valid")
	}
}

func TestInvalidateExpiredForEmail(t *testing.T) {
	db := newTestDB(t)
	s := NewMagicLinkStore(db)

	past := time.Now().UTC().Add(-time.Minute)
	if _, err := s.Create("a@example.com", "expired-a", past); err != nil {
		t.Fatalf("create expired token: %v", err)
	}

	// Second create for the same email stamps the first; reset it so the
	// hygiene path has something to do.
	if _, err := db.Exec(`UPDATE magic_link_tokens SET consumed_at = NULL`); err != nil {
		t.Fatalf("reset consumed_at: %v", err)
	}

	n, err := s.InvalidateExpiredForEmail("a@example.com")
	if err != nil {
		t.Fatalf("invalidate expired: %v", err)
	}
	if n != 1 {
		t.Errorf("invalidated = %d, want 1", n)
	}

	// Live tokens for the email are untouched.
	if _, err := s.Create("a@example.com", "live-a", farFuture()); err != nil {
		t.Fatalf("create live token: %v", err)
	}
	n, err = s.InvalidateExpiredForEmail("a@example.com")
	if err != nil {
		t.Fatalf("invalidate again: %v", err)
	}
	if n != 0 {
		t.Errorf("invalidated = %d, want 0", n)
	}
	live, err := s.FindValidByHash("live-a")
	if err != nil {
		t.Fatalf("find live: %v", err)
	}
	if live == nil {
		t.Error("live token should survive expiry hygiene")
	}
}

func TestDeleteExpiredMagicLinks(t *testing.T) {
	db := newTestDB(t)
	s := NewMagicLinkStore(db)

	past := time.Now().UTC().Add(-time.Hour)
	s.Create("a@example.com", "gone", past)
	s.Create("b@example.com", "kept", farFuture())

	n, err := s.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
}
