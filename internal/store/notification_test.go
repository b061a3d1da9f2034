package store

import (
	"testing"
)

func TestNotificationListNewestFirst(t *testing.T) {
	db := newTestDB(t)
	s := NewNotificationStore(db)
	u := createTestUser(t, db)

	var lastID int64
	for _, title := range []string{"first", "second", "third"} {
		n, err := s.Create(u.ID, "booking", title, "")
		if err != nil {
			t.Fatalf("create notification: %v", err)
		}
		lastID = n.ID
	}

	page, err := s.ListByUser(u.ID, NotificationFilter{}, PageRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Data) != 3 {
		t.Fatalf("got %d rows, want 3", len(page.Data))
	}
	if page.Data[0].ID != lastID {
		t.Errorf("first row = %d, want the most recent %d", page.Data[0].ID, lastID)
	}
}

func TestNotificationUnreadFlow(t *testing.T) {
	db := newTestDB(t)
	s := NewNotificationStore(db)
	u := createTestUser(t, db)

	n1, _ := s.Create(u.ID, "booking", "one", "")
	s.Create(u.ID, "booking", "two", "")

	count, err := s.CountUnread(u.ID)
	if err != nil {
		t.Fatalf("count unread: %v", err)
	}
	if count != 2 {
		t.Errorf("unread = %d, want 2", count)
	}

	read, err := s.MarkRead(n1.ID)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if read.ReadAt == nil {
		t.Fatal("read_at should be set")
	}
	firstReadAt := *read.ReadAt

	// Re-marking is a no-op that returns the row with its original stamp.
	again, err := s.MarkRead(n1.ID)
	if err != nil {
		t.Fatalf("repeat mark read: %v", err)
	}
	if again.ReadAt == nil || !again.ReadAt.Equal(firstReadAt) {
		t.Error("repeat mark read should not move read_at")
	}

	count, err = s.CountUnread(u.ID)
	if err != nil {
		t.Fatalf("count unread: %v", err)
	}
	if count != 1 {
		t.Errorf("unread = %d, want 1", count)
	}

	unread, err := s.ListByUser(u.ID, NotificationFilter{UnreadOnly: true}, PageRequest{})
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread.Data) != 1 || unread.Data[0].Title != "two" {
		t.Errorf("unread filter returned %d rows", len(unread.Data))
	}
}

func TestMarkAllRead(t *testing.T) {
	db := newTestDB(t)
	s := NewNotificationStore(db)
	u := createTestUser(t, db)

	for i := 0; i < 3; i++ {
		s.Create(u.ID, "booking", "n", "")
	}

	n, err := s.MarkAllRead(u.ID)
	if err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if n != 3 {
		t.Errorf("updated = %d, want 3", n)
	}

	// Second pass has nothing left to change.
	n, err = s.MarkAllRead(u.ID)
	if err != nil {
		t.Fatalf("repeat mark all read: %v", err)
	}
	if n != 0 {
		t.Errorf("updated = %d, want 0", n)
	}
}

func TestDeleteAllForUserScopesByUser(t *testing.T) {
	db := newTestDB(t)
	s := NewNotificationStore(db)
	u := createTestUser(t, db)
	other, err := NewUserStore(db).Create("other@example.com", "Other", "hash", "staff")
	if err != nil {
		t.Fatalf("create other user: %v", err)
	}

	s.Create(u.ID, "booking", "mine", "")
	s.Create(other.ID, "booking", "theirs", "")

	n, err := s.DeleteAllForUser(u.ID)
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}

	theirs, err := s.ListByUser(other.ID, NotificationFilter{}, PageRequest{})
	if err != nil {
		t.Fatalf("list other: %v", err)
	}
	if len(theirs.Data) != 1 {
		t.Errorf("other user's notifications = %d, want 1", len(theirs.Data))
	}
}
