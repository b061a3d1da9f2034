package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hazelwick/spotless/internal/apperr"
	"github.com/hazelwick/spotless/internal/model"
)

type NotificationStore struct {
	db *DB
}

func NewNotificationStore(db *DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func scanNotification(scanner interface{ Scan(...any) error }) (*model.Notification, error) {
	var n model.Notification
	var readAt, deletedAt sql.NullTime

	err := scanner.Scan(
		&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &readAt,
		&n.CreatedAt, &n.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}
	if readAt.Valid {
		n.ReadAt = &readAt.Time
	}
	if deletedAt.Valid {
		n.DeletedAt = &deletedAt.Time
	}
	return &n, nil
}

const notificationCols = `id, user_id, kind, title, body, read_at, created_at, updated_at, deleted_at`

type NotificationFilter struct {
	UnreadOnly bool
}

// ListByUser pages a user's notifications newest-first.
func (s *NotificationStore) ListByUser(userID int64, f NotificationFilter, req PageRequest) (Page[model.Notification], error) {
	limit := req.effective(DefaultPageLimit)
	w := NewWhere().Eq("user_id", userID)
	if f.UnreadOnly {
		w.Null("read_at")
	}
	if req.Cursor != nil {
		cur, err := s.getAny(*req.Cursor)
		if err != nil {
			return Page[model.Notification]{}, err
		}
		if cur != nil {
			w.Before("created_at", cur.CreatedAt, cur.ID)
		}
	}

	rows, err := s.db.Select("notifications", notificationCols, w, fmt.Sprintf("ORDER BY created_at DESC, id DESC LIMIT %d", limit+1))
	if err != nil {
		return Page[model.Notification]{}, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return Page[model.Notification]{}, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	if err := rows.Err(); err != nil {
		return Page[model.Notification]{}, err
	}
	return newPage(notifications, req, limit, func(n model.Notification) int64 { return n.ID }), nil
}

func (s *NotificationStore) CountUnread(userID int64) (int64, error) {
	return s.db.CountRows("notifications", NewWhere().Eq("user_id", userID).Null("read_at"))
}

func (s *NotificationStore) GetByID(id int64) (*model.Notification, error) {
	row := s.db.SelectRow("notifications", notificationCols, NewWhere().Eq("id", id))
	n, err := scanNotification(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

func (s *NotificationStore) getAny(id int64) (*model.Notification, error) {
	row := s.db.SelectRowAny("notifications", notificationCols, NewWhere().Eq("id", id))
	n, err := scanNotification(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notification any: %w", err)
	}
	return n, nil
}

func (s *NotificationStore) Create(userID int64, kind, title, body string) (*model.Notification, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`INSERT INTO notifications (user_id, kind, title, body, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, kind, title, body, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// MarkRead stamps read_at on a single notification. Re-marking an already
// read notification is a no-op that still returns the row.
func (s *NotificationStore) MarkRead(id int64) (*model.Notification, error) {
	result, err := s.db.Exec(
		`UPDATE notifications SET read_at = ?, updated_at = ? WHERE id = ? AND read_at IS NULL AND deleted_at IS NULL`,
		time.Now().UTC(), time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	if _, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	n, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, fmt.Errorf("mark notification %d read: %w", id, apperr.ErrNotFound)
	}
	return n, nil
}

// MarkAllRead stamps read_at on every unread notification for a user and
// returns how many changed.
func (s *NotificationStore) MarkAllRead(userID int64) (int64, error) {
	result, err := s.db.Exec(
		`UPDATE notifications SET read_at = ?, updated_at = ? WHERE user_id = ? AND read_at IS NULL AND deleted_at IS NULL`,
		time.Now().UTC(), time.Now().UTC(), userID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return result.RowsAffected()
}

func (s *NotificationStore) Delete(id int64) error {
	n, err := s.db.SoftDelete("notifications", NewWhere().Eq("id", id))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("delete notification %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// DeleteAllForUser soft-deletes every notification a user has.
func (s *NotificationStore) DeleteAllForUser(userID int64) (int64, error) {
	return s.db.SoftDelete("notifications", NewWhere().Eq("user_id", userID))
}
