package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hazelwick/spotless/internal/model"
)

type BookingSummaryStore struct {
	db *DB
}

func NewBookingSummaryStore(db *DB) *BookingSummaryStore {
	return &BookingSummaryStore{db: db}
}

func scanBookingSummary(scanner interface{ Scan(...any) error }) (*model.BookingSummary, error) {
	var bs model.BookingSummary
	var deletedAt sql.NullTime

	err := scanner.Scan(
		&bs.ID, &bs.BookingID, &bs.Summary, &bs.Generator,
		&bs.CreatedAt, &bs.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		bs.DeletedAt = &deletedAt.Time
	}
	return &bs, nil
}

const bookingSummaryCols = `id, booking_id, summary, generator, created_at, updated_at, deleted_at`

// Upsert writes the summary for a booking, overwriting any previous one in
// place. The booking_id uniqueness constraint guarantees at most one row
// per booking regardless of how often regeneration runs.
func (s *BookingSummaryStore) Upsert(bookingID int64, summary, generator string) (*model.BookingSummary, error) {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO booking_summaries (booking_id, summary, generator, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(booking_id) DO UPDATE SET summary = excluded.summary, generator = excluded.generator, updated_at = excluded.updated_at, deleted_at = NULL`,
		bookingID, summary, generator, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert booking summary: %w", err)
	}
	return s.GetByBookingID(bookingID)
}

func (s *BookingSummaryStore) GetByBookingID(bookingID int64) (*model.BookingSummary, error) {
	row := s.db.SelectRow("booking_summaries", bookingSummaryCols, NewWhere().Eq("booking_id", bookingID))
	bs, err := scanBookingSummary(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get booking summary: %w", err)
	}
	return bs, nil
}

func (s *BookingSummaryStore) Delete(bookingID int64) (int64, error) {
	return s.db.SoftDelete("booking_summaries", NewWhere().Eq("booking_id", bookingID))
}
