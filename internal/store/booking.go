package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hazelwick/spotless/internal/apperr"
	"github.com/hazelwick/spotless/internal/model"
)

type BookingStore struct {
	db *DB
}

func NewBookingStore(db *DB) *BookingStore {
	return &BookingStore{db: db}
}

func scanBooking(scanner interface{ Scan(...any) error }) (*model.Booking, error) {
	var b model.Booking
	var assignedUserID sql.NullInt64
	var deletedAt sql.NullTime

	err := scanner.Scan(
		&b.ID, &b.CustomerID, &b.PropertyID, &b.ServiceID, &assignedUserID,
		&b.Status, &b.ScheduledAt, &b.PriceCents, &b.Notes,
		&b.CreatedAt, &b.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}
	if assignedUserID.Valid {
		b.AssignedUserID = &assignedUserID.Int64
	}
	if deletedAt.Valid {
		b.DeletedAt = &deletedAt.Time
	}
	return &b, nil
}

const bookingCols = `id, customer_id, property_id, service_id, assigned_user_id, status, scheduled_at, price_cents, notes, created_at, updated_at, deleted_at`

// BookingFilter holds the optional list filters. Each filter is included
// in the query only when set; supplying none leaves the caller's
// where-clause empty.
type BookingFilter struct {
	Status         string
	CustomerID     int64
	PropertyID     int64
	ServiceID      int64
	AssignedUserID int64
	From           *time.Time
	To             *time.Time
}

func (f BookingFilter) where() *Where {
	w := NewWhere()
	if f.Status != "" {
		w.Eq("status", f.Status)
	}
	if f.CustomerID != 0 {
		w.Eq("customer_id", f.CustomerID)
	}
	if f.PropertyID != 0 {
		w.Eq("property_id", f.PropertyID)
	}
	if f.ServiceID != 0 {
		w.Eq("service_id", f.ServiceID)
	}
	if f.AssignedUserID != 0 {
		w.Eq("assigned_user_id", f.AssignedUserID)
	}
	if f.From != nil {
		w.Gte("scheduled_at", f.From.UTC())
	}
	if f.To != nil {
		w.Lt("scheduled_at", f.To.UTC())
	}
	return w
}

// List pages bookings newest-first by scheduled time.
func (s *BookingStore) List(f BookingFilter, req PageRequest) (Page[model.Booking], error) {
	limit := req.effective(DefaultPageLimit)
	w := f.where()
	if req.Cursor != nil {
		cur, err := s.getAny(*req.Cursor)
		if err != nil {
			return Page[model.Booking]{}, err
		}
		if cur != nil {
			w.Before("scheduled_at", cur.ScheduledAt, cur.ID)
		}
	}

	rows, err := s.db.Select("bookings", bookingCols, w, fmt.Sprintf("ORDER BY scheduled_at DESC, id DESC LIMIT %d", limit+1))
	if err != nil {
		return Page[model.Booking]{}, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return Page[model.Booking]{}, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return Page[model.Booking]{}, err
	}
	return newPage(bookings, req, limit, func(b model.Booking) int64 { return b.ID }), nil
}

func (s *BookingStore) Count(f BookingFilter) (int64, error) {
	return s.db.CountRows("bookings", f.where())
}

func (s *BookingStore) GetByID(id int64) (*model.Booking, error) {
	row := s.db.SelectRow("bookings", bookingCols, NewWhere().Eq("id", id))
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func (s *BookingStore) getAny(id int64) (*model.Booking, error) {
	row := s.db.SelectRowAny("bookings", bookingCols, NewWhere().Eq("id", id))
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get booking any: %w", err)
	}
	return b, nil
}

type BookingInput struct {
	CustomerID     int64
	PropertyID     int64
	ServiceID      int64
	AssignedUserID *int64
	Status         string
	ScheduledAt    time.Time
	PriceCents     int64
	Notes          string
}

func (s *BookingStore) Create(in BookingInput) (*model.Booking, error) {
	if in.Status == "" {
		in.Status = model.BookingPending
	}
	var assigned sql.NullInt64
	if in.AssignedUserID != nil {
		assigned = sql.NullInt64{Int64: *in.AssignedUserID, Valid: true}
	}
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`INSERT INTO bookings (customer_id, property_id, service_id, assigned_user_id, status, scheduled_at, price_cents, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.CustomerID, in.PropertyID, in.ServiceID, assigned, in.Status, in.ScheduledAt.UTC(), in.PriceCents, in.Notes, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *BookingStore) Update(id int64, in BookingInput) (*model.Booking, error) {
	var assigned sql.NullInt64
	if in.AssignedUserID != nil {
		assigned = sql.NullInt64{Int64: *in.AssignedUserID, Valid: true}
	}
	result, err := s.db.Exec(
		`UPDATE bookings SET property_id = ?, service_id = ?, assigned_user_id = ?, status = ?, scheduled_at = ?, price_cents = ?, notes = ?, updated_at = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		in.PropertyID, in.ServiceID, assigned, in.Status, in.ScheduledAt.UTC(), in.PriceCents, in.Notes, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("update booking %d: %w", id, apperr.ErrNotFound)
	}
	return s.GetByID(id)
}

func (s *BookingStore) UpdateStatus(id int64, status string) (*model.Booking, error) {
	result, err := s.db.Exec(
		`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("update booking %d status: %w", id, apperr.ErrNotFound)
	}
	return s.GetByID(id)
}

func (s *BookingStore) Delete(id int64) error {
	n, err := s.db.SoftDelete("bookings", NewWhere().Eq("id", id))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("delete booking %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// DeleteByCustomer soft-deletes every remaining booking for a customer.
// Used when a customer is offboarded.
func (s *BookingStore) DeleteByCustomer(customerID int64) (int64, error) {
	return s.db.SoftDelete("bookings", NewWhere().Eq("customer_id", customerID))
}

func (s *BookingStore) Restore(id int64) (*model.Booking, error) {
	n, err := s.db.Restore("bookings", NewWhere().Eq("id", id))
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("restore booking %d: %w", id, apperr.ErrNotFound)
	}
	return s.GetByID(id)
}
