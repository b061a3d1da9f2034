package model

import "time"

const (
	BookingPending    = "pending"
	BookingConfirmed  = "confirmed"
	BookingInProgress = "in_progress"
	BookingCompleted  = "completed"
	BookingCancelled  = "cancelled"
)

type Booking struct {
	ID             int64      `json:"id"`
	CustomerID     int64      `json:"customer_id"`
	PropertyID     int64      `json:"property_id"`
	ServiceID      int64      `json:"service_id"`
	AssignedUserID *int64     `json:"assigned_user_id"`
	Status         string     `json:"status"`
	ScheduledAt    time.Time  `json:"scheduled_at"`
	PriceCents     int64      `json:"price_cents"`
	Notes          string     `json:"notes"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// BookingSummary is the generated write-up for a completed booking.
// At most one row exists per booking; regeneration overwrites in place.
type BookingSummary struct {
	ID        int64      `json:"id"`
	BookingID int64      `json:"booking_id"`
	Summary   string     `json:"summary"`
	Generator string     `json:"generator"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}
