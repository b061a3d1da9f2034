package model

import "time"

type Property struct {
	ID          int64      `json:"id"`
	CustomerID  int64      `json:"customer_id"`
	Address     string     `json:"address"`
	City        string     `json:"city"`
	PostalCode  string     `json:"postal_code"`
	Bedrooms    int        `json:"bedrooms"`
	Bathrooms   int        `json:"bathrooms"`
	SquareFeet  int        `json:"square_feet"`
	AccessNotes string     `json:"access_notes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}
