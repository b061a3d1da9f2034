package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hazelwick/spotless/internal/apperr"
	"github.com/hazelwick/spotless/internal/model"
)

type PropertyStore struct {
	db *DB
}

func NewPropertyStore(db *DB) *PropertyStore {
	return &PropertyStore{db: db}
}

func scanProperty(scanner interface{ Scan(...any) error }) (*model.Property, error) {
	var p model.Property
	var deletedAt sql.NullTime

	err := scanner.Scan(
		&p.ID, &p.CustomerID, &p.Address, &p.City, &p.PostalCode,
		&p.Bedrooms, &p.Bathrooms, &p.SquareFeet, &p.AccessNotes,
		&p.CreatedAt, &p.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		p.DeletedAt = &deletedAt.Time
	}
	return &p, nil
}

const propertyCols = `id, customer_id, address, city, postal_code, bedrooms, bathrooms, square_feet, access_notes, created_at, updated_at, deleted_at`

type PropertyFilter struct {
	CustomerID int64
}

func (s *PropertyStore) List(f PropertyFilter, req PageRequest) (Page[model.Property], error) {
	limit := req.effective(DefaultPageLimit)
	w := NewWhere()
	if f.CustomerID != 0 {
		w.Eq("customer_id", f.CustomerID)
	}
	if req.Cursor != nil {
		cur, err := s.getAny(*req.Cursor)
		if err != nil {
			return Page[model.Property]{}, err
		}
		if cur != nil {
			w.After("created_at", cur.CreatedAt, cur.ID)
		}
	}

	rows, err := s.db.Select("properties", propertyCols, w, fmt.Sprintf("ORDER BY created_at ASC, id ASC LIMIT %d", limit+1))
	if err != nil {
		return Page[model.Property]{}, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	var properties []model.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return Page[model.Property]{}, fmt.Errorf("scan property: %w", err)
		}
		properties = append(properties, *p)
	}
	if err := rows.Err(); err != nil {
		return Page[model.Property]{}, err
	}
	return newPage(properties, req, limit, func(p model.Property) int64 { return p.ID }), nil
}

// ListByCustomer returns every property a customer owns, unpaginated.
// The portal shows them all at once.
func (s *PropertyStore) ListByCustomer(customerID int64) ([]model.Property, error) {
	rows, err := s.db.Select("properties", propertyCols, NewWhere().Eq("customer_id", customerID), "ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("list properties by customer: %w", err)
	}
	defer rows.Close()

	var properties []model.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		properties = append(properties, *p)
	}
	return properties, rows.Err()
}

func (s *PropertyStore) GetByID(id int64) (*model.Property, error) {
	row := s.db.SelectRow("properties", propertyCols, NewWhere().Eq("id", id))
	p, err := scanProperty(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get property: %w", err)
	}
	return p, nil
}

func (s *PropertyStore) getAny(id int64) (*model.Property, error) {
	row := s.db.SelectRowAny("properties", propertyCols, NewWhere().Eq("id", id))
	p, err := scanProperty(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get property any: %w", err)
	}
	return p, nil
}

func (s *PropertyStore) Create(customerID int64, address, city, postalCode string, bedrooms, bathrooms, squareFeet int, accessNotes string) (*model.Property, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`INSERT INTO properties (customer_id, address, city, postal_code, bedrooms, bathrooms, square_feet, access_notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		customerID, address, city, postalCode, bedrooms, bathrooms, squareFeet, accessNotes, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert property: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *PropertyStore) Update(id int64, address, city, postalCode string, bedrooms, bathrooms, squareFeet int, accessNotes string) (*model.Property, error) {
	result, err := s.db.Exec(
		`UPDATE properties SET address = ?, city = ?, postal_code = ?, bedrooms = ?, bathrooms = ?, square_feet = ?, access_notes = ?, updated_at = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		address, city, postalCode, bedrooms, bathrooms, squareFeet, accessNotes, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update property: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("update property %d: %w", id, apperr.ErrNotFound)
	}
	return s.GetByID(id)
}

func (s *PropertyStore) Delete(id int64) error {
	n, err := s.db.SoftDelete("properties", NewWhere().Eq("id", id))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("delete property %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (s *PropertyStore) Restore(id int64) (*model.Property, error) {
	n, err := s.db.Restore("properties", NewWhere().Eq("id", id))
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("restore property %d: %w", id, apperr.ErrNotFound)
	}
	return s.GetByID(id)
}
