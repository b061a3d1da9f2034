package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hazelwick/spotless/internal/apperr"
	"github.com/hazelwick/spotless/internal/model"
)

type CustomerStore struct {
	db *DB
}

func NewCustomerStore(db *DB) *CustomerStore {
	return &CustomerStore{db: db}
}

func scanCustomer(scanner interface{ Scan(...any) error }) (*model.Customer, error) {
	var c model.Customer
	var deletedAt sql.NullTime

	err := scanner.Scan(
		&c.ID, &c.Email, &c.Name, &c.Phone, &c.Notes,
		&c.CreatedAt, &c.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		c.DeletedAt = &deletedAt.Time
	}
	return &c, nil
}

const customerCols = `id, email, name, phone, notes, created_at, updated_at, deleted_at`

// CustomerFilter holds the optional list filters. Zero values mean the
// filter is absent and contributes nothing to the query.
type CustomerFilter struct {
	Search string
}

func (s *CustomerStore) List(f CustomerFilter, req PageRequest) (Page[model.Customer], error) {
	limit := req.effective(DefaultPageLimit)
	w := NewWhere()
	if f.Search != "" {
		w.Or("%"+f.Search+"%", "name", "email")
	}
	if req.Cursor != nil {
		cur, err := s.getAny(*req.Cursor)
		if err != nil {
			return Page[model.Customer]{}, err
		}
		if cur != nil {
			w.After("created_at", cur.CreatedAt, cur.ID)
		}
	}

	rows, err := s.db.Select("customers", customerCols, w, fmt.Sprintf("ORDER BY created_at ASC, id ASC LIMIT %d", limit+1))
	if err != nil {
		return Page[model.Customer]{}, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return Page[model.Customer]{}, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return Page[model.Customer]{}, err
	}
	return newPage(customers, req, limit, func(c model.Customer) int64 { return c.ID }), nil
}

func (s *CustomerStore) GetByID(id int64) (*model.Customer, error) {
	row := s.db.SelectRow("customers", customerCols, NewWhere().Eq("id", id))
	c, err := scanCustomer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (s *CustomerStore) GetByEmail(email string) (*model.Customer, error) {
	row := s.db.SelectRow("customers", customerCols, NewWhere().Eq("email", email))
	c, err := scanCustomer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get customer by email: %w", err)
	}
	return c, nil
}

// getAny looks up a customer regardless of deletion state. Cursor
// resolution needs it so an iteration survives a mid-flight delete.
func (s *CustomerStore) getAny(id int64) (*model.Customer, error) {
	row := s.db.SelectRowAny("customers", customerCols, NewWhere().Eq("id", id))
	c, err := scanCustomer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get customer any: %w", err)
	}
	return c, nil
}

func (s *CustomerStore) Create(email, name, phone, notes string) (*model.Customer, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`INSERT INTO customers (email, name, phone, notes, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		email, name, phone, notes, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert customer: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *CustomerStore) Update(id int64, email, name, phone, notes string) (*model.Customer, error) {
	result, err := s.db.Exec(
		`UPDATE customers SET email = ?, name = ?, phone = ?, notes = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		email, name, phone, notes, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("update customer %d: %w", id, apperr.ErrNotFound)
	}
	return s.GetByID(id)
}

func (s *CustomerStore) Delete(id int64) error {
	n, err := s.db.SoftDelete("customers", NewWhere().Eq("id", id))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("delete customer %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (s *CustomerStore) Restore(id int64) (*model.Customer, error) {
	n, err := s.db.Restore("customers", NewWhere().Eq("id", id))
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("restore customer %d: %w", id, apperr.ErrNotFound)
	}
	return s.GetByID(id)
}
