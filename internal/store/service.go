package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hazelwick/spotless/internal/apperr"
	"github.com/hazelwick/spotless/internal/model"
)

type ServiceStore struct {
	db *DB
}

func NewServiceStore(db *DB) *ServiceStore {
	return &ServiceStore{db: db}
}

func scanService(scanner interface{ Scan(...any) error }) (*model.Service, error) {
	var v model.Service
	var active int
	var deletedAt sql.NullTime

	err := scanner.Scan(
		&v.ID, &v.Name, &v.Description, &v.BasePriceCents, &v.DurationMinutes,
		&active, &v.CreatedAt, &v.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}
	v.Active = active != 0
	if deletedAt.Valid {
		v.DeletedAt = &deletedAt.Time
	}
	return &v, nil
}

const serviceCols = `id, name, description, base_price_cents, duration_minutes, active, created_at, updated_at, deleted_at`

type ServiceFilter struct {
	ActiveOnly bool
}

func (s *ServiceStore) List(f ServiceFilter, req PageRequest) (Page[model.Service], error) {
	limit := req.effective(50)
	w := NewWhere()
	if f.ActiveOnly {
		w.Eq("active", 1)
	}
	if req.Cursor != nil {
		cur, err := s.getAny(*req.Cursor)
		if err != nil {
			return Page[model.Service]{}, err
		}
		if cur != nil {
			w.After("created_at", cur.CreatedAt, cur.ID)
		}
	}

	rows, err := s.db.Select("services", serviceCols, w, fmt.Sprintf("ORDER BY created_at ASC, id ASC LIMIT %d", limit+1))
	if err != nil {
		return Page[model.Service]{}, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var services []model.Service
	for rows.Next() {
		v, err := scanService(rows)
		if err != nil {
			return Page[model.Service]{}, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, *v)
	}
	if err := rows.Err(); err != nil {
		return Page[model.Service]{}, err
	}
	return newPage(services, req, limit, func(v model.Service) int64 { return v.ID }), nil
}

func (s *ServiceStore) GetByID(id int64) (*model.Service, error) {
	row := s.db.SelectRow("services", serviceCols, NewWhere().Eq("id", id))
	v, err := scanService(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get service: %w", err)
	}
	return v, nil
}

func (s *ServiceStore) getAny(id int64) (*model.Service, error) {
	row := s.db.SelectRowAny("services", serviceCols, NewWhere().Eq("id", id))
	v, err := scanService(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get service any: %w", err)
	}
	return v, nil
}

func (s *ServiceStore) Create(name, description string, basePriceCents int64, durationMinutes int, active bool) (*model.Service, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`INSERT INTO services (name, description, base_price_cents, duration_minutes, active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		name, description, basePriceCents, durationMinutes, boolToInt(active), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert service: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ServiceStore) Update(id int64, name, description string, basePriceCents int64, durationMinutes int, active bool) (*model.Service, error) {
	result, err := s.db.Exec(
		`UPDATE services SET name = ?, description = ?, base_price_cents = ?, duration_minutes = ?, active = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		name, description, basePriceCents, durationMinutes, boolToInt(active), time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update service: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("update service %d: %w", id, apperr.ErrNotFound)
	}
	return s.GetByID(id)
}

func (s *ServiceStore) Delete(id int64) error {
	n, err := s.db.SoftDelete("services", NewWhere().Eq("id", id))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("delete service %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (s *ServiceStore) Restore(id int64) (*model.Service, error) {
	n, err := s.db.Restore("services", NewWhere().Eq("id", id))
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("restore service %d: %w", id, apperr.ErrNotFound)
	}
	return s.GetByID(id)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
