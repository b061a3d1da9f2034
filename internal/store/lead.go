package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hazelwick/spotless/internal/apperr"
	"github.com/hazelwick/spotless/internal/model"
)

type LeadStore struct {
	db *DB
}

func NewLeadStore(db *DB) *LeadStore {
	return &LeadStore{db: db}
}

func scanLead(scanner interface{ Scan(...any) error }) (*model.Lead, error) {
	var l model.Lead
	var deletedAt sql.NullTime

	err := scanner.Scan(
		&l.ID, &l.Name, &l.Email, &l.Phone, &l.Message, &l.Source, &l.Status,
		&l.CreatedAt, &l.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		l.DeletedAt = &deletedAt.Time
	}
	return &l, nil
}

const leadCols = `id, name, email, phone, message, source, status, created_at, updated_at, deleted_at`

type LeadFilter struct {
	Status string
	Search string
}

func (s *LeadStore) List(f LeadFilter, req PageRequest) (Page[model.Lead], error) {
	limit := req.effective(DefaultPageLimit)
	w := NewWhere()
	if f.Status != "" {
		w.Eq("status", f.Status)
	}
	if f.Search != "" {
		w.Or("%"+f.Search+"%", "name", "email")
	}
	if req.Cursor != nil {
		cur, err := s.getAny(*req.Cursor)
		if err != nil {
			return Page[model.Lead]{}, err
		}
		if cur != nil {
			w.After("created_at", cur.CreatedAt, cur.ID)
		}
	}

	rows, err := s.db.Select("leads", leadCols, w, fmt.Sprintf("ORDER BY created_at ASC, id ASC LIMIT %d", limit+1))
	if err != nil {
		return Page[model.Lead]{}, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return Page[model.Lead]{}, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, *l)
	}
	if err := rows.Err(); err != nil {
		return Page[model.Lead]{}, err
	}
	return newPage(leads, req, limit, func(l model.Lead) int64 { return l.ID }), nil
}

func (s *LeadStore) GetByID(id int64) (*model.Lead, error) {
	row := s.db.SelectRow("leads", leadCols, NewWhere().Eq("id", id))
	l, err := scanLead(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return l, nil
}

func (s *LeadStore) getAny(id int64) (*model.Lead, error) {
	row := s.db.SelectRowAny("leads", leadCols, NewWhere().Eq("id", id))
	l, err := scanLead(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lead any: %w", err)
	}
	return l, nil
}

func (s *LeadStore) Create(name, email, phone, message, source string) (*model.Lead, error) {
	if source == "" {
		source = "website"
	}
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`INSERT INTO leads (name, email, phone, message, source, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		name, email, phone, message, source, model.LeadNew, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert lead: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *LeadStore) UpdateStatus(id int64, status string) (*model.Lead, error) {
	result, err := s.db.Exec(
		`UPDATE leads SET status = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update lead status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("update lead %d: %w", id, apperr.ErrNotFound)
	}
	return s.GetByID(id)
}

func (s *LeadStore) Delete(id int64) error {
	n, err := s.db.SoftDelete("leads", NewWhere().Eq("id", id))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("delete lead %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (s *LeadStore) Restore(id int64) (*model.Lead, error) {
	n, err := s.db.Restore("leads", NewWhere().Eq("id", id))
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("restore lead %d: %w", id, apperr.ErrNotFound)
	}
	return s.GetByID(id)
}
