package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hazelwick/spotless/internal/apperr"
	"github.com/hazelwick/spotless/internal/model"
)

type UserStore struct {
	db *DB
}

func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var deletedAt sql.NullTime

	err := scanner.Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role,
		&u.CreatedAt, &u.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		u.DeletedAt = &deletedAt.Time
	}
	return &u, nil
}

const userCols = `id, email, name, password_hash, role, created_at, updated_at, deleted_at`

type UserFilter struct {
	Role   string
	Search string
}

func (s *UserStore) List(f UserFilter, req PageRequest) (Page[model.User], error) {
	limit := req.effective(DefaultPageLimit)
	w := NewWhere()
	if f.Role != "" {
		w.Eq("role", f.Role)
	}
	if f.Search != "" {
		w.Or("%"+f.Search+"%", "name", "email")
	}
	if req.Cursor != nil {
		cur, err := s.getAny(*req.Cursor)
		if err != nil {
			return Page[model.User]{}, err
		}
		if cur != nil {
			w.After("created_at", cur.CreatedAt, cur.ID)
		}
	}

	rows, err := s.db.Select("users", userCols, w, fmt.Sprintf("ORDER BY created_at ASC, id ASC LIMIT %d", limit+1))
	if err != nil {
		return Page[model.User]{}, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return Page[model.User]{}, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return Page[model.User]{}, err
	}
	return newPage(users, req, limit, func(u model.User) int64 { return u.ID }), nil
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.SelectRow("users", userCols, NewWhere().Eq("id", id))
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.SelectRow("users", userCols, NewWhere().Eq("email", email))
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) getAny(id int64) (*model.User, error) {
	row := s.db.SelectRowAny("users", userCols, NewWhere().Eq("id", id))
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user any: %w", err)
	}
	return u, nil
}

func (s *UserStore) Create(email, name, passwordHash, role string) (*model.User, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`INSERT INTO users (email, name, password_hash, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		email, name, passwordHash, role, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) Update(id int64, email, name, role string) (*model.User, error) {
	result, err := s.db.Exec(
		`UPDATE users SET email = ?, name = ?, role = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		email, name, role, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("update user %d: %w", id, apperr.ErrNotFound)
	}
	return s.GetByID(id)
}

// UpdatePassword replaces the stored password hash. Callers are expected
// to revoke the user's sessions afterwards.
func (s *UserStore) UpdatePassword(id int64, passwordHash string) error {
	result, err := s.db.Exec(
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update password for user %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (s *UserStore) Delete(id int64) error {
	n, err := s.db.SoftDelete("users", NewWhere().Eq("id", id))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("delete user %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (s *UserStore) Restore(id int64) (*model.User, error) {
	n, err := s.db.Restore("users", NewWhere().Eq("id", id))
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("restore user %d: %w", id, apperr.ErrNotFound)
	}
	return s.GetByID(id)
}
