package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hazelwick/spotless/internal/model"
)

// MagicLinkTTL bounds how long a link stays usable after it is mailed.
const MagicLinkTTL = 15 * time.Minute

type MagicLinkStore struct {
	db *DB
}

func NewMagicLinkStore(db *DB) *MagicLinkStore {
	return &MagicLinkStore{db: db}
}

func scanMagicLink(scanner interface{ Scan(...any) error }) (*model.MagicLinkToken, error) {
	var m model.MagicLinkToken
	var consumedAt sql.NullTime

	err := scanner.Scan(&m.ID, &m.Email, &m.TokenHash, &m.ExpiresAt, &consumedAt, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	if consumedAt.Valid {
		m.ConsumedAt = &consumedAt.Time
	}
	return &m, nil
}

const magicLinkCols = `id, email, token_hash, expires_at, consumed_at, created_at`

// Create inserts a fresh token row. Stale tokens for the same email are
// invalidated first so an old mail cannot be replayed after a new request.
func (s *MagicLinkStore) Create(email, tokenHash string, expiresAt time.Time) (*model.MagicLinkToken, error) {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`UPDATE magic_link_tokens SET consumed_at = ? WHERE email = ? AND consumed_at IS NULL`,
		now, email,
	)
	if err != nil {
		return nil, fmt.Errorf("invalidate previous tokens: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO magic_link_tokens (email, token_hash, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		email, tokenHash, expiresAt.UTC(), now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert magic link token: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+magicLinkCols+` FROM magic_link_tokens WHERE id = ?`, id)
	return scanMagicLink(row)
}

// FindValidByHash returns the token only while it is unconsumed and
// unexpired; otherwise nil, never an error.
func (s *MagicLinkStore) FindValidByHash(tokenHash string) (*model.MagicLinkToken, error) {
	row := s.db.QueryRow(
		`SELECT `+magicLinkCols+` FROM magic_link_tokens WHERE token_hash = ? AND consumed_at IS NULL AND expires_at > ?`,
		tokenHash, time.Now().UTC(),
	)
	m, err := scanMagicLink(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find magic link by hash: %w", err)
	}
	return m, nil
}

// Consume stamps consumed_at and reports whether this call won the row.
// The conditional update makes consumption atomic: of two concurrent
// verifications, exactly one sees true.
func (s *MagicLinkStore) Consume(id int64) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE magic_link_tokens SET consumed_at = ? WHERE id = ? AND consumed_at IS NULL`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("consume magic link: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// InvalidateExpiredForEmail marks expired-but-unconsumed tokens consumed
// so clock skew cannot resurrect them. Still-valid tokens are untouched.
func (s *MagicLinkStore) InvalidateExpiredForEmail(email string) (int64, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`UPDATE magic_link_tokens SET consumed_at = ? WHERE email = ? AND consumed_at IS NULL AND expires_at <= ?`,
		now, email, now,
	)
	if err != nil {
		return 0, fmt.Errorf("invalidate expired tokens: %w", err)
	}
	return result.RowsAffected()
}

func (s *MagicLinkStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM magic_link_tokens WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired magic link tokens: %w", err)
	}
	return result.RowsAffected()
}
