package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hazelwick/spotless/internal/model"
)

// SessionTTL is how long a panel session stays valid without revocation.
const SessionTTL = 30 * 24 * time.Hour

type SessionStore struct {
	db *DB
}

func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

func scanSession(scanner interface{ Scan(...any) error }) (*model.Session, error) {
	var s model.Session
	var revokedAt sql.NullTime

	err := scanner.Scan(
		&s.ID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &s.UserAgent, &s.IPAddress,
		&revokedAt, &s.RevocationReason, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if revokedAt.Valid {
		s.RevokedAt = &revokedAt.Time
	}
	return &s, nil
}

const sessionCols = `id, user_id, token_hash, expires_at, user_agent, ip_address, revoked_at, revocation_reason, created_at`

// Create inserts a session for an already-hashed bearer token.
func (s *SessionStore) Create(userID int64, tokenHash string, expiresAt time.Time, userAgent, ipAddress string) (*model.Session, error) {
	result, err := s.db.Exec(
		`INSERT INTO sessions (user_id, token_hash, expires_at, user_agent, ip_address, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, tokenHash, expiresAt.UTC(), userAgent, ipAddress, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

// FindValidByHash returns the session for the given token hash only while
// it is unrevoked and unexpired; otherwise nil. A nil result is the normal
// unauthenticated signal, never an error.
func (s *SessionStore) FindValidByHash(tokenHash string) (*model.Session, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionCols+` FROM sessions WHERE token_hash = ? AND revoked_at IS NULL AND expires_at > ?`,
		tokenHash, time.Now().UTC(),
	)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find session by hash: %w", err)
	}
	return sess, nil
}

// RevokeByID stamps the revocation fields on a single session. Revoking an
// already-revoked session is a no-op.
func (s *SessionStore) RevokeByID(id int64, reason string) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET revoked_at = ?, revocation_reason = ? WHERE id = ? AND revoked_at IS NULL`,
		time.Now().UTC(), reason, id,
	)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *SessionStore) RevokeByTokenHash(tokenHash, reason string) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET revoked_at = ?, revocation_reason = ? WHERE token_hash = ? AND revoked_at IS NULL`,
		time.Now().UTC(), reason, tokenHash,
	)
	if err != nil {
		return fmt.Errorf("revoke session by hash: %w", err)
	}
	return nil
}

// RevokeAllForUser revokes every live session a user has and returns how
// many were affected. Already-revoked rows are untouched.
func (s *SessionStore) RevokeAllForUser(userID int64, reason string) (int64, error) {
	result, err := s.db.Exec(
		`UPDATE sessions SET revoked_at = ?, revocation_reason = ? WHERE user_id = ? AND revoked_at IS NULL`,
		time.Now().UTC(), reason, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions for user: %w", err)
	}
	return result.RowsAffected()
}

// DeleteExpired physically removes sessions past their expiry. Revocation
// is the lifecycle mechanism; this is storage hygiene for dead rows.
func (s *SessionStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}
