package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hazelwick/spotless/internal/model"
)

// PortalSessionTTL is shorter than the panel TTL; portal access is
// re-established cheaply via a fresh magic link.
const PortalSessionTTL = 7 * 24 * time.Hour

type PortalSessionStore struct {
	db *DB
}

func NewPortalSessionStore(db *DB) *PortalSessionStore {
	return &PortalSessionStore{db: db}
}

func scanPortalSession(scanner interface{ Scan(...any) error }) (*model.PortalSession, error) {
	var p model.PortalSession
	var revokedAt sql.NullTime

	err := scanner.Scan(
		&p.ID, &p.Email, &p.TokenHash, &p.ExpiresAt, &p.UserAgent, &p.IPAddress,
		&revokedAt, &p.RevocationReason, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if revokedAt.Valid {
		p.RevokedAt = &revokedAt.Time
	}
	return &p, nil
}

const portalSessionCols = `id, email, token_hash, expires_at, user_agent, ip_address, revoked_at, revocation_reason, created_at`

func (s *PortalSessionStore) Create(email, tokenHash string, expiresAt time.Time, userAgent, ipAddress string) (*model.PortalSession, error) {
	result, err := s.db.Exec(
		`INSERT INTO portal_sessions (email, token_hash, expires_at, user_agent, ip_address, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		email, tokenHash, expiresAt.UTC(), userAgent, ipAddress, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert portal session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+portalSessionCols+` FROM portal_sessions WHERE id = ?`, id)
	return scanPortalSession(row)
}

// FindValidByHash returns the portal session for the hash only while it is
// unrevoked and unexpired; otherwise nil, never an error.
func (s *PortalSessionStore) FindValidByHash(tokenHash string) (*model.PortalSession, error) {
	row := s.db.QueryRow(
		`SELECT `+portalSessionCols+` FROM portal_sessions WHERE token_hash = ? AND revoked_at IS NULL AND expires_at > ?`,
		tokenHash, time.Now().UTC(),
	)
	p, err := scanPortalSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find portal session by hash: %w", err)
	}
	return p, nil
}

func (s *PortalSessionStore) RevokeByID(id int64, reason string) error {
	_, err := s.db.Exec(
		`UPDATE portal_sessions SET revoked_at = ?, revocation_reason = ? WHERE id = ? AND revoked_at IS NULL`,
		time.Now().UTC(), reason, id,
	)
	if err != nil {
		return fmt.Errorf("revoke portal session: %w", err)
	}
	return nil
}

func (s *PortalSessionStore) RevokeByTokenHash(tokenHash, reason string) error {
	_, err := s.db.Exec(
		`UPDATE portal_sessions SET revoked_at = ?, revocation_reason = ? WHERE token_hash = ? AND revoked_at IS NULL`,
		time.Now().UTC(), reason, tokenHash,
	)
	if err != nil {
		return fmt.Errorf("revoke portal session by hash: %w", err)
	}
	return nil
}

// RevokeAllForEmail revokes every live portal session for an email address.
func (s *PortalSessionStore) RevokeAllForEmail(email, reason string) (int64, error) {
	result, err := s.db.Exec(
		`UPDATE portal_sessions SET revoked_at = ?, revocation_reason = ? WHERE email = ? AND revoked_at IS NULL`,
		time.Now().UTC(), reason, email,
	)
	if err != nil {
		return 0, fmt.Errorf("revoke portal sessions for email: %w", err)
	}
	return result.RowsAffected()
}

func (s *PortalSessionStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM portal_sessions WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired portal sessions: %w", err)
	}
	return result.RowsAffected()
}
