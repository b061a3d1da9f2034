package model

import "time"

// Session is an authenticated panel session. Only a one-way hash of the
// bearer token is stored; the raw token leaves the process exactly once,
// at creation.
type Session struct {
	ID               int64      `json:"id"`
	UserID           int64      `json:"user_id"`
	TokenHash        string     `json:"-"`
	ExpiresAt        time.Time  `json:"expires_at"`
	UserAgent        string     `json:"user_agent"`
	IPAddress        string     `json:"ip_address"`
	RevokedAt        *time.Time `json:"revoked_at"`
	RevocationReason string     `json:"revocation_reason,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// PortalSession is the customer-portal counterpart of Session, owned by an
// email address rather than a user row.
type PortalSession struct {
	ID               int64      `json:"id"`
	Email            string     `json:"email"`
	TokenHash        string     `json:"-"`
	ExpiresAt        time.Time  `json:"expires_at"`
	UserAgent        string     `json:"user_agent"`
	IPAddress        string     `json:"ip_address"`
	RevokedAt        *time.Time `json:"revoked_at"`
	RevocationReason string     `json:"revocation_reason,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// MagicLinkToken is a single-use, time-boxed proof of email ownership.
type MagicLinkToken struct {
	ID         int64      `json:"id"`
	Email      string     `json:"email"`
	TokenHash  string     `json:"-"`
	ExpiresAt  time.Time  `json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at"`
	CreatedAt  time.Time  `json:"created_at"`
}
