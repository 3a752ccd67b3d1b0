package types

import "time"

// SessionClaim is the identity carried by a session token.
// It deliberately has no password hash field.
type SessionClaim struct {
	AccountID string      `json:"id"`
	Email     string      `json:"email"`
	Kind      AccountKind `json:"user_type"`
	IsActive  bool        `json:"is_active"`
	SessionID string      `json:"-"`
	IssuedAt  time.Time   `json:"issued_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Authenticated reports whether the claim belongs to an active account.
func (c *SessionClaim) Authenticated() bool {
	return c != nil && c.IsActive
}
