package types

import (
	"strings"
	"time"
)

// AccountKind is the immutable role of an account.
type AccountKind string

const (
	KindJobSeeker AccountKind = "JOB_SEEKER"
	KindEmployer  AccountKind = "EMPLOYER"
	KindAdmin     AccountKind = "ADMIN"
	KindGuest     AccountKind = "GUEST"
)

// Valid reports whether k is one of the known kinds.
func (k AccountKind) Valid() bool {
	switch k {
	case KindJobSeeker, KindEmployer, KindAdmin, KindGuest:
		return true
	}
	return false
}

// ParseAccountKind normalizes s and reports whether it names a known kind.
func ParseAccountKind(s string) (AccountKind, bool) {
	k := AccountKind(strings.ToUpper(strings.TrimSpace(s)))
	return k, k.Valid()
}

// Account is a registered identity that can log in.
// Accounts are never hard-deleted; deactivation flips IsActive.
type Account struct {
	// ID is the unique identifier of the account.
	ID string `json:"id" db:"id"`

	// Email is unique across accounts, compared case-insensitively.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the salted password hash.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Kind is fixed at creation.
	Kind AccountKind `json:"kind" db:"user_type"`

	// IsActive is false for deactivated accounts, which cannot log in.
	IsActive bool `json:"is_active" db:"is_active"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// LastLogin is informational only; nothing in the login flow writes it.
	LastLogin *time.Time `json:"last_login,omitempty" db:"last_login"`
}

// NormalizeEmail returns the form used for uniqueness comparisons.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
