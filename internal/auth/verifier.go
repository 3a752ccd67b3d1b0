package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jobportal/apiserver/internal/logging"
	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/types"
)

// ErrInvalidLogin is the only credential failure callers can observe.
var ErrInvalidLogin = errors.New("invalid email or password")

// ErrNoCredentials is returned when email or password is empty.
var ErrNoCredentials = errors.New("email and password are required")

// loginError carries the internal reason of a failed login while
// presenting the same message for every reason.
type loginError struct {
	reason string
}

func (e *loginError) Error() string        { return ErrInvalidLogin.Error() }
func (e *loginError) Is(target error) bool { return target == ErrInvalidLogin }

var (
	ErrAccountNotFound   error = &loginError{reason: "account not found"}
	ErrInvalidCredential error = &loginError{reason: "invalid credential"}
	ErrAccountInactive   error = &loginError{reason: "account inactive"}
)

// FailureReason returns the internal reason behind a login failure, for logs only.
func FailureReason(err error) string {
	var le *loginError
	if errors.As(err, &le) {
		return le.reason
	}
	return ""
}

// AccountFinder looks accounts up by email.
type AccountFinder interface {
	GetByEmail(ctx context.Context, email string) (types.Account, error)
}

// Verifier checks an email/password pair against stored accounts.
// It has no side effects: no lockout counters, no last-login writes.
type Verifier struct {
	accounts AccountFinder
	hasher   PasswordHasher
	log      logging.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewVerifier(accounts AccountFinder, hasher PasswordHasher, log logging.Logger) *Verifier {
	return &Verifier{accounts: accounts, hasher: hasher, log: log}
}

// Verify returns the account when password matches. Every credential failure
// satisfies errors.Is(err, ErrInvalidLogin) and reads the same.
func (v *Verifier) Verify(ctx context.Context, email, password string) (types.Account, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return types.Account{}, ErrNoCredentials
	}

	account, err := v.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// equalize timing with the found path
			_, _ = v.hasher.Verify(v.dummy(), password)
			return types.Account{}, ErrAccountNotFound
		}
		return types.Account{}, fmt.Errorf("lookup account: %w", err)
	}

	ok, err := v.hasher.Verify(account.PasswordHash, password)
	if err != nil {
		v.log.Warn(ctx, "stored password hash is unusable", "account_id", account.ID, "error", err)
		return types.Account{}, ErrInvalidCredential
	}
	if !ok {
		return types.Account{}, ErrInvalidCredential
	}
	if !account.IsActive {
		return types.Account{}, ErrAccountInactive
	}
	return account, nil
}

func (v *Verifier) dummy() string {
	v.dummyOnce.Do(func() {
		hash, err := v.hasher.Hash("timing-equalizer")
		if err == nil {
			v.dummyHash = hash
		}
	})
	return v.dummyHash
}
