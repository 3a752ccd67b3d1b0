package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jobportal/apiserver/internal/logging"
	"github.com/jobportal/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var demoAccount = types.Account{
	ID:       "11111111-1111-4111-8111-000000000001",
	Email:    "demo@example.com",
	Kind:     types.KindJobSeeker,
	IsActive: true,
}

func newTestManager(t *testing.T) (*SessionManager, *MemoryRegistry) {
	t.Helper()
	reg := NewMemoryRegistry()
	m, err := NewSessionManager(SessionOptions{Secret: "test-secret"}, reg, logging.Nop())
	require.NoError(t, err)
	return m, reg
}

func TestNewSessionManager_RequiresSecret(t *testing.T) {
	_, err := NewSessionManager(SessionOptions{Secret: "  "}, NewMemoryRegistry(), logging.Nop())
	assert.Error(t, err)
}

func TestSession_IssueReadRoundTrip(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	token, issued, err := m.Issue(ctx, demoAccount)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claim := m.Read(ctx, token)
	require.NotNil(t, claim)
	assert.Equal(t, demoAccount.ID, claim.AccountID)
	assert.Equal(t, demoAccount.Email, claim.Email)
	assert.Equal(t, types.KindJobSeeker, claim.Kind)
	assert.True(t, claim.IsActive)
	assert.Equal(t, issued.SessionID, claim.SessionID)
	assert.True(t, issued.ExpiresAt.Equal(claim.ExpiresAt))
	assert.Equal(t, 7*24*time.Hour, claim.ExpiresAt.Sub(claim.IssuedAt))
}

func TestSessionClaim_HasNoPasswordField(t *testing.T) {
	typ := reflect.TypeOf(types.SessionClaim{})
	for i := 0; i < typ.NumField(); i++ {
		assert.NotContains(t, typ.Field(i).Name, "Password")
	}
}

func TestSession_ReadRejectsBadTokens(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	token, _, err := m.Issue(ctx, demoAccount)
	require.NoError(t, err)

	other, err := NewSessionManager(SessionOptions{Secret: "other-secret"}, NewMemoryRegistry(), logging.Nop())
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": demoAccount.ID, "jti": "x", "user_type": "ADMIN", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"empty":       "",
		"whitespace":  "   ",
		"garbage":     "not-a-token",
		"truncated":   token[:len(token)-4],
		"alg none":    unsigned,
		"tampered":    token + "x",
		"two periods": "a.b",
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Nil(t, m.Read(ctx, tok))
		})
	}

	t.Run("wrong secret", func(t *testing.T) {
		assert.Nil(t, other.Read(ctx, token))
	})
}

func TestSession_ReadRejectsExpired(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	start := time.Now()
	m.now = func() time.Time { return start }

	token, _, err := m.Issue(ctx, demoAccount)
	require.NoError(t, err)
	require.NotNil(t, m.Read(ctx, token))

	m.now = func() time.Time { return start.Add(8 * 24 * time.Hour) }
	assert.Nil(t, m.Read(ctx, token))
}

func TestSession_RevokeIsIdempotent(t *testing.T) {
	m, reg := newTestManager(t)
	ctx := context.Background()

	token, _, err := m.Issue(ctx, demoAccount)
	require.NoError(t, err)
	require.Equal(t, 1, reg.Len())

	m.Revoke(ctx, token)
	assert.Nil(t, m.Read(ctx, token))
	assert.Equal(t, 0, reg.Len())

	m.Revoke(ctx, token)
	m.Revoke(ctx, "")
	m.Revoke(ctx, "garbage")
	assert.Nil(t, m.Read(ctx, token))
}

type failingRegistry struct{ *MemoryRegistry }

func (failingRegistry) Active(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestSession_RegistryFailureReadsAsAnonymous(t *testing.T) {
	reg := failingRegistry{MemoryRegistry: NewMemoryRegistry()}
	m, err := NewSessionManager(SessionOptions{Secret: "s"}, reg, logging.Nop())
	require.NoError(t, err)

	token, _, err := m.Issue(context.Background(), demoAccount)
	require.NoError(t, err)
	assert.Nil(t, m.Read(context.Background(), token))
}

func TestSession_CookieAttributes(t *testing.T) {
	reg := NewMemoryRegistry()
	m, err := NewSessionManager(SessionOptions{Secret: "s", Secure: true}, reg, logging.Nop())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	m.SetCookie(rec, "tok")
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "user", c.Name)
	assert.Equal(t, "tok", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 604800, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

	rec = httptest.NewRecorder()
	m.ClearCookie(rec)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, "", cleared[0].Value)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func TestSession_TokenFromRequest(t *testing.T) {
	m, _ := newTestManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "user", Value: "from-cookie"})
	req.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-cookie", m.TokenFromRequest(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer from-header")
	assert.Equal(t, "from-header", m.TokenFromRequest(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc")
	assert.Equal(t, "", m.TokenFromRequest(req))
}

func TestMiddleware_StoresClaimInContext(t *testing.T) {
	m, _ := newTestManager(t)
	token, _, err := m.Issue(context.Background(), demoAccount)
	require.NoError(t, err)

	var got *types.SessionClaim
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ClaimFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(&http.Cookie{Name: "user", Value: token})
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, got)
	assert.Equal(t, demoAccount.ID, got.AccountID)

	got = nil
	req = httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(&http.Cookie{Name: "user", Value: "corrupted"})
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Nil(t, got)
}

func TestHasKind(t *testing.T) {
	employer := &types.SessionClaim{Kind: types.KindEmployer, IsActive: true}
	assert.True(t, HasKind(employer, types.KindEmployer, types.KindAdmin))
	assert.False(t, HasKind(employer, types.KindJobSeeker))
	assert.False(t, HasKind(nil, types.KindEmployer))
	assert.False(t, HasKind(&types.SessionClaim{Kind: types.KindEmployer}, types.KindEmployer))
}
