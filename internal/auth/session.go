package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jobportal/apiserver/internal/logging"
	"github.com/jobportal/apiserver/types"
)

const (
	DefaultCookieName = "user"
	DefaultSessionTTL = 7 * 24 * time.Hour
)

// SessionOptions configures token signing and the session cookie.
type SessionOptions struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	// Secure marks the cookie Secure; set in production.
	Secure bool
}

// SessionManager issues, reads and revokes session tokens. It is the only
// session authority in the server.
type SessionManager struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
	registry   SessionRegistry
	log        logging.Logger
	now        func() time.Time
}

type sessionClaims struct {
	Email  string            `json:"email"`
	Kind   types.AccountKind `json:"user_type"`
	Active bool              `json:"is_active"`
	jwt.RegisteredClaims
}

func NewSessionManager(opts SessionOptions, registry SessionRegistry, log logging.Logger) (*SessionManager, error) {
	if strings.TrimSpace(opts.Secret) == "" {
		return nil, errors.New("session secret is required")
	}
	if registry == nil {
		return nil, errors.New("session registry is required")
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultSessionTTL
	}
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	return &SessionManager{
		secret:     []byte(opts.Secret),
		ttl:        opts.TTL,
		cookieName: opts.CookieName,
		secure:     opts.Secure,
		registry:   registry,
		log:        log,
		now:        time.Now,
	}, nil
}

// CookieName returns the name of the session cookie.
func (m *SessionManager) CookieName() string {
	return m.cookieName
}

// Issue signs a token for account and registers it as live.
func (m *SessionManager) Issue(ctx context.Context, account types.Account) (string, types.SessionClaim, error) {
	now := m.now().Truncate(time.Second)
	expires := now.Add(m.ttl)
	sessionID := uuid.NewString()

	claims := sessionClaims{
		Email:  account.Email,
		Kind:   account.Kind,
		Active: account.IsActive,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", types.SessionClaim{}, err
	}
	if err := m.registry.Add(ctx, sessionID, m.ttl); err != nil {
		return "", types.SessionClaim{}, err
	}

	return token, types.SessionClaim{
		AccountID: account.ID,
		Email:     account.Email,
		Kind:      account.Kind,
		IsActive:  account.IsActive,
		SessionID: sessionID,
		IssuedAt:  now,
		ExpiresAt: expires,
	}, nil
}

// Read decodes token into a claim. It never fails: absent, malformed,
// badly signed, expired and revoked tokens all read as nil.
func (m *SessionManager) Read(ctx context.Context, token string) *types.SessionClaim {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	claims, err := m.parse(token, jwt.WithExpirationRequired(), jwt.WithTimeFunc(m.now))
	if err != nil {
		m.log.Debug(ctx, "session token rejected", "error", err)
		return nil
	}

	active, err := m.registry.Active(ctx, claims.ID)
	if err != nil {
		m.log.Warn(ctx, "session registry lookup failed", "error", err)
		return nil
	}
	if !active {
		return nil
	}

	return &types.SessionClaim{
		AccountID: claims.Subject,
		Email:     claims.Email,
		Kind:      claims.Kind,
		IsActive:  claims.Active,
		SessionID: claims.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}
}

// Revoke ends the session behind token. Unknown or garbage tokens are ignored.
func (m *SessionManager) Revoke(ctx context.Context, token string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}
	// expiry is irrelevant when revoking
	claims, err := m.parse(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return
	}
	if err := m.registry.Remove(ctx, claims.ID); err != nil {
		m.log.Warn(ctx, "session revoke failed", "session_id", claims.ID, "error", err)
	}
}

func (m *SessionManager) parse(token string, opts ...jwt.ParserOption) (*sessionClaims, error) {
	claims := &sessionClaims{}
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" || claims.ID == "" {
		return nil, errors.New("missing subject")
	}
	if !claims.Kind.Valid() {
		return nil, errors.New("unknown account kind")
	}
	return claims, nil
}

// SetCookie writes the session cookie.
func (m *SessionManager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		Expires:  m.now().Add(m.ttl),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie on the client.
func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest returns the session cookie value, falling back to a
// bearer token for non-browser clients.
func (m *SessionManager) TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(m.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	token, err := bearerToken(r)
	if err != nil {
		return ""
	}
	return token
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
