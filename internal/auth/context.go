package auth

import (
	"context"
	"net/http"
	"slices"

	"github.com/jobportal/apiserver/types"
)

type contextKey string

const contextClaimKey contextKey = "session"

// WithClaim returns a context carrying claim.
func WithClaim(ctx context.Context, claim *types.SessionClaim) context.Context {
	return context.WithValue(ctx, contextClaimKey, claim)
}

// ClaimFromContext returns the request's session claim, if any.
func ClaimFromContext(ctx context.Context) (*types.SessionClaim, bool) {
	claim, ok := ctx.Value(contextClaimKey).(*types.SessionClaim)
	if !ok || claim == nil {
		return nil, false
	}
	return claim, true
}

// Middleware decodes the session once per request and stores the claim in
// the request context. Requests without a valid session pass through anonymously.
func (m *SessionManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := m.TokenFromRequest(r)
		if claim := m.Read(r.Context(), token); claim != nil {
			r = r.WithContext(WithClaim(r.Context(), claim))
		}
		next.ServeHTTP(w, r)
	})
}

// HasKind reports whether claim belongs to an active account of one of kinds.
func HasKind(claim *types.SessionClaim, kinds ...types.AccountKind) bool {
	if !claim.Authenticated() {
		return false
	}
	return slices.Contains(kinds, claim.Kind)
}
