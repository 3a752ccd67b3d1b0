// Package guard decides, before any page renders, whether a request may
// proceed or must be redirected based only on session cookie presence.
package guard

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	LoginPath = "/login"
	HomePath  = "/"
)

var (
	DefaultProtected = []string{"/dashboard", "/profile", "/settings", "/jobs/create", "/applications"}
	DefaultAuthOnly  = []string{"/login", "/register"}
)

// Decision is the outcome of a guard check. Redirect is set when Allow is false.
type Decision struct {
	Allow    bool
	Redirect string
}

// Guard holds the protected and auth-only path prefixes.
type Guard struct {
	protected []string
	authOnly  []string
}

func New(protected, authOnly []string) *Guard {
	return &Guard{protected: protected, authOnly: authOnly}
}

func Default() *Guard {
	return New(DefaultProtected, DefaultAuthOnly)
}

// Decide checks path against the prefix lists. Session presence is not
// validation: a present but invalid token passes here and fails later on decode.
func (g *Guard) Decide(path string, sessionPresent bool) Decision {
	if path == "" {
		path = HomePath
	}
	switch {
	case !sessionPresent && matchesAny(path, g.protected):
		return Decision{Redirect: LoginRedirect(path)}
	case sessionPresent && matchesAny(path, g.authOnly):
		return Decision{Redirect: HomePath}
	default:
		return Decision{Allow: true}
	}
}

// Middleware enforces Decide on page routes using cookieName for presence.
func (g *Guard) Middleware(cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			present := false
			if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
				present = true
			}
			d := g.Decide(r.URL.Path, present)
			if !d.Allow {
				http.Redirect(w, r, d.Redirect, http.StatusTemporaryRedirect)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoginRedirect builds the login URL that returns to path afterwards.
// Slashes stay literal so the common case reads /login?redirect=/dashboard.
func LoginRedirect(path string) string {
	escaped := (&url.URL{Path: path}).EscapedPath()
	escaped = strings.NewReplacer("&", "%26", "+", "%2B").Replace(escaped)
	return LoginPath + "?redirect=" + escaped
}

// SafeRedirect returns target when it is a local absolute path, else HomePath.
func SafeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, `\`) {
		return HomePath
	}
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" {
		return HomePath
	}
	return target
}

// matchesAny reports whether path equals a prefix or continues it with a new segment.
func matchesAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}
