package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobportal/apiserver/internal/services"
	"github.com/jobportal/apiserver/types"
)

func TestLogin_SetsSessionCookie(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/login", LoginRequest{Email: "Demo@Example.com", Password: "password"}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, OKResponse{OK: true}, decode[OKResponse](t, rec))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "user", c.Name)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 1, env.registry.Len())
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)

	cases := []LoginRequest{
		{Email: "demo@example.com", Password: "wrong-password"},
		{Email: "nobody@example.com", Password: "password"},
		{Email: "inactive@example.com", Password: "password"},
	}
	var bodies []string
	for _, req := range cases {
		rec := env.do(t, http.MethodPost, "/api/login", req, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, rec.Result().Cookies())
		bodies = append(bodies, rec.Body.String())
	}
	assert.JSONEq(t, `{"error":"invalid email or password"}`, bodies[0])
	assert.Equal(t, bodies[0], bodies[1])
	assert.Equal(t, bodies[0], bodies[2])
}

func TestLogin_BadRequests(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/login", LoginRequest{Email: "demo@example.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"email and password are required"}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/login", "not an object", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSession_RoundTrip(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/session", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"session":null}`, rec.Body.String())

	cookie := env.login(t, "demo@example.com")
	rec = env.do(t, http.MethodGet, "/api/session", nil, cookie)
	resp := decode[SessionResponse](t, rec)
	require.NotNil(t, resp.Session)
	assert.Equal(t, "demo@example.com", resp.Session.Email)
	assert.Equal(t, types.KindJobSeeker, resp.Session.Kind)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestLogout_RevokesAndIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "demo@example.com")

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, "/api/logout", nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
		cleared := rec.Result().Cookies()
		require.Len(t, cleared, 1)
		assert.Negative(t, cleared[0].MaxAge)
	}

	rec := env.do(t, http.MethodGet, "/api/session", nil, cookie)
	assert.JSONEq(t, `{"session":null}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/profile", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/logout", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/register/jobseeker", services.JobSeekerRegistration{
		Email: "new@example.com", Password: "password", FirstName: "New", LastName: "Person",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[RegisterResponse](t, rec)
	assert.Equal(t, types.KindJobSeeker, resp.Account.Kind)
	require.NotNil(t, resp.Profile)
	assert.Equal(t, "New Person", resp.Profile.DisplayName())
	assert.Empty(t, rec.Result().Cookies(), "registration does not log in")

	cookie := env.login(t, "new@example.com")
	assert.NotNil(t, cookie)

	rec = env.do(t, http.MethodPost, "/api/register/employer", services.EmployerRegistration{
		Email: "HR@acme.example", Password: "password", CompanyName: "Acme Again",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/register/employer", services.EmployerRegistration{
		Email: "ceo@initech.example", Password: "short", CompanyName: "Initech",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "password must be at least 8 characters")
}

func TestRequireKind(t *testing.T) {
	env := newTestEnv(t)
	seeker := env.login(t, "demo@example.com")

	rec := env.do(t, http.MethodPost, "/api/jobs", services.NewJobPosting{Title: "x", Description: "y"}, seeker)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/jobs", services.NewJobPosting{Title: "x", Description: "y"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
