package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/jobportal/apiserver/internal/auth"
	"github.com/jobportal/apiserver/internal/fixtures"
	"github.com/jobportal/apiserver/internal/guard"
	"github.com/jobportal/apiserver/internal/logging"
	"github.com/jobportal/apiserver/internal/services"
	"github.com/jobportal/apiserver/internal/storage"
	"github.com/jobportal/apiserver/internal/store/memory"
)

const (
	goJobID    = "44444444-4444-4444-8444-000000000001"
	draftJobID = "44444444-4444-4444-8444-000000000004"
)

var testHasher = auth.Argon2Hasher{Time: 1, Memory: 1024, Threads: 1}

type testEnv struct {
	router   http.Handler
	sessions *auth.SessionManager
	registry *auth.MemoryRegistry
	store    *memory.Store
	resumes  *memResumes
}

type memResumes struct{ objects map[string][]byte }

func (m *memResumes) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *memResumes) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memResumes) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logging.Nop()

	ds, err := fixtures.Load()
	require.NoError(t, err)
	s := memory.New()
	require.NoError(t, fixtures.Seed(context.Background(), ds, fixtures.Target{
		Accounts:     s.Accounts(),
		JobPostings:  s.JobPostings(),
		Applications: s.Applications(),
	}, testHasher))

	registry := auth.NewMemoryRegistry()
	sessions, err := auth.NewSessionManager(auth.SessionOptions{Secret: "test-secret", TTL: time.Hour}, registry, log)
	require.NoError(t, err)

	resumes := &memResumes{objects: map[string][]byte{}}
	accounts := services.NewAccountService(s.Accounts(), testHasher)
	resolver := services.NewProfileResolver(s.Profiles(), time.Second)
	jobs := services.NewJobService(s.JobPostings(), s.Profiles())
	applications := services.NewApplicationService(s.Applications(), jobs, s.Profiles(), resumes, nil, log)

	authHandler := NewAuthHandler(auth.NewVerifier(s.Accounts(), testHasher, log), sessions, accounts, log)
	profileHandler := NewProfileHandler(resolver, log)
	jobHandler := NewJobHandler(jobs, applications, log)
	pageHandler := NewPageHandler(sessions, accounts, profileHandler, jobs, applications, log)

	r := chi.NewRouter()
	r.Use(sessions.Middleware)
	r.Get("/healthz", Healthz)
	r.Route("/api", func(r chi.Router) {
		AuthRouter(r, authHandler)
		r.Route("/profile", func(r chi.Router) { ProfileRouter(r, profileHandler) })
		r.Route("/jobs", func(r chi.Router) { JobRouter(r, jobHandler) })
		r.Route("/applications", func(r chi.Router) { ApplicationRouter(r, jobHandler) })
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.Default().Middleware(sessions.CookieName()))
		PageRouter(r, pageHandler)
	})

	return &testEnv{router: r, sessions: sessions, registry: registry, store: s, resumes: resumes}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T, email string) *http.Cookie {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/login", LoginRequest{Email: email, Password: "password"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == e.sessions.CookieName() {
			return c
		}
	}
	t.Fatal("login did not set the session cookie")
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}
