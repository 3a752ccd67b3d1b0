package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobportal/apiserver/config"
	"github.com/jobportal/apiserver/internal/logging"
	"github.com/jobportal/apiserver/internal/server"
	"github.com/jobportal/apiserver/internal/services"
	"github.com/jobportal/apiserver/types"
)

const (
	goJobID       = "44444444-4444-4444-8444-000000000001"
	frontendJobID = "44444444-4444-4444-8444-000000000002"
	draftJobID    = "44444444-4444-4444-8444-000000000004"
)

func newAPI(t *testing.T) *Client {
	t.Helper()
	cfg := config.Config{
		Env:            config.EnvDev,
		StoreBackend:   "memory",
		StorageBackend: "none",
		MQBackend:      "memory",
		Session:        config.SessionConfig{Secret: "test-secret", CookieName: "user", MaxAge: time.Hour, Registry: "memory"},
		Password:       config.PasswordConfig{Time: 1, Memory: 1024, Threads: 1},
		ProfileTimeout: time.Second,
	}
	srv, err := server.New(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Shutdown(context.Background())
	})

	api, err := New(ts.URL, ts.Client())
	require.NoError(t, err)
	return api
}

func TestClient_LoginSessionProfileLogout(t *testing.T) {
	ctx := context.Background()
	api := newAPI(t)

	claim, err := api.Session(ctx)
	require.NoError(t, err)
	assert.Nil(t, claim)

	profile, err := api.Profile(ctx)
	require.NoError(t, err)
	assert.Nil(t, profile)

	require.NoError(t, api.Login(ctx, "demo@example.com", "password"))

	claim, err = api.Session(ctx)
	require.NoError(t, err)
	require.NotNil(t, claim)
	assert.Equal(t, "demo@example.com", claim.Email)
	assert.Equal(t, types.KindJobSeeker, claim.Kind)

	profile, err = api.Profile(ctx)
	require.NoError(t, err)
	require.NotNil(t, profile)
	require.NotNil(t, profile.JobSeeker)
	assert.Equal(t, "Demo", profile.JobSeeker.FirstName)

	profile, err = api.ReloadProfile(ctx)
	require.NoError(t, err)
	require.NotNil(t, profile)

	require.NoError(t, api.Logout(ctx))
	claim, err = api.Session(ctx)
	require.NoError(t, err)
	assert.Nil(t, claim)
}

func TestClient_LoginFailure(t *testing.T) {
	api := newAPI(t)

	err := api.Login(context.Background(), "demo@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Contains(t, err.Error(), "invalid email or password")

	err = api.Login(context.Background(), "", "")
	assert.True(t, IsStatus(err, http.StatusBadRequest))
}

func TestClient_JobsAndApplications(t *testing.T) {
	ctx := context.Background()
	api := newAPI(t)

	page, err := api.ListJobs(ctx, JobQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 3, page.Total)

	jp, err := api.GetJob(ctx, goJobID)
	require.NoError(t, err)
	assert.Equal(t, "Senior Go Engineer", jp.Title)

	_, err = api.GetJob(ctx, draftJobID)
	assert.True(t, IsStatus(err, http.StatusNotFound))

	_, err = api.Apply(ctx, frontendJobID, ApplyInput{CoverLetter: "hi"})
	assert.True(t, IsStatus(err, http.StatusUnauthorized))

	require.NoError(t, api.Login(ctx, "demo@example.com", "password"))

	salary := 90000
	app, err := api.Apply(ctx, frontendJobID, ApplyInput{CoverLetter: "hi", SalaryExpectation: &salary})
	require.NoError(t, err)
	assert.Equal(t, frontendJobID, app.JobPostingID)
	assert.Equal(t, types.ApplicationSubmitted, app.Status)

	_, err = api.Apply(ctx, frontendJobID, ApplyInput{})
	assert.True(t, IsStatus(err, http.StatusConflict))

	apps, err := api.Applications(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(apps))
	for _, a := range apps {
		ids = append(ids, a.JobPostingID)
	}
	assert.Contains(t, ids, frontendJobID)
}

func TestClient_ApplyWithResumeWhenUploadsDisabled(t *testing.T) {
	ctx := context.Background()
	api := newAPI(t)
	require.NoError(t, api.Login(ctx, "demo@example.com", "password"))

	_, err := api.Apply(ctx, frontendJobID, ApplyInput{
		ResumeName: "cv.pdf",
		Resume:     strings.NewReader("%PDF-1.4"),
	})
	assert.True(t, IsStatus(err, http.StatusBadRequest))
}

func TestJobQuery_Values(t *testing.T) {
	q := JobQuery{Keywords: "go", RemoteOnly: true, EmploymentType: types.EmploymentType("FULL_TIME"), Offset: 10, Limit: 5}
	assert.Equal(t, "employment_type=FULL_TIME&keywords=go&limit=5&offset=10&remote=true", q.Values().Encode())
	assert.Empty(t, JobQuery{}.Values().Encode())
}

func TestNew_AddsCookieJar(t *testing.T) {
	base := &http.Client{Timeout: time.Second}
	api, err := New("http://localhost:8080/", base)
	require.NoError(t, err)
	assert.Nil(t, base.Jar)
	assert.NotNil(t, api.http.Jar)
	assert.Equal(t, time.Second, api.http.Timeout)
	assert.Equal(t, "http://localhost:8080", api.baseURL)
}

func TestClient_Register(t *testing.T) {
	ctx := context.Background()
	api := newAPI(t)

	account, profile, err := api.RegisterEmployer(ctx, services.EmployerRegistration{
		Email:       "Talent@Initech.example",
		Password:    "correct horse",
		CompanyName: "Initech",
	})
	require.NoError(t, err)
	assert.Equal(t, "talent@initech.example", account.Email)
	assert.Equal(t, types.KindEmployer, account.Kind)
	require.NotNil(t, profile)
	assert.Equal(t, "Initech", profile.DisplayName())

	claim, err := api.Session(ctx)
	require.NoError(t, err)
	assert.Nil(t, claim)

	_, _, err = api.RegisterJobSeeker(ctx, services.JobSeekerRegistration{
		Email: "demo@example.com", Password: "password", FirstName: "A", LastName: "B",
	})
	assert.True(t, IsStatus(err, http.StatusConflict))

	require.NoError(t, api.Login(ctx, "talent@initech.example", "correct horse"))
	claim, err = api.Session(ctx)
	require.NoError(t, err)
	require.NotNil(t, claim)
	assert.Equal(t, types.KindEmployer, claim.Kind)
}
