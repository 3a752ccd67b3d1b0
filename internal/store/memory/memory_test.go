package memory

import (
	"context"
	"testing"
	"time"

	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T) (*Store, types.EmployerProfile, types.JobSeekerProfile) {
	t.Helper()
	s := New()
	ctx := context.Background()

	_, employer, err := s.Accounts().CreateEmployer(ctx,
		types.Account{ID: "acc-e", Email: "hr@acme.example", Kind: types.KindEmployer, IsActive: true},
		types.EmployerProfile{ID: "emp-1", CompanyName: "Acme"},
	)
	require.NoError(t, err)

	_, seeker, err := s.Accounts().CreateJobSeeker(ctx,
		types.Account{ID: "acc-s", Email: "Demo@Example.com", Kind: types.KindJobSeeker, IsActive: true},
		types.JobSeekerProfile{ID: "js-1", FirstName: "Demo", LastName: "User", PublicProfileSlug: "demo-user"},
	)
	require.NoError(t, err)
	return s, employer, seeker
}

func TestAccounts_EmailIsCaseInsensitiveAndUnique(t *testing.T) {
	s, _, _ := seededStore(t)
	ctx := context.Background()

	got, err := s.Accounts().GetByEmail(ctx, "  demo@EXAMPLE.com ")
	require.NoError(t, err)
	assert.Equal(t, "acc-s", got.ID)

	_, err = s.Accounts().Create(ctx, types.Account{ID: "other", Email: "DEMO@example.com", Kind: types.KindAdmin})
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = s.Accounts().GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAccounts_FailedProfileInsertLeavesNoAccount(t *testing.T) {
	s, _, _ := seededStore(t)
	ctx := context.Background()

	_, _, err := s.Accounts().CreateJobSeeker(ctx,
		types.Account{ID: "acc-x", Email: "x@example.com", Kind: types.KindJobSeeker, IsActive: true},
		types.JobSeekerProfile{ID: "js-x", PublicProfileSlug: "demo-user"},
	)
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = s.Accounts().GetByEmail(ctx, "x@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAccounts_SetActive(t *testing.T) {
	s, _, _ := seededStore(t)
	ctx := context.Background()

	require.NoError(t, s.Accounts().SetActive(ctx, "acc-s", false))
	got, err := s.Accounts().GetByID(ctx, "acc-s")
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	assert.ErrorIs(t, s.Accounts().SetActive(ctx, "missing", true), store.ErrNotFound)
}

func TestProfiles_ByAccountID(t *testing.T) {
	s, _, _ := seededStore(t)
	ctx := context.Background()

	seeker, err := s.Profiles().JobSeekerByAccountID(ctx, "acc-s")
	require.NoError(t, err)
	assert.Equal(t, "Demo", seeker.FirstName)

	_, err = s.Profiles().EmployerByAccountID(ctx, "acc-s")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestJobPostings_ListFiltersAndPaginates(t *testing.T) {
	s, employer, _ := seededStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	remote := "Remote"

	for i, title := range []string{"Go Engineer", "Java Engineer", "Go Lead"} {
		_, err := s.JobPostings().Create(ctx, types.JobPosting{
			ID:             title,
			EmployerID:     employer.ID,
			Title:          title,
			Slug:           title,
			Status:         types.JobStatusPublished,
			Location:       &remote,
			IsRemote:       i != 1,
			RequiredSkills: []string{"z", "a"},
			CreatedAt:      base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}
	_, err := s.JobPostings().Create(ctx, types.JobPosting{ID: "draft", EmployerID: employer.ID, Title: "Go Draft", Slug: "draft", Status: types.JobStatusDraft})
	require.NoError(t, err)

	page, total, err := s.JobPostings().List(ctx, types.JobFilter{Status: types.JobStatusPublished, Keywords: "go", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, page, 1)
	assert.Equal(t, "Go Lead", page[0].Title)
	assert.Equal(t, []string{"a", "z"}, page[0].RequiredSkills)
	require.NotNil(t, page[0].Employer)
	assert.Equal(t, "Acme", page[0].Employer.CompanyName)

	page, total, err = s.JobPostings().List(ctx, types.JobFilter{Status: types.JobStatusPublished, RemoteOnly: true, Offset: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, page, 1)
	assert.Equal(t, "Go Engineer", page[0].Title)

	_, err = s.JobPostings().Create(ctx, types.JobPosting{ID: "dup", EmployerID: employer.ID, Slug: "draft"})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestApplications_CreateIsUniquePerSeekerAndPosting(t *testing.T) {
	s, employer, seeker := seededStore(t)
	ctx := context.Background()

	_, err := s.JobPostings().Create(ctx, types.JobPosting{ID: "j-1", EmployerID: employer.ID, Title: "Go", Slug: "go", Status: types.JobStatusPublished})
	require.NoError(t, err)

	app, err := s.Applications().Create(ctx, types.Application{ID: "ap-1", JobSeekerID: seeker.ID, JobPostingID: "j-1"})
	require.NoError(t, err)
	assert.Equal(t, types.ApplicationSubmitted, app.Status)

	_, err = s.Applications().Create(ctx, types.Application{ID: "ap-2", JobSeekerID: seeker.ID, JobPostingID: "j-1"})
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = s.Applications().Create(ctx, types.Application{ID: "ap-3", JobSeekerID: seeker.ID, JobPostingID: "missing"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	jp, err := s.JobPostings().Get(ctx, "j-1")
	require.NoError(t, err)
	assert.Equal(t, 1, jp.ApplicationCount)

	mine, err := s.Applications().ListByJobSeeker(ctx, seeker.ID, types.ApplicationFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].JobPosting)
	assert.Equal(t, "Go", mine[0].JobPosting.Title)

	none, err := s.Applications().ListByJobSeeker(ctx, seeker.ID, types.ApplicationFilter{Status: types.ApplicationHired})
	require.NoError(t, err)
	assert.Empty(t, none)

	forPosting, err := s.Applications().ListByJobPosting(ctx, "j-1", types.ApplicationFilter{})
	require.NoError(t, err)
	assert.Len(t, forPosting, 1)
}
