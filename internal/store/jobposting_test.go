package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jobportal/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jobPostingCols = []string{
	"id", "employer_id", "title", "slug", "description", "requirements", "responsibilities",
	"employment_type", "experience_level", "salary_min", "salary_max", "salary_currency",
	"location", "is_remote", "remote_type", "status", "view_count", "application_count",
	"published_at", "created_at", "updated_at",
	"e_id", "company_name", "company_size", "industry", "is_verified",
}

func jobRow(rows *sqlmock.Rows, id, title string) *sqlmock.Rows {
	return rows.AddRow(
		id, "e-1", title, "slug-"+id, "desc", nil, nil,
		"FULL_TIME", "MID", 100, 200, "USD",
		"Remote", true, "REMOTE", "PUBLISHED", 0, 1,
		fixedTime, fixedTime, fixedTime,
		"e-1", "Acme", "LARGE", nil, true,
	)
}

func TestJobFilterClause(t *testing.T) {
	where, args := jobFilterClause(types.JobFilter{
		Status:     types.JobStatusPublished,
		Keywords:   " go ",
		RemoteOnly: true,
	})
	assert.Contains(t, where, "jp.status = $1")
	assert.Contains(t, where, "(jp.title ILIKE $2 OR jp.description ILIKE $2)")
	assert.Contains(t, where, "jp.is_remote = TRUE")
	assert.Equal(t, []any{types.JobStatusPublished, "%go%"}, args)

	where, args = jobFilterClause(types.JobFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestJobPostingRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobPostingRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM job_postings jp\s+WHERE jp.status = \$1`).
		WithArgs("PUBLISHED").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(`(?s)FROM job_postings jp\s+JOIN employers e .+ORDER BY jp.created_at DESC\s+LIMIT \$2 OFFSET \$3`).
		WithArgs("PUBLISHED", 2, 0).
		WillReturnRows(jobRow(jobRow(sqlmock.NewRows(jobPostingCols), "j-1", "Go Dev"), "j-2", "SRE"))
	mock.ExpectQuery(`FROM job_posting_skills`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"job_posting_id", "skill_name"}).
			AddRow("j-1", "go").
			AddRow("j-1", "postgres").
			AddRow("j-2", "kubernetes"))

	postings, total, err := repo.List(context.Background(), types.JobFilter{Status: types.JobStatusPublished, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	require.Len(t, postings, 2)
	assert.Equal(t, []string{"go", "postgres"}, postings[0].RequiredSkills)
	assert.Equal(t, []string{"kubernetes"}, postings[1].RequiredSkills)
	require.NotNil(t, postings[0].Employer)
	assert.Equal(t, "Acme", postings[0].Employer.CompanyName)
}

func TestJobPostingRepository_Get_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobPostingRepository(db)

	mock.ExpectQuery(`(?s)WHERE jp.id = \$1`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(jobPostingCols))

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJobPostingRepository_Create_WithSkills(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobPostingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO job_postings`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO job_posting_skills`).WithArgs("j-9", "go").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO job_posting_skills`).WithArgs("j-9", "sql").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := repo.Create(context.Background(), types.JobPosting{
		ID:             "j-9",
		EmployerID:     "e-1",
		Title:          "Backend",
		Status:         types.JobStatusPublished,
		RequiredSkills: []string{"go", "sql"},
	})
	require.NoError(t, err)
	require.NotNil(t, got.PublishedAt)
	assert.Equal(t, got.CreatedAt, *got.PublishedAt)
}
