package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jobportal/apiserver/types"
)

// ApplicationRepository handles persistence for job applications.
type ApplicationRepository struct {
	db *sql.DB
}

func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

const applicationColumns = `a.id, a.job_seeker_id, a.job_posting_id, a.cover_letter, a.salary_expectation,
		a.resume_key, a.status, a.applied_at, a.updated_at`

func scanApplication(row rowScanner, extra ...any) (types.Application, error) {
	var app types.Application
	dest := append([]any{
		&app.ID,
		&app.JobSeekerID,
		&app.JobPostingID,
		&app.CoverLetter,
		&app.SalaryExpectation,
		&app.ResumeKey,
		&app.Status,
		&app.AppliedAt,
		&app.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return types.Application{}, mapError(err)
	}
	return app, nil
}

// Create stores an application and bumps the posting's application count.
// A second application by the same job seeker to the same posting yields ErrConflict.
func (r *ApplicationRepository) Create(ctx context.Context, app types.Application) (types.Application, error) {
	if app.AppliedAt.IsZero() {
		app.AppliedAt = time.Now().UTC()
	}
	app.UpdatedAt = app.AppliedAt
	if app.Status == "" {
		app.Status = types.ApplicationSubmitted
	}

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		const query = `
			INSERT INTO applications (
				id, job_seeker_id, job_posting_id, cover_letter, salary_expectation,
				resume_key, status, applied_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
		if _, err := tx.ExecContext(
			ctx,
			query,
			app.ID,
			app.JobSeekerID,
			app.JobPostingID,
			app.CoverLetter,
			app.SalaryExpectation,
			app.ResumeKey,
			app.Status,
			app.AppliedAt,
			app.UpdatedAt,
		); err != nil {
			return mapError(err)
		}

		const bump = `
			UPDATE job_postings
			SET application_count = application_count + 1
			WHERE id = $1`
		result, err := tx.ExecContext(ctx, bump, app.JobPostingID)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return types.Application{}, err
	}
	return app, nil
}

// ListByJobSeeker returns a job seeker's applications with their postings, newest first.
func (r *ApplicationRepository) ListByJobSeeker(ctx context.Context, jobSeekerID string, filter types.ApplicationFilter) ([]types.Application, error) {
	args := []any{jobSeekerID}
	query := `
		SELECT ` + applicationColumns + `,
			jp.id, jp.title, jp.slug, jp.status, jp.location, jp.employment_type, e.id, e.company_name
		FROM applications a
		JOIN job_postings jp ON jp.id = a.job_posting_id
		JOIN employers e ON e.id = jp.employer_id
		WHERE a.job_seeker_id = $1`
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND a.status = $%d`, len(args))
	}
	if filter.JobPostingID != "" {
		args = append(args, filter.JobPostingID)
		query += fmt.Sprintf(` AND a.job_posting_id = $%d`, len(args))
	}
	query += `
		ORDER BY a.applied_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := []types.Application{}
	for rows.Next() {
		var (
			jp       types.JobPosting
			employer types.EmployerSummary
		)
		app, err := scanApplication(rows,
			&jp.ID, &jp.Title, &jp.Slug, &jp.Status, &jp.Location, &jp.EmploymentType,
			&employer.ID, &employer.CompanyName,
		)
		if err != nil {
			return nil, err
		}
		jp.EmployerID = employer.ID
		jp.Employer = &employer
		app.JobPosting = &jp
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// ListByJobPosting returns all applications to a posting, newest first.
func (r *ApplicationRepository) ListByJobPosting(ctx context.Context, jobPostingID string, filter types.ApplicationFilter) ([]types.Application, error) {
	args := []any{jobPostingID}
	query := `
		SELECT ` + applicationColumns + `
		FROM applications a
		WHERE a.job_posting_id = $1`
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND a.status = $%d`, len(args))
	}
	query += `
		ORDER BY a.applied_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := []types.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}
