package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jobportal/apiserver/types"
	"github.com/lib/pq"
)

// JobPostingRepository handles persistence for job postings and their skills.
type JobPostingRepository struct {
	db *sql.DB
}

func NewJobPostingRepository(db *sql.DB) *JobPostingRepository {
	return &JobPostingRepository{db: db}
}

const jobPostingSelect = `
	SELECT jp.id, jp.employer_id, jp.title, jp.slug, jp.description, jp.requirements, jp.responsibilities,
		jp.employment_type, jp.experience_level, jp.salary_min, jp.salary_max, jp.salary_currency,
		jp.location, jp.is_remote, jp.remote_type, jp.status, jp.view_count, jp.application_count,
		jp.published_at, jp.created_at, jp.updated_at,
		e.id, e.company_name, e.company_size, e.industry, e.is_verified
	FROM job_postings jp
	JOIN employers e ON e.id = jp.employer_id`

func scanJobPosting(row rowScanner) (types.JobPosting, error) {
	var (
		jp       types.JobPosting
		employer types.EmployerSummary
	)
	err := row.Scan(
		&jp.ID,
		&jp.EmployerID,
		&jp.Title,
		&jp.Slug,
		&jp.Description,
		&jp.Requirements,
		&jp.Responsibilities,
		&jp.EmploymentType,
		&jp.ExperienceLevel,
		&jp.SalaryMin,
		&jp.SalaryMax,
		&jp.SalaryCurrency,
		&jp.Location,
		&jp.IsRemote,
		&jp.RemoteType,
		&jp.Status,
		&jp.ViewCount,
		&jp.ApplicationCount,
		&jp.PublishedAt,
		&jp.CreatedAt,
		&jp.UpdatedAt,
		&employer.ID,
		&employer.CompanyName,
		&employer.CompanySize,
		&employer.Industry,
		&employer.IsVerified,
	)
	if err != nil {
		return types.JobPosting{}, mapError(err)
	}
	jp.Employer = &employer
	jp.RequiredSkills = []string{}
	return jp, nil
}

// List returns one page of postings matching filter, newest first, and the total match count.
func (r *JobPostingRepository) List(ctx context.Context, filter types.JobFilter) ([]types.JobPosting, int, error) {
	where, args := jobFilterClause(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM job_postings jp` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	query := jobPostingSelect + where + fmt.Sprintf(`
	ORDER BY jp.created_at DESC
	LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	postings := []types.JobPosting{}
	for rows.Next() {
		jp, err := scanJobPosting(rows)
		if err != nil {
			return nil, 0, err
		}
		postings = append(postings, jp)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.attachSkills(ctx, postings); err != nil {
		return nil, 0, err
	}
	return postings, total, nil
}

func (r *JobPostingRepository) Get(ctx context.Context, id string) (types.JobPosting, error) {
	query := jobPostingSelect + `
	WHERE jp.id = $1`
	jp, err := scanJobPosting(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return types.JobPosting{}, err
	}
	postings := []types.JobPosting{jp}
	if err := r.attachSkills(ctx, postings); err != nil {
		return types.JobPosting{}, err
	}
	return postings[0], nil
}

// Create inserts a posting together with its required skills.
func (r *JobPostingRepository) Create(ctx context.Context, jp types.JobPosting) (types.JobPosting, error) {
	now := time.Now().UTC()
	if jp.CreatedAt.IsZero() {
		jp.CreatedAt = now
	}
	jp.UpdatedAt = jp.CreatedAt
	if jp.Status == types.JobStatusPublished && jp.PublishedAt == nil {
		published := jp.CreatedAt
		jp.PublishedAt = &published
	}

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		const query = `
			INSERT INTO job_postings (
				id, employer_id, title, slug, description, requirements, responsibilities,
				employment_type, experience_level, salary_min, salary_max, salary_currency,
				location, is_remote, remote_type, status, published_at, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
		if _, err := tx.ExecContext(
			ctx,
			query,
			jp.ID,
			jp.EmployerID,
			jp.Title,
			jp.Slug,
			jp.Description,
			jp.Requirements,
			jp.Responsibilities,
			jp.EmploymentType,
			jp.ExperienceLevel,
			jp.SalaryMin,
			jp.SalaryMax,
			jp.SalaryCurrency,
			jp.Location,
			jp.IsRemote,
			jp.RemoteType,
			jp.Status,
			jp.PublishedAt,
			jp.CreatedAt,
			jp.UpdatedAt,
		); err != nil {
			return mapError(err)
		}

		for _, skill := range jp.RequiredSkills {
			const skillQuery = `
				INSERT INTO job_posting_skills (job_posting_id, skill_name)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING`
			if _, err := tx.ExecContext(ctx, skillQuery, jp.ID, skill); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return types.JobPosting{}, err
	}
	if jp.RequiredSkills == nil {
		jp.RequiredSkills = []string{}
	}
	return jp, nil
}

func (r *JobPostingRepository) attachSkills(ctx context.Context, postings []types.JobPosting) error {
	if len(postings) == 0 {
		return nil
	}
	ids := make([]string, len(postings))
	index := make(map[string]int, len(postings))
	for i, jp := range postings {
		ids[i] = jp.ID
		index[jp.ID] = i
	}

	const query = `
		SELECT job_posting_id, skill_name
		FROM job_posting_skills
		WHERE job_posting_id = ANY($1)
		ORDER BY skill_name`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var postingID, skill string
		if err := rows.Scan(&postingID, &skill); err != nil {
			return err
		}
		if i, ok := index[postingID]; ok {
			postings[i].RequiredSkills = append(postings[i].RequiredSkills, skill)
		}
	}
	return rows.Err()
}

func jobFilterClause(filter types.JobFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != "" {
		add("jp.status = $%d", filter.Status)
	}
	if filter.EmployerID != "" {
		add("jp.employer_id = $%d", filter.EmployerID)
	}
	if kw := strings.TrimSpace(filter.Keywords); kw != "" {
		args = append(args, "%"+kw+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(jp.title ILIKE $%d OR jp.description ILIKE $%d)", n, n))
	}
	if loc := strings.TrimSpace(filter.Location); loc != "" {
		add("jp.location ILIKE $%d", "%"+loc+"%")
	}
	if filter.RemoteOnly {
		conds = append(conds, "jp.is_remote = TRUE")
	}
	if filter.EmploymentType != "" {
		add("jp.employment_type = $%d", filter.EmploymentType)
	}
	if filter.ExperienceLevel != "" {
		add("jp.experience_level = $%d", filter.ExperienceLevel)
	}

	if len(conds) == 0 {
		return "", args
	}
	return "\n\tWHERE " + strings.Join(conds, " AND "), args
}
