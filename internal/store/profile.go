package store

import (
	"context"
	"database/sql"

	"github.com/jobportal/apiserver/types"
)

// ProfileRepository reads kind-specific profile rows.
type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) JobSeekerByAccountID(ctx context.Context, accountID string) (types.JobSeekerProfile, error) {
	const query = `
		SELECT id, user_id, first_name, last_name, phone_number, location, bio,
			public_profile_url, profile_visibility, availability_status, created_at, updated_at
		FROM job_seekers
		WHERE user_id = $1`
	var p types.JobSeekerProfile
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(
		&p.ID,
		&p.AccountID,
		&p.FirstName,
		&p.LastName,
		&p.Phone,
		&p.Location,
		&p.Bio,
		&p.PublicProfileSlug,
		&p.Visibility,
		&p.Availability,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return types.JobSeekerProfile{}, mapError(err)
	}
	return p, nil
}

func (r *ProfileRepository) EmployerByAccountID(ctx context.Context, accountID string) (types.EmployerProfile, error) {
	const query = `
		SELECT id, user_id, company_name, industry, company_size, website,
			company_description, headquarters_location, is_verified, created_at, updated_at
		FROM employers
		WHERE user_id = $1`
	var p types.EmployerProfile
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(
		&p.ID,
		&p.AccountID,
		&p.CompanyName,
		&p.Industry,
		&p.CompanySize,
		&p.Website,
		&p.Description,
		&p.Headquarters,
		&p.IsVerified,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return types.EmployerProfile{}, mapError(err)
	}
	return p, nil
}
