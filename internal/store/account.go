package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jobportal/apiserver/types"
)

// AccountRepository handles persistence for accounts.
type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, email, password_hash, user_type, is_active, created_at, updated_at, last_login`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (types.Account, error) {
	var account types.Account
	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.Kind,
		&account.IsActive,
		&account.CreatedAt,
		&account.UpdatedAt,
		&account.LastLogin,
	)
	if err != nil {
		return types.Account{}, mapError(err)
	}
	return account, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (types.Account, error) {
	const query = `
		SELECT ` + accountColumns + `
		FROM users
		WHERE id = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail looks an account up by email, ignoring case.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (types.Account, error) {
	const query = `
		SELECT ` + accountColumns + `
		FROM users
		WHERE LOWER(email) = LOWER($1)`
	return scanAccount(r.db.QueryRowContext(ctx, query, email))
}

func (r *AccountRepository) Create(ctx context.Context, account types.Account) (types.Account, error) {
	return r.insertAccount(ctx, r.db, account)
}

// CreateJobSeeker inserts an account and its job-seeker profile atomically.
func (r *AccountRepository) CreateJobSeeker(ctx context.Context, account types.Account, profile types.JobSeekerProfile) (types.Account, types.JobSeekerProfile, error) {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		created, err := r.insertAccount(ctx, tx, account)
		if err != nil {
			return err
		}
		account = created
		profile.AccountID = created.ID
		profile.CreatedAt = created.CreatedAt
		profile.UpdatedAt = created.CreatedAt

		const query = `
			INSERT INTO job_seekers (
				id, user_id, first_name, last_name, phone_number, location, bio,
				public_profile_url, profile_visibility, availability_status, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
		_, err = tx.ExecContext(
			ctx,
			query,
			profile.ID,
			profile.AccountID,
			profile.FirstName,
			profile.LastName,
			profile.Phone,
			profile.Location,
			profile.Bio,
			profile.PublicProfileSlug,
			profile.Visibility,
			profile.Availability,
			profile.CreatedAt,
			profile.UpdatedAt,
		)
		return mapError(err)
	})
	if err != nil {
		return types.Account{}, types.JobSeekerProfile{}, err
	}
	return account, profile, nil
}

// CreateEmployer inserts an account and its employer profile atomically.
func (r *AccountRepository) CreateEmployer(ctx context.Context, account types.Account, profile types.EmployerProfile) (types.Account, types.EmployerProfile, error) {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		created, err := r.insertAccount(ctx, tx, account)
		if err != nil {
			return err
		}
		account = created
		profile.AccountID = created.ID
		profile.CreatedAt = created.CreatedAt
		profile.UpdatedAt = created.CreatedAt

		const query = `
			INSERT INTO employers (
				id, user_id, company_name, industry, company_size, website,
				company_description, headquarters_location, is_verified, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
		_, err = tx.ExecContext(
			ctx,
			query,
			profile.ID,
			profile.AccountID,
			profile.CompanyName,
			profile.Industry,
			profile.CompanySize,
			profile.Website,
			profile.Description,
			profile.Headquarters,
			profile.IsVerified,
			profile.CreatedAt,
			profile.UpdatedAt,
		)
		return mapError(err)
	})
	if err != nil {
		return types.Account{}, types.EmployerProfile{}, err
	}
	return account, profile, nil
}

// SetActive flips the active flag. Accounts are never deleted.
func (r *AccountRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `
		UPDATE users
		SET is_active = $1,
			updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, active, time.Now().UTC(), id)
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
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *AccountRepository) insertAccount(ctx context.Context, exec execer, account types.Account) (types.Account, error) {
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	account.UpdatedAt = account.CreatedAt

	const query = `
		INSERT INTO users (id, email, password_hash, user_type, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := exec.ExecContext(
		ctx,
		query,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.Kind,
		account.IsActive,
		account.CreatedAt,
		account.UpdatedAt,
	); err != nil {
		return types.Account{}, mapError(err)
	}
	return account, nil
}
