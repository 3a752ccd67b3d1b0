// Package fixtures embeds the development dataset and loads it into any store backend.
package fixtures

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/jobportal/apiserver/types"
)

//go:embed seed.json
var seedJSON []byte

// Account is a seed account. Password is plaintext and hashed at load time.
type Account struct {
	types.Account
	Password  string                  `json:"password"`
	JobSeeker *types.JobSeekerProfile `json:"job_seeker,omitempty"`
	Employer  *types.EmployerProfile  `json:"employer,omitempty"`
}

type Dataset struct {
	Accounts     []Account           `json:"accounts"`
	JobPostings  []types.JobPosting  `json:"job_postings"`
	Applications []types.Application `json:"applications"`
}

// Load decodes the embedded dataset.
func Load() (Dataset, error) {
	var ds Dataset
	if err := json.Unmarshal(seedJSON, &ds); err != nil {
		return Dataset{}, fmt.Errorf("decode seed data: %w", err)
	}
	return ds, nil
}

type Hasher interface {
	Hash(password string) (string, error)
}

type AccountWriter interface {
	Create(ctx context.Context, account types.Account) (types.Account, error)
	CreateJobSeeker(ctx context.Context, account types.Account, profile types.JobSeekerProfile) (types.Account, types.JobSeekerProfile, error)
	CreateEmployer(ctx context.Context, account types.Account, profile types.EmployerProfile) (types.Account, types.EmployerProfile, error)
}

type JobPostingWriter interface {
	Create(ctx context.Context, jp types.JobPosting) (types.JobPosting, error)
}

type ApplicationWriter interface {
	Create(ctx context.Context, app types.Application) (types.Application, error)
}

// Target is the set of repositories a dataset is written into.
type Target struct {
	Accounts     AccountWriter
	JobPostings  JobPostingWriter
	Applications ApplicationWriter
}

// Seed writes ds into target in dependency order.
func Seed(ctx context.Context, ds Dataset, target Target, hasher Hasher) error {
	for _, a := range ds.Accounts {
		hash, err := hasher.Hash(a.Password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", a.Email, err)
		}
		account := a.Account
		account.PasswordHash = hash

		switch {
		case a.JobSeeker != nil:
			_, _, err = target.Accounts.CreateJobSeeker(ctx, account, *a.JobSeeker)
		case a.Employer != nil:
			_, _, err = target.Accounts.CreateEmployer(ctx, account, *a.Employer)
		default:
			_, err = target.Accounts.Create(ctx, account)
		}
		if err != nil {
			return fmt.Errorf("seed account %s: %w", a.Email, err)
		}
	}

	for _, jp := range ds.JobPostings {
		if _, err := target.JobPostings.Create(ctx, jp); err != nil {
			return fmt.Errorf("seed job posting %s: %w", jp.Slug, err)
		}
	}

	for _, app := range ds.Applications {
		if _, err := target.Applications.Create(ctx, app); err != nil {
			return fmt.Errorf("seed application %s: %w", app.ID, err)
		}
	}
	return nil
}
