package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/types"
)

// DefaultProfileTimeout bounds a single profile lookup.
const DefaultProfileTimeout = 3 * time.Second

// ProfileRepository defines lookups of kind-specific profiles by account id.
type ProfileRepository interface {
	JobSeekerByAccountID(ctx context.Context, accountID string) (types.JobSeekerProfile, error)
	EmployerByAccountID(ctx context.Context, accountID string) (types.EmployerProfile, error)
}

// ProfileResolver loads the profile matching an account's kind.
type ProfileResolver struct {
	repo    ProfileRepository
	timeout time.Duration
}

func NewProfileResolver(repo ProfileRepository, timeout time.Duration) *ProfileResolver {
	if timeout <= 0 {
		timeout = DefaultProfileTimeout
	}
	return &ProfileResolver{repo: repo, timeout: timeout}
}

// Resolve returns the account's profile, or nil when the kind has no profile
// or the profile row does not exist yet. It has no side effects.
func (r *ProfileResolver) Resolve(ctx context.Context, accountID string, kind types.AccountKind) (*types.Profile, error) {
	if kind != types.KindJobSeeker && kind != types.KindEmployer {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var (
		profile *types.Profile
		err     error
	)
	switch kind {
	case types.KindJobSeeker:
		var p types.JobSeekerProfile
		if p, err = r.repo.JobSeekerByAccountID(ctx, accountID); err == nil {
			profile = types.NewJobSeekerProfile(p)
		}
	case types.KindEmployer:
		var p types.EmployerProfile
		if p, err = r.repo.EmployerByAccountID(ctx, accountID); err == nil {
			profile = types.NewEmployerProfile(p)
		}
	}

	switch {
	case err == nil:
		return profile, nil
	case errors.Is(err, store.ErrNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("resolve %s profile: %w", kind, err)
	}
}
