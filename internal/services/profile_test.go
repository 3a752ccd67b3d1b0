package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobportal/apiserver/types"
)

type slowProfiles struct{ calls int }

func (s *slowProfiles) JobSeekerByAccountID(ctx context.Context, _ string) (types.JobSeekerProfile, error) {
	s.calls++
	<-ctx.Done()
	return types.JobSeekerProfile{}, ctx.Err()
}

func (s *slowProfiles) EmployerByAccountID(context.Context, string) (types.EmployerProfile, error) {
	s.calls++
	return types.EmployerProfile{}, errors.New("connection reset")
}

func TestProfileResolver_Resolve(t *testing.T) {
	s := seededStore(t)
	resolver := NewProfileResolver(s.Profiles(), time.Second)
	ctx := context.Background()

	seeker, err := resolver.Resolve(ctx, demoAccountID, types.KindJobSeeker)
	require.NoError(t, err)
	require.NotNil(t, seeker)
	assert.Equal(t, types.KindJobSeeker, seeker.Kind)
	assert.Equal(t, demoProfileID, seeker.JobSeeker.ID)
	assert.Equal(t, "Demo User", seeker.DisplayName())

	employer, err := resolver.Resolve(ctx, acmeAccountID, types.KindEmployer)
	require.NoError(t, err)
	require.NotNil(t, employer)
	assert.Equal(t, acmeEmployer, employer.Employer.ID)

	missing, err := resolver.Resolve(ctx, newbieAccountID, types.KindJobSeeker)
	require.NoError(t, err)
	assert.Nil(t, missing)

	admin, err := resolver.Resolve(ctx, adminAccountID, types.KindAdmin)
	require.NoError(t, err)
	assert.Nil(t, admin)
}

func TestProfileResolver_NoStoreAccessForProfilelessKinds(t *testing.T) {
	repo := &slowProfiles{}
	resolver := NewProfileResolver(repo, time.Millisecond)

	for _, kind := range []types.AccountKind{types.KindAdmin, types.KindGuest, ""} {
		p, err := resolver.Resolve(context.Background(), "x", kind)
		assert.NoError(t, err)
		assert.Nil(t, p)
	}
	assert.Zero(t, repo.calls)
}

func TestProfileResolver_TimeoutAndStoreErrors(t *testing.T) {
	repo := &slowProfiles{}
	resolver := NewProfileResolver(repo, 10*time.Millisecond)

	p, err := resolver.Resolve(context.Background(), "x", types.KindJobSeeker)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	p, err = resolver.Resolve(context.Background(), "x", types.KindEmployer)
	assert.Nil(t, p)
	assert.Error(t, err)
}

func TestProfileResolver_DefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultProfileTimeout, NewProfileResolver(nil, 0).timeout)
}
