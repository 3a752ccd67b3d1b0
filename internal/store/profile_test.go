package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jobportal/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileRepository_JobSeekerByAccountID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepository(db)

	cols := []string{"id", "user_id", "first_name", "last_name", "phone_number", "location", "bio",
		"public_profile_url", "profile_visibility", "availability_status", "created_at", "updated_at"}
	mock.ExpectQuery(`(?s)FROM job_seekers\s+WHERE user_id = \$1`).
		WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"js-1", "a-1", "Demo", "User", nil, "Berlin", nil,
			"demo-user", "PUBLIC", "ACTIVELY_LOOKING", fixedTime, fixedTime,
		))

	got, err := repo.JobSeekerByAccountID(context.Background(), "a-1")
	require.NoError(t, err)
	assert.Equal(t, "Demo", got.FirstName)
	assert.Nil(t, got.Phone)
	require.NotNil(t, got.Location)
	assert.Equal(t, "Berlin", *got.Location)
	assert.Equal(t, types.AvailabilityActivelyLooking, got.Availability)
}

func TestProfileRepository_EmployerByAccountID_Missing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepository(db)

	mock.ExpectQuery(`(?s)FROM employers\s+WHERE user_id = \$1`).
		WithArgs("a-9").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.EmployerByAccountID(context.Background(), "a-9")
	assert.ErrorIs(t, err, ErrNotFound)
}
