package jobs_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/medosmotr/examination-api/internal/domain"
	"github.com/medosmotr/examination-api/internal/jobs"
	"github.com/medosmotr/examination-api/internal/repository"
	"github.com/medosmotr/examination-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestChallengeSweepJob(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewChallengeRepository(db)

	expired := &domain.Challenge{
		Phone:    "77011111111",
		Code:     "111111",
		IssuedAt: time.Now().UTC().Add(-time.Hour),
	}
	live := &domain.Challenge{
		Phone:    "77012222222",
		Code:     "222222",
		IssuedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(expired).Error)
	require.NoError(t, db.Create(live).Error)

	job := jobs.NewChallengeSweepJob(repo, 5*time.Minute, zap.NewNop())
	job.Run()

	var phones []string
	require.NoError(t, db.Model(&domain.Challenge{}).Pluck("phone", &phones).Error)
	assert.Equal(t, []string{"77012222222"}, phones)
}

func TestExaminationDueJob(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewEmployeeRepository(db)
	employerID := uuid.New()

	past := time.Now().UTC().AddDate(0, -1, 0)
	future := time.Now().UTC().AddDate(0, 6, 0)

	overdue := &domain.ContingentEmployee{
		EmployerID:          employerID,
		Name:                "Overdue Employee",
		NameKey:             "overdue employee",
		NextExaminationDate: &past,
	}
	upcoming := &domain.ContingentEmployee{
		EmployerID:          employerID,
		Name:                "Upcoming Employee",
		NameKey:             "upcoming employee",
		NextExaminationDate: &future,
	}
	unscheduled := &domain.ContingentEmployee{
		EmployerID: employerID,
		Name:       "Unscheduled Employee",
		NameKey:    "unscheduled employee",
	}
	require.NoError(t, db.Create(overdue).Error)
	require.NoError(t, db.Create(upcoming).Error)
	require.NoError(t, db.Create(unscheduled).Error)

	job := jobs.NewExaminationDueJob(repo, zap.NewNop())
	job.Run()

	check := func(id uuid.UUID) bool {
		var employee domain.ContingentEmployee
		require.NoError(t, db.First(&employee, "id = ?", id).Error)
		return employee.ExaminationDue
	}
	assert.True(t, check(overdue.ID))
	assert.False(t, check(upcoming.ID))
	assert.False(t, check(unscheduled.ID))

	// A second run flags nothing new
	job.Run()
	assert.True(t, check(overdue.ID))
}
