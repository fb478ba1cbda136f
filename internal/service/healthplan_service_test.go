package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/medosmotr/examination-api/internal/domain"
	"github.com/medosmotr/examination-api/internal/repository"
	"github.com/medosmotr/examination-api/internal/service"
	"github.com/medosmotr/examination-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func createHealthPlanService(db *gorm.DB) *service.HealthPlanService {
	return service.NewHealthPlanService(repository.NewHealthPlanRepository(db), zap.NewNop(), db)
}

func TestHealthPlanService_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createHealthPlanService(db)
	ctx := context.Background()
	employerID := uuid.New()

	t.Run("opens a draft plan", func(t *testing.T) {
		plan, err := svc.Create(ctx, employerID, &domain.CreatePlanRequest{
			Year: 2026,
			Activities: []domain.PlanActivity{
				{Activity: "Вакцинация от гриппа", Responsible: "HR", Deadline: "2026-10-01"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, domain.PlanStatusDraft, plan.Status)
		assert.Nil(t, plan.SubmittedAt)
		require.Len(t, plan.Activities, 1)
	})

	t.Run("rejects a second plan for the same year", func(t *testing.T) {
		_, err := svc.Create(ctx, employerID, &domain.CreatePlanRequest{Year: 2026})
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("allows the same year for another employer", func(t *testing.T) {
		_, err := svc.Create(ctx, uuid.New(), &domain.CreatePlanRequest{Year: 2026})
		require.NoError(t, err)
	})

	t.Run("rejects a year out of range", func(t *testing.T) {
		_, err := svc.Create(ctx, employerID, &domain.CreatePlanRequest{Year: 1999})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func TestHealthPlanService_Lifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createHealthPlanService(db)
	ctx := context.Background()
	employerID := uuid.New()

	plan, err := svc.Create(ctx, employerID, &domain.CreatePlanRequest{Year: 2026})
	require.NoError(t, err)

	t.Run("approval requires submission first", func(t *testing.T) {
		_, err := svc.Approve(ctx, employerID, plan.ID)
		assert.ErrorIs(t, err, service.ErrIllegalTransition)
	})

	t.Run("submit moves the draft to pending review", func(t *testing.T) {
		submitted, err := svc.Submit(ctx, employerID, plan.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PlanStatusPendingTSB, submitted.Status)
		assert.NotNil(t, submitted.SubmittedAt)
	})

	t.Run("a second submit fails", func(t *testing.T) {
		_, err := svc.Submit(ctx, employerID, plan.ID)
		assert.ErrorIs(t, err, service.ErrIllegalTransition)
	})

	t.Run("pending plans are not editable", func(t *testing.T) {
		_, err := svc.Update(ctx, employerID, plan.ID, &domain.UpdatePlanRequest{
			Activities: []domain.PlanActivity{{Activity: "late edit"}},
		})
		assert.ErrorIs(t, err, service.ErrIllegalTransition)
	})

	t.Run("approve finalizes the plan", func(t *testing.T) {
		approved, err := svc.Approve(ctx, employerID, plan.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PlanStatusApproved, approved.Status)
		assert.NotNil(t, approved.ApprovedAt)
	})

	t.Run("approved is terminal", func(t *testing.T) {
		_, err := svc.Submit(ctx, employerID, plan.ID)
		assert.ErrorIs(t, err, service.ErrIllegalTransition)

		_, err = svc.Approve(ctx, employerID, plan.ID)
		assert.ErrorIs(t, err, service.ErrIllegalTransition)
	})

	t.Run("hides plans of other employers", func(t *testing.T) {
		_, err := svc.GetByID(ctx, uuid.New(), plan.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)

		_, err = svc.Submit(ctx, uuid.New(), plan.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestHealthPlanService_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createHealthPlanService(db)
	ctx := context.Background()
	employerID := uuid.New()

	plan, err := svc.Create(ctx, employerID, &domain.CreatePlanRequest{
		Year:       2027,
		Activities: []domain.PlanActivity{{Activity: "Спортзал", Responsible: "HR", Deadline: "2027-03-01"}},
	})
	require.NoError(t, err)

	t.Run("replaces the activity rows of a draft", func(t *testing.T) {
		updated, err := svc.Update(ctx, employerID, plan.ID, &domain.UpdatePlanRequest{
			Activities: []domain.PlanActivity{
				{Activity: "Спортзал", Responsible: "HR", Deadline: "2027-03-01"},
				{Activity: "Диспансеризация", Responsible: "Медслужба", Deadline: "2027-06-01"},
			},
		})
		require.NoError(t, err)
		assert.Len(t, updated.Activities, 2)

		reloaded, err := svc.GetByID(ctx, employerID, plan.ID)
		require.NoError(t, err)
		require.Len(t, reloaded.Activities, 2)
		assert.Equal(t, "Диспансеризация", reloaded.Activities[1].Activity)
	})

	t.Run("lists the employer's plans", func(t *testing.T) {
		plans, err := svc.List(ctx, employerID)
		require.NoError(t, err)
		assert.Len(t, plans, 1)
	})

	t.Run("deletes a plan", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, employerID, plan.ID))
		_, err := svc.GetByID(ctx, employerID, plan.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}
