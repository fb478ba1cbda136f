package service_test

import (
	"context"
	"testing"
	"time"

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

func createRecommendationService(db *gorm.DB) *service.RecommendationService {
	return service.NewRecommendationService(repository.NewRecommendationRepository(db), zap.NewNop(), db)
}

func createTestRecommendation(t *testing.T, svc *service.RecommendationService, clinicID uuid.UUID) *domain.Recommendation {
	t.Helper()
	rec, err := svc.Create(context.Background(), clinicID, &domain.CreateRecommendationRequest{
		PatientName:    "Иванов Иван",
		Type:           domain.RecommendationTypeTreatment,
		Recommendation: "Санаторно-курортное лечение",
	})
	require.NoError(t, err)
	return rec
}

func TestRecommendationService_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createRecommendationService(db)
	ctx := context.Background()
	clinicID := uuid.New()

	t.Run("creates in pending status", func(t *testing.T) {
		rec := createTestRecommendation(t, svc, clinicID)
		assert.Equal(t, domain.RecommendationStatusPending, rec.Status)
		assert.Nil(t, rec.CompletionDate)
	})

	t.Run("rejects an unknown type", func(t *testing.T) {
		_, err := svc.Create(ctx, clinicID, &domain.CreateRecommendationRequest{
			PatientName:    "Иванов",
			Type:           domain.RecommendationType("surgery"),
			Recommendation: "text",
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("rejects a nameless patient", func(t *testing.T) {
		_, err := svc.Create(ctx, clinicID, &domain.CreateRecommendationRequest{
			Type:           domain.RecommendationTypeObservation,
			Recommendation: "text",
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func TestRecommendationService_Transition(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createRecommendationService(db)
	ctx := context.Background()
	clinicID := uuid.New()

	completion := time.Now().UTC()

	t.Run("allowed transitions", func(t *testing.T) {
		tests := []struct {
			name  string
			steps []domain.RecommendationStatus
		}{
			{"pending to in_progress to completed", []domain.RecommendationStatus{
				domain.RecommendationStatusInProgress,
				domain.RecommendationStatusCompleted,
			}},
			{"pending straight to completed", []domain.RecommendationStatus{
				domain.RecommendationStatusCompleted,
			}},
			{"pending to cancelled", []domain.RecommendationStatus{
				domain.RecommendationStatusCancelled,
			}},
			{"in_progress to cancelled", []domain.RecommendationStatus{
				domain.RecommendationStatusInProgress,
				domain.RecommendationStatusCancelled,
			}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := createTestRecommendation(t, svc, clinicID)
				for _, target := range tt.steps {
					updated, err := svc.Transition(ctx, clinicID, rec.ID, &domain.TransitionRecommendationRequest{
						Status:         target,
						CompletionDate: &completion,
					})
					require.NoError(t, err)
					assert.Equal(t, target, updated.Status)
				}
			})
		}
	})

	t.Run("terminal states accept no transition", func(t *testing.T) {
		rec := createTestRecommendation(t, svc, clinicID)
		_, err := svc.Transition(ctx, clinicID, rec.ID, &domain.TransitionRecommendationRequest{
			Status: domain.RecommendationStatusCancelled,
		})
		require.NoError(t, err)

		for _, target := range []domain.RecommendationStatus{
			domain.RecommendationStatusPending,
			domain.RecommendationStatusInProgress,
			domain.RecommendationStatusCompleted,
		} {
			_, err := svc.Transition(ctx, clinicID, rec.ID, &domain.TransitionRecommendationRequest{
				Status:         target,
				CompletionDate: &completion,
			})
			assert.ErrorIs(t, err, service.ErrIllegalTransition, "cancelled -> %s", target)
		}
	})

	t.Run("completion requires a completion date", func(t *testing.T) {
		rec := createTestRecommendation(t, svc, clinicID)
		_, err := svc.Transition(ctx, clinicID, rec.ID, &domain.TransitionRecommendationRequest{
			Status: domain.RecommendationStatusCompleted,
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("rejects an unknown status", func(t *testing.T) {
		rec := createTestRecommendation(t, svc, clinicID)
		_, err := svc.Transition(ctx, clinicID, rec.ID, &domain.TransitionRecommendationRequest{
			Status: domain.RecommendationStatus("archived"),
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("hides recommendations of other clinics", func(t *testing.T) {
		rec := createTestRecommendation(t, svc, clinicID)
		_, err := svc.Transition(ctx, uuid.New(), rec.ID, &domain.TransitionRecommendationRequest{
			Status: domain.RecommendationStatusInProgress,
		})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestRecommendationService_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createRecommendationService(db)
	ctx := context.Background()
	clinicID := uuid.New()

	t.Run("edits an open recommendation", func(t *testing.T) {
		rec := createTestRecommendation(t, svc, clinicID)

		text := "Повторный осмотр через месяц"
		updated, err := svc.Update(ctx, clinicID, rec.ID, &domain.UpdateRecommendationRequest{
			Recommendation: &text,
		})
		require.NoError(t, err)
		assert.Equal(t, text, updated.Recommendation)
		assert.Equal(t, "Иванов Иван", updated.PatientName)
	})

	t.Run("refuses edits on a terminal recommendation", func(t *testing.T) {
		rec := createTestRecommendation(t, svc, clinicID)
		_, err := svc.Transition(ctx, clinicID, rec.ID, &domain.TransitionRecommendationRequest{
			Status: domain.RecommendationStatusCancelled,
		})
		require.NoError(t, err)

		text := "late edit"
		_, err = svc.Update(ctx, clinicID, rec.ID, &domain.UpdateRecommendationRequest{
			Recommendation: &text,
		})
		assert.ErrorIs(t, err, service.ErrIllegalTransition)
	})
}

func TestRecommendationService_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createRecommendationService(db)
	ctx := context.Background()
	clinicID := uuid.New()

	first := createTestRecommendation(t, svc, clinicID)
	_, err := svc.Create(ctx, clinicID, &domain.CreateRecommendationRequest{
		PatientName:    "Petrov Petr",
		Type:           domain.RecommendationTypeTransfer,
		Recommendation: "Перевод на лёгкий труд",
	})
	require.NoError(t, err)

	_, err = svc.Transition(ctx, clinicID, first.ID, &domain.TransitionRecommendationRequest{
		Status: domain.RecommendationStatusInProgress,
	})
	require.NoError(t, err)

	t.Run("filters by status", func(t *testing.T) {
		status := domain.RecommendationStatusInProgress
		recs, total, err := svc.List(ctx, clinicID, 1, 50, &repository.RecommendationFilters{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, recs, 1)
		assert.Equal(t, first.ID, recs[0].ID)
	})

	t.Run("filters by type", func(t *testing.T) {
		recType := domain.RecommendationTypeTransfer
		_, total, err := svc.List(ctx, clinicID, 1, 50, &repository.RecommendationFilters{Type: &recType})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("searches by patient name", func(t *testing.T) {
		_, total, err := svc.List(ctx, clinicID, 1, 50, &repository.RecommendationFilters{PatientName: "petrov"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})
}
