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
)

func TestDoctorService(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewDoctorService(repository.NewDoctorRepository(db), zap.NewNop())
	ctx := context.Background()
	clinicID := uuid.New()

	t.Run("creates an available doctor", func(t *testing.T) {
		doctor, err := svc.Create(ctx, clinicID, &domain.CreateDoctorRequest{
			Name:           "Ахметова А. Б.",
			Specialization: "офтальмолог",
			Cabinet:        "203",
		})
		require.NoError(t, err)
		assert.True(t, doctor.Available)
		assert.Equal(t, clinicID, doctor.ClinicID)
	})

	t.Run("requires name and specialization", func(t *testing.T) {
		_, err := svc.Create(ctx, clinicID, &domain.CreateDoctorRequest{Specialization: "терапевт"})
		assert.ErrorIs(t, err, service.ErrInvalidInput)

		_, err = svc.Create(ctx, clinicID, &domain.CreateDoctorRequest{Name: "Без специальности"})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("marks a doctor unavailable", func(t *testing.T) {
		doctor, err := svc.Create(ctx, clinicID, &domain.CreateDoctorRequest{
			Name:           "Смагулов Д.",
			Specialization: "невролог",
		})
		require.NoError(t, err)

		unavailable := false
		updated, err := svc.Update(ctx, clinicID, doctor.ID, &domain.UpdateDoctorRequest{
			Available: &unavailable,
		})
		require.NoError(t, err)
		assert.False(t, updated.Available)
	})

	t.Run("hides doctors of other clinics", func(t *testing.T) {
		doctors, err := svc.List(ctx, clinicID)
		require.NoError(t, err)
		require.Len(t, doctors, 2)

		others, err := svc.List(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, others)

		_, err = svc.GetByID(ctx, uuid.New(), doctors[0].ID)
		assert.ErrorIs(t, err, service.ErrNotFound)

		err = svc.Delete(ctx, uuid.New(), doctors[0].ID)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}
