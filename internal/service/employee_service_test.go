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

func createEmployeeService(db *gorm.DB) *service.EmployeeService {
	return service.NewEmployeeService(repository.NewEmployeeRepository(db), zap.NewNop(), db)
}

func TestEmployeeService_CRUD(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createEmployeeService(db)
	ctx := context.Background()
	employerID := uuid.New()

	t.Run("creates a roster row", func(t *testing.T) {
		employee, err := svc.Create(ctx, employerID, &domain.CreateEmployeeRequest{
			Name:           "Иванов Иван",
			Position:       "Сварщик",
			Department:     "Цех 2",
			HarmfulFactors: []string{"шум", "пыль"},
		})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, employee.ID)
		assert.Equal(t, "иванов иван", employee.NameKey)
		assert.Equal(t, employerID, employee.EmployerID)
	})

	t.Run("rejects a nameless row", func(t *testing.T) {
		_, err := svc.Create(ctx, employerID, &domain.CreateEmployeeRequest{})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("updates and recomputes the name key", func(t *testing.T) {
		employee, err := svc.Create(ctx, employerID, &domain.CreateEmployeeRequest{Name: "Петров Петр"})
		require.NoError(t, err)

		newName := "Петров  Пётр"
		updated, err := svc.Update(ctx, employerID, employee.ID, &domain.UpdateEmployeeRequest{Name: &newName})
		require.NoError(t, err)
		assert.Equal(t, "петров пётр", updated.NameKey)
	})

	t.Run("setting the next examination date clears the due flag", func(t *testing.T) {
		employee, err := svc.Create(ctx, employerID, &domain.CreateEmployeeRequest{Name: "Сидоров"})
		require.NoError(t, err)

		require.NoError(t, db.Model(&domain.ContingentEmployee{}).
			Where("id = ?", employee.ID).
			Update("examination_due", true).Error)

		next := time.Now().AddDate(0, 6, 0)
		updated, err := svc.Update(ctx, employerID, employee.ID, &domain.UpdateEmployeeRequest{
			NextExaminationDate: &next,
		})
		require.NoError(t, err)
		assert.False(t, updated.ExaminationDue)
	})

	t.Run("hides rows of other employers", func(t *testing.T) {
		employee, err := svc.Create(ctx, employerID, &domain.CreateEmployeeRequest{Name: "Чужой Сотрудник"})
		require.NoError(t, err)

		_, err = svc.GetByID(ctx, uuid.New(), employee.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)

		err = svc.Delete(ctx, uuid.New(), employee.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("deletes a row", func(t *testing.T) {
		employee, err := svc.Create(ctx, employerID, &domain.CreateEmployeeRequest{Name: "Удаляемый"})
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, employerID, employee.ID))

		_, err = svc.GetByID(ctx, employerID, employee.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestEmployeeService_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createEmployeeService(db)
	ctx := context.Background()
	employerID := uuid.New()

	names := []string{"Ivanov Ivan", "Petrov Petr", "Sidorova Anna"}
	for _, name := range names {
		_, err := svc.Create(ctx, employerID, &domain.CreateEmployeeRequest{
			Name:       name,
			Department: "Цех 1",
		})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, employerID, &domain.CreateEmployeeRequest{
		Name:       "Kuznetsov Oleg",
		Department: "Офис",
	})
	require.NoError(t, err)

	t.Run("returns the employer's roster", func(t *testing.T) {
		employees, total, err := svc.List(ctx, employerID, 1, 50, nil, "")
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Len(t, employees, 4)
	})

	t.Run("filters by name search", func(t *testing.T) {
		employees, total, err := svc.List(ctx, employerID, 1, 50, &repository.EmployeeFilters{Search: "ivanov"}, "")
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, employees, 1)
		assert.Equal(t, "Ivanov Ivan", employees[0].Name)
	})

	t.Run("filters by department", func(t *testing.T) {
		dept := "Офис"
		_, total, err := svc.List(ctx, employerID, 1, 50, &repository.EmployeeFilters{Department: &dept}, "")
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("paginates", func(t *testing.T) {
		employees, total, err := svc.List(ctx, employerID, 2, 3, nil, "")
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Len(t, employees, 1)
	})

	t.Run("another employer sees nothing", func(t *testing.T) {
		_, total, err := svc.List(ctx, uuid.New(), 1, 50, nil, "")
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
	})
}

func TestEmployeeService_BulkImport(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createEmployeeService(db)
	ctx := context.Background()
	employerID := uuid.New()

	t.Run("creates valid rows and reports skip reasons", func(t *testing.T) {
		rows := []domain.ImportRow{
			{Name: "Иванов Иван", Position: "Сварщик", NationalID: "900101300100"},
			{Name: "Петров Петр", Position: "Водитель"},
			{Name: "петров  петр"}, // in-file duplicate by normalized name
			{Name: ""},             // no name
			{Name: "Сидорова Анна", HarmfulFactors: []string{"шум"}},
		}

		result, err := svc.BulkImport(ctx, employerID, rows)
		require.NoError(t, err)
		assert.Equal(t, 3, result.Created)
		assert.Equal(t, 2, result.Skipped)
		assert.Equal(t, 1, result.SkippedReasons.Duplicate)
		assert.Equal(t, 1, result.SkippedReasons.NoName)
		assert.Equal(t, 0, result.SkippedReasons.Invalid)
	})

	t.Run("re-import skips existing rows", func(t *testing.T) {
		result, err := svc.BulkImport(ctx, employerID, []domain.ImportRow{
			{Name: "Иванов Иван", NationalID: "900101300100"},
			{Name: "Новый Сотрудник"},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Created)
		assert.Equal(t, 1, result.SkippedReasons.Duplicate)
	})

	t.Run("same name with a different national id is a new person", func(t *testing.T) {
		result, err := svc.BulkImport(ctx, employerID, []domain.ImportRow{
			{Name: "Иванов Иван", NationalID: "850505400200"},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Created)
	})

	t.Run("national id match skips despite a corrected name", func(t *testing.T) {
		result, err := svc.BulkImport(ctx, employerID, []domain.ImportRow{
			{Name: "Иванов И. И.", NationalID: "900101300100"},
		})
		require.NoError(t, err)
		assert.Equal(t, 0, result.Created)
		assert.Equal(t, 1, result.SkippedReasons.Duplicate)
	})

	t.Run("ten row file yields seven created and three skipped", func(t *testing.T) {
		rows := []domain.ImportRow{
			{Name: "Иванов Иван", Position: "Сварщик"},
			{Name: "Петров Петр", Position: "Водитель"},
			{Name: "Сидорова Анна", Department: "Цех 1"},
			{Name: "Кузнецов Олег"},
			{Name: "иванов  иван"}, // in-file duplicate by normalized name
			{Name: "Смирнова Ольга"},
			{Name: ""}, // no name
			{Name: "Ахметов Болат", NationalID: "880202300300"},
			{Name: "ПЕТРОВ ПЕТР"}, // in-file duplicate, case only
			{Name: "Жумабаева Айгуль"},
		}

		result, err := svc.BulkImport(ctx, uuid.New(), rows)
		require.NoError(t, err)
		assert.Equal(t, 7, result.Created)
		assert.Equal(t, 3, result.Skipped)
		assert.Equal(t, 2, result.SkippedReasons.Duplicate)
		assert.Equal(t, 1, result.SkippedReasons.NoName)
		assert.Equal(t, 0, result.SkippedReasons.Invalid)
	})

	t.Run("rosters of different employers do not collide", func(t *testing.T) {
		result, err := svc.BulkImport(ctx, uuid.New(), []domain.ImportRow{
			{Name: "Иванов Иван", NationalID: "900101300100"},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Created)
	})
}
