package service_test

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/medosmotr/examination-api/internal/documents"
	"github.com/medosmotr/examination-api/internal/domain"
	"github.com/medosmotr/examination-api/internal/repository"
	"github.com/medosmotr/examination-api/internal/service"
	"github.com/medosmotr/examination-api/internal/storage"
	"github.com/medosmotr/examination-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func createDocumentService(t *testing.T, db *gorm.DB) *service.DocumentService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	return service.NewDocumentService(
		repository.NewDocumentRepository(db),
		repository.NewEmployeeRepository(db),
		repository.NewHealthPlanRepository(db),
		repository.NewRecommendationRepository(db),
		store,
		zap.NewNop(),
	)
}

func TestDocumentService_Generate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	docSvc := createDocumentService(t, db)
	ctx := context.Background()
	employerID := uuid.New()

	t.Run("refuses to render an empty roster", func(t *testing.T) {
		_, err := docSvc.Generate(ctx, employerID, employerID, documents.KindContingentRoster)
		assert.ErrorIs(t, err, service.ErrNothingToGenerate)
	})

	t.Run("renders and stores the roster export", func(t *testing.T) {
		employeeSvc := createEmployeeService(db)
		_, err := employeeSvc.Create(ctx, employerID, &domain.CreateEmployeeRequest{
			Name:           "Иванов Иван",
			Position:       "Сварщик",
			HarmfulFactors: []string{"шум"},
		})
		require.NoError(t, err)

		doc, err := docSvc.Generate(ctx, employerID, employerID, documents.KindContingentRoster)
		require.NoError(t, err)
		assert.Equal(t, string(documents.KindContingentRoster), doc.Kind)
		assert.Greater(t, doc.Size, int64(0))
		assert.NotEmpty(t, doc.StoragePath)

		// The stored artifact must open as a workbook
		loaded, reader, err := docSvc.Download(ctx, employerID, doc.ID)
		require.NoError(t, err)
		defer reader.Close()
		assert.Equal(t, doc.FileName, loaded.FileName)

		f, err := excelize.OpenReader(reader)
		require.NoError(t, err)
		defer f.Close()

		rows, err := f.GetRows(f.GetSheetName(0))
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Иванов Иван", rows[1][0])
	})

	t.Run("renders an approved plan", func(t *testing.T) {
		planSvc := createHealthPlanService(db)
		plan, err := planSvc.Create(ctx, employerID, &domain.CreatePlanRequest{
			Year:       2026,
			Activities: []domain.PlanActivity{{Activity: "Вакцинация", Responsible: "HR", Deadline: "2026-10-01"}},
		})
		require.NoError(t, err)

		doc, err := docSvc.Generate(ctx, employerID, plan.ID, documents.KindHealthPlan)
		require.NoError(t, err)
		assert.Equal(t, "health_plan_2026.xlsx", doc.FileName)
	})

	t.Run("hides plans of other employers", func(t *testing.T) {
		planSvc := createHealthPlanService(db)
		plan, err := planSvc.Create(ctx, employerID, &domain.CreatePlanRequest{
			Year:       2027,
			Activities: []domain.PlanActivity{{Activity: "Спортзал"}},
		})
		require.NoError(t, err)

		_, err = docSvc.Generate(ctx, uuid.New(), plan.ID, documents.KindHealthPlan)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("refuses a plan without activities", func(t *testing.T) {
		planSvc := createHealthPlanService(db)
		plan, err := planSvc.Create(ctx, employerID, &domain.CreatePlanRequest{Year: 2028})
		require.NoError(t, err)

		_, err = docSvc.Generate(ctx, employerID, plan.ID, documents.KindHealthPlan)
		assert.ErrorIs(t, err, service.ErrNothingToGenerate)
	})

	t.Run("renders the recommendations report", func(t *testing.T) {
		clinicID := uuid.New()
		recSvc := createRecommendationService(db)
		_, err := recSvc.Create(ctx, clinicID, &domain.CreateRecommendationRequest{
			PatientName:    "Петров Петр",
			Type:           domain.RecommendationTypeObservation,
			Recommendation: "Диспансерное наблюдение",
		})
		require.NoError(t, err)

		doc, err := docSvc.Generate(ctx, clinicID, clinicID, documents.KindRecommendationsReport)
		require.NoError(t, err)
		assert.Greater(t, doc.Size, int64(0))
	})

	t.Run("rejects an unknown kind", func(t *testing.T) {
		_, err := docSvc.Generate(ctx, employerID, employerID, documents.Kind("pdf_report"))
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func TestDocumentService_ListAndDownload(t *testing.T) {
	db := testutil.SetupTestDB(t)
	docSvc := createDocumentService(t, db)
	ctx := context.Background()
	employerID := uuid.New()

	employeeSvc := createEmployeeService(db)
	_, err := employeeSvc.Create(ctx, employerID, &domain.CreateEmployeeRequest{Name: "Иванов"})
	require.NoError(t, err)

	first, err := docSvc.Generate(ctx, employerID, employerID, documents.KindContingentRoster)
	require.NoError(t, err)
	second, err := docSvc.Generate(ctx, employerID, employerID, documents.KindContingentRoster)
	require.NoError(t, err)

	t.Run("lists artifacts for the entity", func(t *testing.T) {
		docs, err := docSvc.ListByEntity(ctx, employerID, employerID)
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})

	t.Run("downloads the stored bytes", func(t *testing.T) {
		doc, reader, err := docSvc.Download(ctx, employerID, first.ID)
		require.NoError(t, err)
		defer reader.Close()

		data, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, doc.Size, int64(len(data)))
		assert.Equal(t, second.Kind, doc.Kind)
	})

	t.Run("unknown document id fails", func(t *testing.T) {
		_, _, err := docSvc.Download(ctx, employerID, uuid.New())
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestDocumentService_OwnershipIsolation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	docSvc := createDocumentService(t, db)
	ctx := context.Background()
	employerID := uuid.New()
	strangerID := uuid.New()

	employeeSvc := createEmployeeService(db)
	_, err := employeeSvc.Create(ctx, employerID, &domain.CreateEmployeeRequest{Name: "Иванов"})
	require.NoError(t, err)

	doc, err := docSvc.Generate(ctx, employerID, employerID, documents.KindContingentRoster)
	require.NoError(t, err)

	t.Run("cannot render another organization's roster", func(t *testing.T) {
		_, err := docSvc.Generate(ctx, strangerID, employerID, documents.KindContingentRoster)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("cannot render another clinic's report", func(t *testing.T) {
		_, err := docSvc.Generate(ctx, strangerID, employerID, documents.KindRecommendationsReport)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("cannot download another organization's artifact", func(t *testing.T) {
		_, _, err := docSvc.Download(ctx, strangerID, doc.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("cannot list another organization's artifacts", func(t *testing.T) {
		_, err := docSvc.ListByEntity(ctx, strangerID, employerID)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("plan exports stay with the plan's employer", func(t *testing.T) {
		planSvc := createHealthPlanService(db)
		plan, err := planSvc.Create(ctx, employerID, &domain.CreatePlanRequest{
			Year:       2026,
			Activities: []domain.PlanActivity{{Activity: "Вакцинация"}},
		})
		require.NoError(t, err)

		planDoc, err := docSvc.Generate(ctx, employerID, plan.ID, documents.KindHealthPlan)
		require.NoError(t, err)

		_, _, err = docSvc.Download(ctx, strangerID, planDoc.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)

		_, err = docSvc.ListByEntity(ctx, strangerID, plan.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)

		docs, err := docSvc.ListByEntity(ctx, employerID, plan.ID)
		require.NoError(t, err)
		assert.Len(t, docs, 1)
	})
}
