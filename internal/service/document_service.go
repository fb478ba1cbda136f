package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/medosmotr/examination-api/internal/documents"
	"github.com/medosmotr/examination-api/internal/domain"
	"github.com/medosmotr/examination-api/internal/repository"
	"github.com/medosmotr/examination-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DocumentService decides when an artifact can be generated, renders it
// and persists it through the configured storage backend
type DocumentService struct {
	docRepo      *repository.DocumentRepository
	employeeRepo *repository.EmployeeRepository
	planRepo     *repository.HealthPlanRepository
	recRepo      *repository.RecommendationRepository
	store        storage.Storage
	logger       *zap.Logger
}

func NewDocumentService(
	docRepo *repository.DocumentRepository,
	employeeRepo *repository.EmployeeRepository,
	planRepo *repository.HealthPlanRepository,
	recRepo *repository.RecommendationRepository,
	store storage.Storage,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		docRepo:      docRepo,
		employeeRepo: employeeRepo,
		planRepo:     planRepo,
		recRepo:      recRepo,
		store:        store,
		logger:       logger,
	}
}

// render builds the workbook for the kind. An empty source set
// short-circuits generation.
func (s *DocumentService) render(ctx context.Context, ownerID, entityID uuid.UUID, kind documents.Kind) (*bytes.Buffer, string, error) {
	switch kind {
	case documents.KindContingentRoster:
		// The roster entity is the employer itself
		if entityID != ownerID {
			return nil, "", ErrNotFound
		}
		employees, err := s.employeeRepo.ListByEmployer(ctx, entityID)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load roster: %w", err)
		}
		if len(employees) == 0 {
			return nil, "", ErrNothingToGenerate
		}
		buf, err := documents.BuildContingentWorkbook(employees)
		return buf, fmt.Sprintf("contingent_%s.xlsx", time.Now().Format("2006-01-02")), err

	case documents.KindHealthPlan:
		plan, err := s.planRepo.GetByID(ctx, entityID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, "", ErrNotFound
			}
			return nil, "", fmt.Errorf("failed to load plan: %w", err)
		}
		if plan.EmployerID != ownerID {
			return nil, "", ErrNotFound
		}
		if len(plan.Activities) == 0 {
			return nil, "", ErrNothingToGenerate
		}
		buf, err := documents.BuildPlanWorkbook(plan)
		return buf, fmt.Sprintf("health_plan_%d.xlsx", plan.Year), err

	case documents.KindRecommendationsReport:
		// The report entity is the clinic itself
		if entityID != ownerID {
			return nil, "", ErrNotFound
		}
		recs, total, err := s.recRepo.List(ctx, entityID, 1, 10000, nil)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load recommendations: %w", err)
		}
		if total == 0 {
			return nil, "", ErrNothingToGenerate
		}
		buf, err := documents.BuildRecommendationsWorkbook(recs)
		return buf, fmt.Sprintf("recommendations_%s.xlsx", time.Now().Format("2006-01-02")), err

	default:
		return nil, "", fmt.Errorf("%w: unknown document kind %q", ErrInvalidInput, kind)
	}
}

// Generate renders the artifact, stores it and records the reference
func (s *DocumentService) Generate(ctx context.Context, ownerID, entityID uuid.UUID, kind documents.Kind) (*domain.GeneratedDocument, error) {
	buf, fileName, err := s.render(ctx, ownerID, entityID, kind)
	if err != nil {
		return nil, err
	}

	storagePath, size, err := s.store.Upload(ctx, fileName,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf)
	if err != nil {
		return nil, fmt.Errorf("failed to store artifact: %w", err)
	}

	doc := &domain.GeneratedDocument{
		EntityID:    entityID,
		Kind:        string(kind),
		StoragePath: storagePath,
		FileName:    fileName,
		Size:        size,
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to record artifact: %w", err)
	}

	s.logger.Info("document generated",
		zap.String("kind", string(kind)),
		zap.String("entity_id", entityID.String()),
		zap.Int64("size", size),
	)
	return doc, nil
}

// ownerOf resolves which organization a stored artifact belongs to.
// Roster and recommendation reports are keyed by the organization
// itself; a plan export belongs to the plan's employer.
func (s *DocumentService) ownerOf(ctx context.Context, doc *domain.GeneratedDocument) (uuid.UUID, error) {
	if documents.Kind(doc.Kind) != documents.KindHealthPlan {
		return doc.EntityID, nil
	}
	plan, err := s.planRepo.GetByID(ctx, doc.EntityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to load plan: %w", err)
	}
	return plan.EmployerID, nil
}

// Download streams a stored artifact to its owner
func (s *DocumentService) Download(ctx context.Context, ownerID, id uuid.UUID) (*domain.GeneratedDocument, io.ReadCloser, error) {
	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to load document: %w", err)
	}

	owner, err := s.ownerOf(ctx, doc)
	if err != nil {
		return nil, nil, err
	}
	if owner != ownerID {
		return nil, nil, ErrNotFound
	}

	reader, err := s.store.Download(ctx, doc.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	return doc, reader, nil
}

// ListByEntity returns artifact references for an entity the caller owns
func (s *DocumentService) ListByEntity(ctx context.Context, ownerID, entityID uuid.UUID) ([]domain.GeneratedDocument, error) {
	if entityID != ownerID {
		// The only entity that is not the organization itself is a plan
		plan, err := s.planRepo.GetByID(ctx, entityID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("failed to load plan: %w", err)
		}
		if plan.EmployerID != ownerID {
			return nil, ErrNotFound
		}
	}
	return s.docRepo.ListByEntity(ctx, entityID)
}
