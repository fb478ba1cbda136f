package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/medosmotr/examination-api/internal/domain"
	"github.com/medosmotr/examination-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Status transition rules: defines valid transitions between
// recommendation states. Completed and cancelled are terminal.
var validRecommendationTransitions = map[domain.RecommendationStatus][]domain.RecommendationStatus{
	domain.RecommendationStatusPending: {
		domain.RecommendationStatusInProgress,
		domain.RecommendationStatusCompleted,
		domain.RecommendationStatusCancelled,
	},
	domain.RecommendationStatusInProgress: {
		domain.RecommendationStatusCompleted,
		domain.RecommendationStatusCancelled,
	},
	domain.RecommendationStatusCompleted: {},
	domain.RecommendationStatusCancelled: {},
}

func isValidRecommendationTransition(from, to domain.RecommendationStatus) bool {
	for _, allowed := range validRecommendationTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// RecommendationService tracks execution of post-examination directives
type RecommendationService struct {
	recRepo *repository.RecommendationRepository
	logger  *zap.Logger
	db      *gorm.DB
}

func NewRecommendationService(
	recRepo *repository.RecommendationRepository,
	logger *zap.Logger,
	db *gorm.DB,
) *RecommendationService {
	return &RecommendationService{
		recRepo: recRepo,
		logger:  logger,
		db:      db,
	}
}

func (s *RecommendationService) Create(ctx context.Context, clinicID uuid.UUID, req *domain.CreateRecommendationRequest) (*domain.Recommendation, error) {
	if !req.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown recommendation type %q", ErrInvalidInput, req.Type)
	}
	if req.PatientName == "" {
		return nil, fmt.Errorf("%w: patientName is required", ErrInvalidInput)
	}

	rec := &domain.Recommendation{
		ClinicID:       clinicID,
		PatientName:    req.PatientName,
		Type:           req.Type,
		Recommendation: req.Recommendation,
		Status:         domain.RecommendationStatusPending,
		Notes:          req.Notes,
	}

	if err := s.recRepo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create recommendation: %w", err)
	}
	return rec, nil
}

func (s *RecommendationService) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*domain.Recommendation, error) {
	rec, err := s.recRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load recommendation: %w", err)
	}
	if rec.ClinicID != clinicID {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (s *RecommendationService) List(ctx context.Context, clinicID uuid.UUID, page, pageSize int, filters *repository.RecommendationFilters) ([]domain.Recommendation, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return s.recRepo.List(ctx, clinicID, page, pageSize, filters)
}

func (s *RecommendationService) Update(ctx context.Context, clinicID, id uuid.UUID, req *domain.UpdateRecommendationRequest) (*domain.Recommendation, error) {
	rec, err := s.GetByID(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}

	// Text edits are allowed only while the directive is still open
	if rec.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: recommendation is %s", ErrIllegalTransition, rec.Status)
	}

	if req.PatientName != nil {
		if *req.PatientName == "" {
			return nil, fmt.Errorf("%w: patientName cannot be empty", ErrInvalidInput)
		}
		rec.PatientName = *req.PatientName
	}
	if req.Recommendation != nil {
		rec.Recommendation = *req.Recommendation
	}
	if req.Notes != nil {
		rec.Notes = *req.Notes
	}

	if err := s.recRepo.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to update recommendation: %w", err)
	}
	return rec, nil
}

func (s *RecommendationService) Delete(ctx context.Context, clinicID, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, clinicID, id); err != nil {
		return err
	}
	return s.recRepo.Delete(ctx, id)
}

// Transition moves a recommendation to the target status. The row is
// re-read under a lock inside the transaction and the table is checked
// there, so of two racing requests exactly one commits and the other
// fails with the transition error.
func (s *RecommendationService) Transition(ctx context.Context, clinicID, id uuid.UUID, req *domain.TransitionRecommendationRequest) (*domain.Recommendation, error) {
	if !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, req.Status)
	}

	var rec *domain.Recommendation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.recRepo.GetForUpdate(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load recommendation: %w", err)
		}
		if current.ClinicID != clinicID {
			return ErrNotFound
		}

		if !isValidRecommendationTransition(current.Status, req.Status) {
			return fmt.Errorf("%w: cannot move from %s to %s", ErrIllegalTransition, current.Status, req.Status)
		}

		if req.Status == domain.RecommendationStatusCompleted {
			if req.CompletionDate == nil {
				return fmt.Errorf("%w: completionDate is required to complete", ErrInvalidInput)
			}
			current.CompletionDate = req.CompletionDate
		}
		if req.Notes != nil {
			current.Notes = *req.Notes
		}
		current.Status = req.Status

		if err := s.recRepo.Save(tx, current); err != nil {
			return fmt.Errorf("failed to save recommendation: %w", err)
		}
		rec = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("recommendation transitioned",
		zap.String("id", id.String()),
		zap.String("status", string(req.Status)),
	)
	return rec, nil
}
