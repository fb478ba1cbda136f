package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/medosmotr/examination-api/internal/domain"
	"github.com/medosmotr/examination-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Status transition rules: draft plans are submitted for TSB review and
// only pending plans can be approved. Approved is terminal.
var validPlanTransitions = map[domain.PlanStatus][]domain.PlanStatus{
	domain.PlanStatusDraft:      {domain.PlanStatusPendingTSB},
	domain.PlanStatusPendingTSB: {domain.PlanStatusApproved},
	domain.PlanStatusApproved:   {},
}

func isValidPlanTransition(from, to domain.PlanStatus) bool {
	for _, allowed := range validPlanTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// HealthPlanService manages annual health improvement plans
type HealthPlanService struct {
	planRepo *repository.HealthPlanRepository
	logger   *zap.Logger
	db       *gorm.DB
}

func NewHealthPlanService(
	planRepo *repository.HealthPlanRepository,
	logger *zap.Logger,
	db *gorm.DB,
) *HealthPlanService {
	return &HealthPlanService{
		planRepo: planRepo,
		logger:   logger,
		db:       db,
	}
}

// Create opens a draft plan. (employer, year) is unique: a second plan
// for the same year fails with a conflict.
func (s *HealthPlanService) Create(ctx context.Context, employerID uuid.UUID, req *domain.CreatePlanRequest) (*domain.HealthImprovementPlan, error) {
	if req.Year < 2000 || req.Year > 2100 {
		return nil, fmt.Errorf("%w: year out of range", ErrInvalidInput)
	}

	if _, err := s.planRepo.GetByEmployerYear(ctx, employerID, req.Year); err == nil {
		return nil, fmt.Errorf("%w: a plan for %d already exists", ErrConflict, req.Year)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing plan: %w", err)
	}

	plan := &domain.HealthImprovementPlan{
		EmployerID: employerID,
		Year:       req.Year,
		Status:     domain.PlanStatusDraft,
		Activities: req.Activities,
	}

	if err := s.planRepo.Create(ctx, plan); err != nil {
		// The unique index backstops the pre-check when two creates race
		return nil, fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return plan, nil
}

func (s *HealthPlanService) GetByID(ctx context.Context, employerID, id uuid.UUID) (*domain.HealthImprovementPlan, error) {
	plan, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	if plan.EmployerID != employerID {
		return nil, ErrNotFound
	}
	return plan, nil
}

func (s *HealthPlanService) List(ctx context.Context, employerID uuid.UUID) ([]domain.HealthImprovementPlan, error) {
	return s.planRepo.List(ctx, employerID)
}

// Update edits the activity rows. Only drafts are editable.
func (s *HealthPlanService) Update(ctx context.Context, employerID, id uuid.UUID, req *domain.UpdatePlanRequest) (*domain.HealthImprovementPlan, error) {
	plan, err := s.GetByID(ctx, employerID, id)
	if err != nil {
		return nil, err
	}

	if plan.Status != domain.PlanStatusDraft {
		return nil, fmt.Errorf("%w: only draft plans are editable", ErrIllegalTransition)
	}

	if req.Activities != nil {
		plan.Activities = req.Activities
	}

	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}
	return plan, nil
}

func (s *HealthPlanService) Delete(ctx context.Context, employerID, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, employerID, id); err != nil {
		return err
	}
	return s.planRepo.Delete(ctx, id)
}

// transition applies one step of the plan state machine under a row lock
func (s *HealthPlanService) transition(ctx context.Context, employerID, id uuid.UUID, target domain.PlanStatus) (*domain.HealthImprovementPlan, error) {
	var plan *domain.HealthImprovementPlan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.planRepo.GetForUpdate(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load plan: %w", err)
		}
		if current.EmployerID != employerID {
			return ErrNotFound
		}

		if !isValidPlanTransition(current.Status, target) {
			return fmt.Errorf("%w: cannot move from %s to %s", ErrIllegalTransition, current.Status, target)
		}

		now := time.Now().UTC()
		switch target {
		case domain.PlanStatusPendingTSB:
			current.SubmittedAt = &now
		case domain.PlanStatusApproved:
			current.ApprovedAt = &now
		}
		current.Status = target

		if err := s.planRepo.Save(tx, current); err != nil {
			return fmt.Errorf("failed to save plan: %w", err)
		}
		plan = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("plan transitioned",
		zap.String("id", id.String()),
		zap.String("status", string(target)),
	)
	return plan, nil
}

// Submit sends a draft plan for TSB review
func (s *HealthPlanService) Submit(ctx context.Context, employerID, id uuid.UUID) (*domain.HealthImprovementPlan, error) {
	return s.transition(ctx, employerID, id, domain.PlanStatusPendingTSB)
}

// Approve records the external authority's approval of a pending plan
func (s *HealthPlanService) Approve(ctx context.Context, employerID, id uuid.UUID) (*domain.HealthImprovementPlan, error) {
	return s.transition(ctx, employerID, id, domain.PlanStatusApproved)
}
