package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/medosmotr/examination-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type HealthPlanRepository struct {
	db *gorm.DB
}

func NewHealthPlanRepository(db *gorm.DB) *HealthPlanRepository {
	return &HealthPlanRepository{db: db}
}

func (r *HealthPlanRepository) Create(ctx context.Context, plan *domain.HealthImprovementPlan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *HealthPlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.HealthImprovementPlan, error) {
	var plan domain.HealthImprovementPlan
	err := r.db.WithContext(ctx).First(&plan, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetForUpdate loads a plan with a row lock inside the given transaction
func (r *HealthPlanRepository) GetForUpdate(tx *gorm.DB, id uuid.UUID) (*domain.HealthImprovementPlan, error) {
	var plan domain.HealthImprovementPlan
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&plan, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetByEmployerYear finds the unique plan for (employer, year)
func (r *HealthPlanRepository) GetByEmployerYear(ctx context.Context, employerID uuid.UUID, year int) (*domain.HealthImprovementPlan, error) {
	var plan domain.HealthImprovementPlan
	err := r.db.WithContext(ctx).
		Where("employer_id = ? AND year = ?", employerID, year).
		First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *HealthPlanRepository) List(ctx context.Context, employerID uuid.UUID) ([]domain.HealthImprovementPlan, error) {
	var plans []domain.HealthImprovementPlan
	err := r.db.WithContext(ctx).
		Where("employer_id = ?", employerID).
		Order("year DESC").
		Find(&plans).Error
	return plans, err
}

func (r *HealthPlanRepository) Update(ctx context.Context, plan *domain.HealthImprovementPlan) error {
	return r.db.WithContext(ctx).Save(plan).Error
}

// Save persists a plan inside the given transaction
func (r *HealthPlanRepository) Save(tx *gorm.DB, plan *domain.HealthImprovementPlan) error {
	return tx.Save(plan).Error
}

func (r *HealthPlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.HealthImprovementPlan{}, "id = ?", id).Error
}
