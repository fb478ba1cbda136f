package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/medosmotr/examination-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RecommendationRepository struct {
	db *gorm.DB
}

func NewRecommendationRepository(db *gorm.DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

func (r *RecommendationRepository) Create(ctx context.Context, rec *domain.Recommendation) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *RecommendationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Recommendation, error) {
	var rec domain.Recommendation
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetForUpdate loads a recommendation with a row lock inside the given
// transaction so concurrent transitions serialize per id
func (r *RecommendationRepository) GetForUpdate(tx *gorm.DB, id uuid.UUID) (*domain.Recommendation, error) {
	var rec domain.Recommendation
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&rec, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// RecommendationFilters holds filters for listing recommendations
type RecommendationFilters struct {
	Status      *domain.RecommendationStatus
	Type        *domain.RecommendationType
	PatientName string
}

func (r *RecommendationRepository) List(ctx context.Context, clinicID uuid.UUID, page, pageSize int, filters *RecommendationFilters) ([]domain.Recommendation, int64, error) {
	var recs []domain.Recommendation
	var total int64

	offset := (page - 1) * pageSize

	query := r.db.WithContext(ctx).
		Model(&domain.Recommendation{}).
		Where("clinic_id = ?", clinicID)

	if filters != nil {
		if filters.Status != nil {
			query = query.Where("status = ?", *filters.Status)
		}
		if filters.Type != nil {
			query = query.Where("type = ?", *filters.Type)
		}
		if filters.PatientName != "" {
			query = query.Where("LOWER(patient_name) LIKE LOWER(?)", "%"+filters.PatientName+"%")
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&recs).Error

	return recs, total, err
}

func (r *RecommendationRepository) Update(ctx context.Context, rec *domain.Recommendation) error {
	return r.db.WithContext(ctx).Save(rec).Error
}

// Save persists a recommendation inside the given transaction
func (r *RecommendationRepository) Save(tx *gorm.DB, rec *domain.Recommendation) error {
	return tx.Save(rec).Error
}

func (r *RecommendationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Recommendation{}, "id = ?", id).Error
}
