package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/medosmotr/examination-api/internal/domain"
	"gorm.io/gorm"
)

type DoctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepository(db *gorm.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

func (r *DoctorRepository) Create(ctx context.Context, doctor *domain.Doctor) error {
	return r.db.WithContext(ctx).Create(doctor).Error
}

func (r *DoctorRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Doctor, error) {
	var doctor domain.Doctor
	err := r.db.WithContext(ctx).First(&doctor, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &doctor, nil
}

func (r *DoctorRepository) ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]domain.Doctor, error) {
	var doctors []domain.Doctor
	err := r.db.WithContext(ctx).
		Where("clinic_id = ?", clinicID).
		Order("name ASC").
		Find(&doctors).Error
	return doctors, err
}

// GetBySpecialization finds an available doctor for the specialization
func (r *DoctorRepository) GetBySpecialization(ctx context.Context, clinicID uuid.UUID, specialization string) (*domain.Doctor, error) {
	var doctor domain.Doctor
	err := r.db.WithContext(ctx).
		Where("clinic_id = ? AND specialization = ? AND available = ?", clinicID, specialization, true).
		Order("name ASC").
		First(&doctor).Error
	if err != nil {
		return nil, err
	}
	return &doctor, nil
}

func (r *DoctorRepository) Update(ctx context.Context, doctor *domain.Doctor) error {
	return r.db.WithContext(ctx).Save(doctor).Error
}

func (r *DoctorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Doctor{}, "id = ?", id).Error
}
