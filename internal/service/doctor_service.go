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

// DoctorService maintains the clinic's staff registry used by route
// sheet generation
type DoctorService struct {
	doctorRepo *repository.DoctorRepository
	logger     *zap.Logger
}

func NewDoctorService(doctorRepo *repository.DoctorRepository, logger *zap.Logger) *DoctorService {
	return &DoctorService{
		doctorRepo: doctorRepo,
		logger:     logger,
	}
}

func (s *DoctorService) Create(ctx context.Context, clinicID uuid.UUID, req *domain.CreateDoctorRequest) (*domain.Doctor, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if req.Specialization == "" {
		return nil, fmt.Errorf("%w: specialization is required", ErrInvalidInput)
	}

	doctor := &domain.Doctor{
		ClinicID:       clinicID,
		Name:           req.Name,
		Specialization: req.Specialization,
		Cabinet:        req.Cabinet,
		Available:      true,
	}

	if err := s.doctorRepo.Create(ctx, doctor); err != nil {
		return nil, fmt.Errorf("failed to create doctor: %w", err)
	}
	return doctor, nil
}

func (s *DoctorService) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*domain.Doctor, error) {
	doctor, err := s.doctorRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load doctor: %w", err)
	}
	if doctor.ClinicID != clinicID {
		return nil, ErrNotFound
	}
	return doctor, nil
}

func (s *DoctorService) List(ctx context.Context, clinicID uuid.UUID) ([]domain.Doctor, error) {
	return s.doctorRepo.ListByClinic(ctx, clinicID)
}

func (s *DoctorService) Update(ctx context.Context, clinicID, id uuid.UUID, req *domain.UpdateDoctorRequest) (*domain.Doctor, error) {
	doctor, err := s.GetByID(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		doctor.Name = *req.Name
	}
	if req.Specialization != nil {
		doctor.Specialization = *req.Specialization
	}
	if req.Cabinet != nil {
		doctor.Cabinet = *req.Cabinet
	}
	if req.Available != nil {
		doctor.Available = *req.Available
	}

	if err := s.doctorRepo.Update(ctx, doctor); err != nil {
		return nil, fmt.Errorf("failed to update doctor: %w", err)
	}
	return doctor, nil
}

func (s *DoctorService) Delete(ctx context.Context, clinicID, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, clinicID, id); err != nil {
		return err
	}
	return s.doctorRepo.Delete(ctx, id)
}
