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

// EmployeeService maintains the employer's contingent roster
type EmployeeService struct {
	employeeRepo *repository.EmployeeRepository
	logger       *zap.Logger
	db           *gorm.DB
}

func NewEmployeeService(
	employeeRepo *repository.EmployeeRepository,
	logger *zap.Logger,
	db *gorm.DB,
) *EmployeeService {
	return &EmployeeService{
		employeeRepo: employeeRepo,
		logger:       logger,
		db:           db,
	}
}

func (s *EmployeeService) Create(ctx context.Context, employerID uuid.UUID, req *domain.CreateEmployeeRequest) (*domain.ContingentEmployee, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	employee := &domain.ContingentEmployee{
		EmployerID:          employerID,
		Name:                req.Name,
		NameKey:             NormalizeName(req.Name),
		Position:            req.Position,
		Department:          req.Department,
		Phone:               req.Phone,
		NationalID:          req.NationalID,
		BirthDate:           req.BirthDate,
		Sex:                 req.Sex,
		HarmfulFactors:      req.HarmfulFactors,
		LastExaminationDate: req.LastExaminationDate,
		NextExaminationDate: req.NextExaminationDate,
	}

	if err := s.employeeRepo.Create(ctx, employee); err != nil {
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}
	return employee, nil
}

func (s *EmployeeService) GetByID(ctx context.Context, employerID, id uuid.UUID) (*domain.ContingentEmployee, error) {
	employee, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}
	if employee.EmployerID != employerID {
		return nil, ErrNotFound
	}
	return employee, nil
}

func (s *EmployeeService) List(ctx context.Context, employerID uuid.UUID, page, pageSize int, filters *repository.EmployeeFilters, sortBy repository.EmployeeSortOption) ([]domain.ContingentEmployee, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return s.employeeRepo.ListWithFilters(ctx, employerID, page, pageSize, filters, sortBy)
}

func (s *EmployeeService) Update(ctx context.Context, employerID, id uuid.UUID, req *domain.UpdateEmployeeRequest) (*domain.ContingentEmployee, error) {
	employee, err := s.GetByID(ctx, employerID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		employee.Name = *req.Name
		employee.NameKey = NormalizeName(*req.Name)
	}
	if req.Position != nil {
		employee.Position = *req.Position
	}
	if req.Department != nil {
		employee.Department = *req.Department
	}
	if req.Phone != nil {
		employee.Phone = *req.Phone
	}
	if req.NationalID != nil {
		employee.NationalID = *req.NationalID
	}
	if req.BirthDate != nil {
		employee.BirthDate = req.BirthDate
	}
	if req.Sex != nil {
		employee.Sex = *req.Sex
	}
	if req.HarmfulFactors != nil {
		employee.HarmfulFactors = req.HarmfulFactors
	}
	if req.LastExaminationDate != nil {
		employee.LastExaminationDate = req.LastExaminationDate
	}
	if req.NextExaminationDate != nil {
		employee.NextExaminationDate = req.NextExaminationDate
		employee.ExaminationDue = false
	}

	if err := s.employeeRepo.Update(ctx, employee); err != nil {
		return nil, fmt.Errorf("failed to update employee: %w", err)
	}
	return employee, nil
}

func (s *EmployeeService) Delete(ctx context.Context, employerID, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, employerID, id); err != nil {
		return err
	}
	return s.employeeRepo.Delete(ctx, id)
}

// isDuplicate decides whether a parsed row collides with an existing
// roster record. The normalized name is the primary key for matching;
// when both sides carry a national id, the id decides instead so a
// manually corrected name does not block a legitimate re-import.
func (s *EmployeeService) isDuplicate(ctx context.Context, employerID uuid.UUID, row *domain.ImportRow) (bool, error) {
	if row.NationalID != "" {
		existing, err := s.employeeRepo.GetByNationalID(ctx, employerID, row.NationalID)
		if err == nil && existing != nil {
			return true, nil
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, err
		}
	}

	existing, err := s.employeeRepo.GetByNameKey(ctx, employerID, NormalizeName(row.Name))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	// A name match against a record with a different national id is not
	// a duplicate, two people may share a name.
	if row.NationalID != "" && existing.NationalID != "" && existing.NationalID != row.NationalID {
		return false, nil
	}
	return true, nil
}

// BulkImport applies the per-row validate and dedup policy. Each row is
// written atomically on its own; valid rows commit even when neighbors
// are skipped. The result reports why every skipped row was skipped.
func (s *EmployeeService) BulkImport(ctx context.Context, employerID uuid.UUID, rows []domain.ImportRow) (*domain.ImportResult, error) {
	result := &domain.ImportResult{}
	// Tracks names seen within this batch so in-file duplicates count too
	seen := make(map[string]struct{}, len(rows))

	for i := range rows {
		row := &rows[i]

		if NormalizeName(row.Name) == "" {
			result.Skipped++
			result.SkippedReasons.NoName++
			continue
		}

		nameKey := NormalizeName(row.Name)
		if _, dup := seen[nameKey]; dup {
			result.Skipped++
			result.SkippedReasons.Duplicate++
			continue
		}

		dup, err := s.isDuplicate(ctx, employerID, row)
		if err != nil {
			return nil, fmt.Errorf("duplicate check failed: %w", err)
		}
		if dup {
			seen[nameKey] = struct{}{}
			result.Skipped++
			result.SkippedReasons.Duplicate++
			continue
		}

		employee := &domain.ContingentEmployee{
			EmployerID:     employerID,
			Name:           row.Name,
			NameKey:        nameKey,
			Position:       row.Position,
			Department:     row.Department,
			Phone:          row.Phone,
			NationalID:     row.NationalID,
			BirthDate:      row.BirthDate,
			HarmfulFactors: row.HarmfulFactors,
		}
		if err := s.employeeRepo.Create(ctx, employee); err != nil {
			s.logger.Warn("import row rejected",
				zap.Int("row", i),
				zap.Error(err),
			)
			result.Skipped++
			result.SkippedReasons.Invalid++
			continue
		}

		seen[nameKey] = struct{}{}
		result.Created++
	}

	s.logger.Info("bulk import finished",
		zap.String("employer_id", employerID.String()),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// ListAll returns the full roster for exports
func (s *EmployeeService) ListAll(ctx context.Context, employerID uuid.UUID) ([]domain.ContingentEmployee, error) {
	return s.employeeRepo.ListByEmployer(ctx, employerID)
}
