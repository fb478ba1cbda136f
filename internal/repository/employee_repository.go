package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/medosmotr/examination-api/internal/domain"
	"gorm.io/gorm"
)

type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) Create(ctx context.Context, employee *domain.ContingentEmployee) error {
	return r.db.WithContext(ctx).Create(employee).Error
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ContingentEmployee, error) {
	var employee domain.ContingentEmployee
	err := r.db.WithContext(ctx).First(&employee, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *EmployeeRepository) Update(ctx context.Context, employee *domain.ContingentEmployee) error {
	return r.db.WithContext(ctx).Save(employee).Error
}

func (r *EmployeeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.ContingentEmployee{}, "id = ?", id).Error
}

// EmployeeFilters holds filters for listing roster rows
type EmployeeFilters struct {
	Department *string
	Position   *string
	Search     string
	DueOnly    bool
}

// EmployeeSortOption defines sort options for the roster
type EmployeeSortOption string

const (
	EmployeeSortByNameAsc     EmployeeSortOption = "name_asc"
	EmployeeSortByNameDesc    EmployeeSortOption = "name_desc"
	EmployeeSortByCreatedDesc EmployeeSortOption = "created_desc"
	EmployeeSortByNextExam    EmployeeSortOption = "next_exam_asc"
)

// ListWithFilters returns an employer's roster with filters and pagination
func (r *EmployeeRepository) ListWithFilters(ctx context.Context, employerID uuid.UUID, page, pageSize int, filters *EmployeeFilters, sortBy EmployeeSortOption) ([]domain.ContingentEmployee, int64, error) {
	var employees []domain.ContingentEmployee
	var total int64

	offset := (page - 1) * pageSize

	query := r.db.WithContext(ctx).
		Model(&domain.ContingentEmployee{}).
		Where("employer_id = ?", employerID)

	if filters != nil {
		if filters.Department != nil {
			query = query.Where("department = ?", *filters.Department)
		}
		if filters.Position != nil {
			query = query.Where("position = ?", *filters.Position)
		}
		if filters.Search != "" {
			searchPattern := "%" + filters.Search + "%"
			query = query.Where(
				"LOWER(name) LIKE LOWER(?) OR LOWER(position) LIKE LOWER(?) OR LOWER(department) LIKE LOWER(?)",
				searchPattern, searchPattern, searchPattern,
			)
		}
		if filters.DueOnly {
			query = query.Where("examination_due = ?", true)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch sortBy {
	case EmployeeSortByNameDesc:
		query = query.Order("name DESC")
	case EmployeeSortByCreatedDesc:
		query = query.Order("created_at DESC")
	case EmployeeSortByNextExam:
		query = query.Order("next_examination_date ASC")
	default:
		query = query.Order("name ASC")
	}

	err := query.Offset(offset).Limit(pageSize).Find(&employees).Error
	return employees, total, err
}

// GetByNameKey finds a roster row by normalized name within the employer
func (r *EmployeeRepository) GetByNameKey(ctx context.Context, employerID uuid.UUID, nameKey string) (*domain.ContingentEmployee, error) {
	var employee domain.ContingentEmployee
	err := r.db.WithContext(ctx).
		Where("employer_id = ? AND name_key = ?", employerID, nameKey).
		First(&employee).Error
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

// GetByNationalID finds a roster row by IIN within the employer
func (r *EmployeeRepository) GetByNationalID(ctx context.Context, employerID uuid.UUID, nationalID string) (*domain.ContingentEmployee, error) {
	var employee domain.ContingentEmployee
	err := r.db.WithContext(ctx).
		Where("employer_id = ? AND national_id = ?", employerID, nationalID).
		First(&employee).Error
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

// MarkExaminationDue flags rows whose next examination date has passed.
// Returns the number of rows newly flagged.
func (r *EmployeeRepository) MarkExaminationDue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.ContingentEmployee{}).
		Where("next_examination_date IS NOT NULL AND next_examination_date <= ? AND examination_due = ?", now, false).
		Update("examination_due", true)
	return result.RowsAffected, result.Error
}

// ListByEmployer returns the full roster without pagination, used by
// exports and document generation
func (r *EmployeeRepository) ListByEmployer(ctx context.Context, employerID uuid.UUID) ([]domain.ContingentEmployee, error) {
	var employees []domain.ContingentEmployee
	err := r.db.WithContext(ctx).
		Where("employer_id = ?", employerID).
		Order("name ASC").
		Find(&employees).Error
	return employees, err
}
