package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/medosmotr/examination-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RouteSheetRepository struct {
	db *gorm.DB
}

func NewRouteSheetRepository(db *gorm.DB) *RouteSheetRepository {
	return &RouteSheetRepository{db: db}
}

// Create persists the route sheet together with its service rows
func (r *RouteSheetRepository) Create(ctx context.Context, sheet *domain.RouteSheet) error {
	return r.db.WithContext(ctx).Create(sheet).Error
}

func (r *RouteSheetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.RouteSheet, error) {
	var sheet domain.RouteSheet
	err := r.db.WithContext(ctx).
		Preload("Services", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		First(&sheet, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sheet, nil
}

// RouteSheetFilters holds filters for listing route sheets
type RouteSheetFilters struct {
	ContractNumber *string
	PatientName    string
	VisitDateFrom  *string
	VisitDateTo    *string
}

func (r *RouteSheetRepository) List(ctx context.Context, clinicID uuid.UUID, page, pageSize int, filters *RouteSheetFilters) ([]domain.RouteSheet, int64, error) {
	var sheets []domain.RouteSheet
	var total int64

	offset := (page - 1) * pageSize

	query := r.db.WithContext(ctx).
		Model(&domain.RouteSheet{}).
		Where("clinic_id = ?", clinicID)

	if filters != nil {
		if filters.ContractNumber != nil {
			query = query.Where("contract_number = ?", *filters.ContractNumber)
		}
		if filters.PatientName != "" {
			query = query.Where("LOWER(patient_name) LIKE LOWER(?)", "%"+filters.PatientName+"%")
		}
		if filters.VisitDateFrom != nil {
			query = query.Where("visit_date >= ?", *filters.VisitDateFrom)
		}
		if filters.VisitDateTo != nil {
			query = query.Where("visit_date <= ?", *filters.VisitDateTo)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Services", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Order("visit_date DESC, created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&sheets).Error

	return sheets, total, err
}

func (r *RouteSheetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("route_sheet_id = ?", id).
			Delete(&domain.RouteSheetService{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.RouteSheet{}, "id = ?", id).Error
	})
}

// GetServiceForUpdate loads a service row with a row lock inside the
// given transaction. Transition validation happens under this lock.
func (r *RouteSheetRepository) GetServiceForUpdate(tx *gorm.DB, serviceID uuid.UUID) (*domain.RouteSheetService, error) {
	var service domain.RouteSheetService
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&service, "id = ?", serviceID).Error
	if err != nil {
		return nil, err
	}
	return &service, nil
}

// UpdateService persists a service row inside the given transaction
func (r *RouteSheetRepository) UpdateService(tx *gorm.DB, service *domain.RouteSheetService) error {
	return tx.Save(service).Error
}
