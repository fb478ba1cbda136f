package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/medosmotr/examination-api/internal/auth"
	"github.com/medosmotr/examination-api/internal/domain"
	"github.com/medosmotr/examination-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// serviceSpec describes one examination step composed into a route sheet
type serviceSpec struct {
	name           string
	specialization string
}

// baseServices are performed for every patient regardless of position
var baseServices = []serviceSpec{
	{name: "Осмотр терапевта", specialization: "терапевт"},
	{name: "Общий анализ крови", specialization: "лаборатория"},
	{name: "Общий анализ мочи", specialization: "лаборатория"},
	{name: "Электрокардиография", specialization: "функциональная диагностика"},
	{name: "Флюорография", specialization: "рентгенология"},
	{name: "Заключение профпатолога", specialization: "профпатолог"},
}

// positionSpecializations maps position keywords to the extra
// specializations their examination requires
var positionSpecializations = map[string][]string{
	"водитель":   {"нарколог", "офтальмолог", "невролог"},
	"повар":      {"дерматолог", "инфекционист"},
	"сварщик":    {"офтальмолог", "пульмонолог"},
	"электрик":   {"невролог", "офтальмолог"},
	"крановщик":  {"невролог", "офтальмолог", "оториноларинголог"},
	"маляр":      {"дерматолог", "пульмонолог"},
	"лаборант":   {"дерматолог", "токсиколог"},
	"кассир":     {"офтальмолог"},
	"оператор":   {"офтальмолог", "невролог"},
	"медсестра":  {"инфекционист", "дерматолог"},
	"грузчик":    {"хирург", "невролог"},
	"уборщик":    {"дерматолог"},
}

// factorSpecializations maps harmful production factors to the
// specializations they add to the itinerary
var factorSpecializations = map[string][]string{
	"шум":            {"оториноларинголог", "сурдолог"},
	"вибрация":       {"невролог", "хирург"},
	"пыль":           {"пульмонолог", "оториноларинголог"},
	"химические":     {"токсиколог", "дерматолог"},
	"физические":     {"хирург", "невролог"},
	"излучение":      {"офтальмолог", "гематолог"},
	"высота":         {"невролог", "офтальмолог", "оториноларинголог"},
	"микроклимат":    {"терапевт", "дерматолог"},
	"биологические":  {"инфекционист", "дерматолог"},
	"напряженность":  {"невролог", "психиатр"},
}

// visitStartHour is the first examination slot of the day
const visitStartHour = 9

// slotMinutes is the scheduling granularity
const slotMinutes = 15

// RouteSheetService builds and tracks per-patient examination
// itineraries for a clinic
type RouteSheetService struct {
	sheetRepo  *repository.RouteSheetRepository
	doctorRepo *repository.DoctorRepository
	logger     *zap.Logger
	db         *gorm.DB
}

func NewRouteSheetService(
	sheetRepo *repository.RouteSheetRepository,
	doctorRepo *repository.DoctorRepository,
	logger *zap.Logger,
	db *gorm.DB,
) *RouteSheetService {
	return &RouteSheetService{
		sheetRepo:  sheetRepo,
		doctorRepo: doctorRepo,
		logger:     logger,
		db:         db,
	}
}

// specializationsFor composes the deduplicated specialization list for a
// patient from the position keywords and harmful factors
func specializationsFor(position string, harmfulFactors []string) []string {
	seen := make(map[string]struct{})
	var result []string

	add := func(specs []string) {
		for _, spec := range specs {
			if _, ok := seen[spec]; ok {
				continue
			}
			seen[spec] = struct{}{}
			result = append(result, spec)
		}
	}

	lowered := strings.ToLower(position)
	for keyword, specs := range positionSpecializations {
		if strings.Contains(lowered, keyword) {
			add(specs)
		}
	}

	for _, factor := range harmfulFactors {
		factorLowered := strings.ToLower(factor)
		for keyword, specs := range factorSpecializations {
			if strings.Contains(factorLowered, keyword) {
				add(specs)
			}
		}
	}

	return result
}

// slotTime formats the nth examination slot of the day
func slotTime(index int) string {
	minutes := visitStartHour*60 + index*slotMinutes
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Generate builds a route sheet for one patient visit. The service list
// is composed from the base set plus position and harmful factor
// specializations; cabinets come from the clinic's doctor registry and
// times are assigned in slots from the start of the day.
func (s *RouteSheetService) Generate(ctx context.Context, clinicID uuid.UUID, req *domain.GenerateRouteSheetRequest) (*domain.RouteSheet, error) {
	if req.PatientName == "" {
		return nil, fmt.Errorf("%w: patientName is required", ErrInvalidInput)
	}

	specs := make([]serviceSpec, 0, len(baseServices))
	specs = append(specs, baseServices...)
	for _, specialization := range specializationsFor(req.PatientPosition, req.HarmfulFactors) {
		specs = append(specs, serviceSpec{
			name:           "Осмотр: " + specialization,
			specialization: specialization,
		})
	}

	services := make([]domain.RouteSheetService, 0, len(specs))
	for i, spec := range specs {
		cabinet := ""
		if doctor, err := s.doctorRepo.GetBySpecialization(ctx, clinicID, spec.specialization); err == nil {
			cabinet = doctor.Cabinet
		}
		services = append(services, domain.RouteSheetService{
			Name:           spec.name,
			Cabinet:        cabinet,
			Specialization: spec.specialization,
			ScheduledTime:  slotTime(i),
			Status:         domain.RouteServiceStatusPending,
			SortOrder:      i,
		})
	}

	sheet := &domain.RouteSheet{
		ClinicID:          clinicID,
		ContractNumber:    req.ContractNumber,
		PatientName:       req.PatientName,
		PatientPosition:   req.PatientPosition,
		PatientDepartment: req.PatientDepartment,
		PatientNationalID: req.PatientNationalID,
		VisitDate:         req.VisitDate,
		Services:          services,
	}

	if err := s.sheetRepo.Create(ctx, sheet); err != nil {
		return nil, fmt.Errorf("failed to create route sheet: %w", err)
	}

	s.logger.Info("route sheet generated",
		zap.String("clinic_id", clinicID.String()),
		zap.String("patient", req.PatientName),
		zap.Int("services", len(services)),
	)
	return sheet, nil
}

func (s *RouteSheetService) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*domain.RouteSheet, error) {
	sheet, err := s.sheetRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load route sheet: %w", err)
	}
	if sheet.ClinicID != clinicID {
		return nil, ErrNotFound
	}
	return sheet, nil
}

func (s *RouteSheetService) List(ctx context.Context, clinicID uuid.UUID, page, pageSize int, filters *repository.RouteSheetFilters) ([]domain.RouteSheet, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return s.sheetRepo.List(ctx, clinicID, page, pageSize, filters)
}

func (s *RouteSheetService) Delete(ctx context.Context, clinicID, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, clinicID, id); err != nil {
		return err
	}
	return s.sheetRepo.Delete(ctx, id)
}

// CompleteService transitions one service to completed. Completion is
// terminal: a second completion of the same service fails. The row is
// locked for the duration of the transition so concurrent requests
// serialize and the loser gets the transition error.
func (s *RouteSheetService) CompleteService(ctx context.Context, clinicID, sheetID, serviceID uuid.UUID) (*domain.RouteSheet, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok || !userCtx.CanCompleteService() {
		return nil, ErrPermissionDenied
	}

	sheet, err := s.GetByID(ctx, clinicID, sheetID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		service, err := s.sheetRepo.GetServiceForUpdate(tx, serviceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load service: %w", err)
		}
		if service.RouteSheetID != sheet.ID {
			return ErrNotFound
		}
		if service.Status != domain.RouteServiceStatusPending {
			return fmt.Errorf("%w: service is already %s", ErrIllegalTransition, service.Status)
		}

		now := time.Now().UTC()
		service.Status = domain.RouteServiceStatusCompleted
		service.CompletedBy = &userCtx.UserID
		service.CompletedAt = &now
		return s.sheetRepo.UpdateService(tx, service)
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, clinicID, sheetID)
}
