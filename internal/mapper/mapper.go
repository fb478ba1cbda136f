package mapper

import (
	"github.com/medosmotr/examination-api/internal/domain"
)

// ToUserResponse converts User to its API representation
func ToUserResponse(user *domain.User) domain.UserResponse {
	return domain.UserResponse{
		ID:                    user.ID,
		Phone:                 user.Phone,
		Role:                  user.Role,
		ClinicSubRole:         user.ClinicSubRole,
		OrganizationName:      user.OrganizationName,
		TaxID:                 user.TaxID,
		Address:               user.Address,
		ContactPerson:         user.ContactPerson,
		Email:                 user.Email,
		HasPassword:           user.HasPassword(),
		RegistrationCompleted: user.RegistrationCompleted,
		CreatedAt:             user.CreatedAt,
	}
}

// ToRouteSheetServiceResponse converts one itinerary step
func ToRouteSheetServiceResponse(service *domain.RouteSheetService) domain.RouteSheetServiceResponse {
	return domain.RouteSheetServiceResponse{
		ID:             service.ID,
		Name:           service.Name,
		Cabinet:        service.Cabinet,
		Specialization: service.Specialization,
		ScheduledTime:  service.ScheduledTime,
		Status:         service.Status,
		CompletedAt:    service.CompletedAt,
	}
}

// ToRouteSheetResponse converts a route sheet with derived progress
func ToRouteSheetResponse(sheet *domain.RouteSheet) domain.RouteSheetResponse {
	services := make([]domain.RouteSheetServiceResponse, len(sheet.Services))
	for i := range sheet.Services {
		services[i] = ToRouteSheetServiceResponse(&sheet.Services[i])
	}
	return domain.RouteSheetResponse{
		ID:                sheet.ID,
		ContractNumber:    sheet.ContractNumber,
		PatientName:       sheet.PatientName,
		PatientPosition:   sheet.PatientPosition,
		PatientDepartment: sheet.PatientDepartment,
		PatientNationalID: sheet.PatientNationalID,
		VisitDate:         sheet.VisitDate,
		Services:          services,
		CompletionPercent: sheet.CompletionPercent(),
		CreatedAt:         sheet.CreatedAt,
	}
}

// ToRouteSheetResponses converts a list of route sheets
func ToRouteSheetResponses(sheets []domain.RouteSheet) []domain.RouteSheetResponse {
	result := make([]domain.RouteSheetResponse, len(sheets))
	for i := range sheets {
		result[i] = ToRouteSheetResponse(&sheets[i])
	}
	return result
}

// ToDocumentResponse converts a stored artifact reference
func ToDocumentResponse(doc *domain.GeneratedDocument) domain.DocumentResponse {
	return domain.DocumentResponse{
		ID:          doc.ID,
		EntityID:    doc.EntityID,
		Kind:        doc.Kind,
		FileName:    doc.FileName,
		StoragePath: doc.StoragePath,
		Size:        doc.Size,
		CreatedAt:   doc.CreatedAt,
	}
}
