package domain

import (
	"time"

	"github.com/google/uuid"
)

// --- Auth / registration funnel ---

// SendChallengeRequest starts phone verification
type SendChallengeRequest struct {
	Phone string `json:"phone" validate:"required"`
}

// VerifyChallengeRequest redeems a one-time code
type VerifyChallengeRequest struct {
	Phone string `json:"phone" validate:"required"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// LoginRequest authenticates with a stored password
type LoginRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SetPasswordRequest sets or replaces the account password.
// OldPassword is required once a password exists.
type SetPasswordRequest struct {
	Phone       string  `json:"phone" validate:"required"`
	NewPassword string  `json:"newPassword" validate:"required"`
	OldPassword *string `json:"oldPassword,omitempty"`
}

// AssignRoleRequest records the organization role chosen in the funnel
type AssignRoleRequest struct {
	Role UserRole `json:"role" validate:"required"`
}

// RegistrationPayload carries the organization details captured at the
// end of the funnel
type RegistrationPayload struct {
	OrganizationName string `json:"organizationName" validate:"required"`
	TaxID            string `json:"taxId" validate:"required"`
	Address          string `json:"address" validate:"required"`
	ContactPerson    string `json:"contactPerson" validate:"required"`
	Email            string `json:"email" validate:"required,email"`
}

// CompleteRegistrationRequest finishes the funnel for a role
type CompleteRegistrationRequest struct {
	Role          UserRole            `json:"role" validate:"required"`
	Payload       RegistrationPayload `json:"payload" validate:"required"`
	ClinicSubRole *ClinicSubRole      `json:"clinicSubRole,omitempty"`
}

// SelectSubRoleRequest records the clinic sub-role after registration
type SelectSubRoleRequest struct {
	ClinicSubRole ClinicSubRole `json:"clinicSubRole" validate:"required"`
}

// UpdateOrganizationRequest edits organization details after completion
type UpdateOrganizationRequest struct {
	OrganizationName *string `json:"organizationName,omitempty"`
	Address          *string `json:"address,omitempty"`
	ContactPerson    *string `json:"contactPerson,omitempty"`
	Email            *string `json:"email,omitempty" validate:"omitempty,email"`
}

// UserResponse is the principal as exposed over the API
type UserResponse struct {
	ID                    uuid.UUID      `json:"id"`
	Phone                 string         `json:"phone"`
	Role                  *UserRole      `json:"role,omitempty"`
	ClinicSubRole         *ClinicSubRole `json:"clinicSubRole,omitempty"`
	OrganizationName      string         `json:"organizationName,omitempty"`
	TaxID                 string         `json:"taxId,omitempty"`
	Address               string         `json:"address,omitempty"`
	ContactPerson         string         `json:"contactPerson,omitempty"`
	Email                 string         `json:"email,omitempty"`
	HasPassword           bool           `json:"hasPassword"`
	RegistrationCompleted bool           `json:"registrationCompleted"`
	CreatedAt             time.Time      `json:"createdAt"`
}

// AuthResponse is returned after successful verification or login
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// NextStepResponse tells the client where the funnel resumes
type NextStepResponse struct {
	Decision string `json:"decision"`
	Route    string `json:"route,omitempty"`
}

// --- Contingent employees ---

// CreateEmployeeRequest adds a roster row
type CreateEmployeeRequest struct {
	Name                string     `json:"name" validate:"required"`
	Position            string     `json:"position,omitempty"`
	Department          string     `json:"department,omitempty"`
	Phone               string     `json:"phone,omitempty"`
	NationalID          string     `json:"nationalId,omitempty"`
	BirthDate           *time.Time `json:"birthDate,omitempty"`
	Sex                 string     `json:"sex,omitempty"`
	HarmfulFactors      []string   `json:"harmfulFactors,omitempty"`
	LastExaminationDate *time.Time `json:"lastExaminationDate,omitempty"`
	NextExaminationDate *time.Time `json:"nextExaminationDate,omitempty"`
}

// UpdateEmployeeRequest partially updates a roster row
type UpdateEmployeeRequest struct {
	Name                *string    `json:"name,omitempty"`
	Position            *string    `json:"position,omitempty"`
	Department          *string    `json:"department,omitempty"`
	Phone               *string    `json:"phone,omitempty"`
	NationalID          *string    `json:"nationalId,omitempty"`
	BirthDate           *time.Time `json:"birthDate,omitempty"`
	Sex                 *string    `json:"sex,omitempty"`
	HarmfulFactors      []string   `json:"harmfulFactors,omitempty"`
	LastExaminationDate *time.Time `json:"lastExaminationDate,omitempty"`
	NextExaminationDate *time.Time `json:"nextExaminationDate,omitempty"`
}

// ImportRow is one parsed spreadsheet row handed to the bulk importer
type ImportRow struct {
	Name           string
	Position       string
	Department     string
	Phone          string
	NationalID     string
	BirthDate      *time.Time
	HarmfulFactors []string
}

// ImportSkipReasons breaks down why rows were not created
type ImportSkipReasons struct {
	Duplicate int `json:"duplicate"`
	NoName    int `json:"no_name"`
	Invalid   int `json:"invalid"`
}

// ImportResult reports the outcome of a bulk roster import
type ImportResult struct {
	Created        int               `json:"created"`
	Skipped        int               `json:"skipped"`
	SkippedReasons ImportSkipReasons `json:"skipped_reasons"`
}

// --- Route sheets ---

// GenerateRouteSheetRequest creates an itinerary for one patient visit
type GenerateRouteSheetRequest struct {
	ContractNumber    string    `json:"contractNumber,omitempty"`
	PatientName       string    `json:"patientName" validate:"required"`
	PatientPosition   string    `json:"patientPosition,omitempty"`
	PatientDepartment string    `json:"patientDepartment,omitempty"`
	PatientNationalID string    `json:"patientNationalId,omitempty"`
	HarmfulFactors    []string  `json:"harmfulFactors,omitempty"`
	VisitDate         time.Time `json:"visitDate" validate:"required"`
}

// RouteSheetServiceResponse is one itinerary step
type RouteSheetServiceResponse struct {
	ID             uuid.UUID          `json:"id"`
	Name           string             `json:"name"`
	Cabinet        string             `json:"cabinet"`
	Specialization string             `json:"specialization,omitempty"`
	ScheduledTime  string             `json:"scheduledTime,omitempty"`
	Status         RouteServiceStatus `json:"status"`
	CompletedAt    *time.Time         `json:"completedAt,omitempty"`
}

// RouteSheetResponse is a route sheet with derived progress
type RouteSheetResponse struct {
	ID                uuid.UUID                   `json:"id"`
	ContractNumber    string                      `json:"contractNumber,omitempty"`
	PatientName       string                      `json:"patientName"`
	PatientPosition   string                      `json:"patientPosition,omitempty"`
	PatientDepartment string                      `json:"patientDepartment,omitempty"`
	PatientNationalID string                      `json:"patientNationalId,omitempty"`
	VisitDate         time.Time                   `json:"visitDate"`
	Services          []RouteSheetServiceResponse `json:"services"`
	CompletionPercent float64                     `json:"completionPercent"`
	CreatedAt         time.Time                   `json:"createdAt"`
}

// --- Recommendations ---

// CreateRecommendationRequest records a post-examination directive
type CreateRecommendationRequest struct {
	PatientName    string             `json:"patientName" validate:"required"`
	Type           RecommendationType `json:"type" validate:"required"`
	Recommendation string             `json:"recommendation" validate:"required"`
	Notes          string             `json:"notes,omitempty"`
}

// UpdateRecommendationRequest edits directive text fields
type UpdateRecommendationRequest struct {
	PatientName    *string `json:"patientName,omitempty"`
	Recommendation *string `json:"recommendation,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

// TransitionRecommendationRequest moves a recommendation between states
type TransitionRecommendationRequest struct {
	Status         RecommendationStatus `json:"status" validate:"required"`
	CompletionDate *time.Time           `json:"completionDate,omitempty"`
	Notes          *string              `json:"notes,omitempty"`
}

// --- Health improvement plans ---

// CreatePlanRequest opens a draft plan for a year
type CreatePlanRequest struct {
	Year       int            `json:"year" validate:"required,min=2000,max=2100"`
	Activities []PlanActivity `json:"activities,omitempty"`
}

// UpdatePlanRequest edits a draft plan
type UpdatePlanRequest struct {
	Activities []PlanActivity `json:"activities,omitempty"`
}

// --- Doctors ---

// CreateDoctorRequest registers a clinic staff member
type CreateDoctorRequest struct {
	Name           string `json:"name" validate:"required"`
	Specialization string `json:"specialization" validate:"required"`
	Cabinet        string `json:"cabinet,omitempty"`
}

// UpdateDoctorRequest partially updates a doctor
type UpdateDoctorRequest struct {
	Name           *string `json:"name,omitempty"`
	Specialization *string `json:"specialization,omitempty"`
	Cabinet        *string `json:"cabinet,omitempty"`
	Available      *bool   `json:"available,omitempty"`
}

// --- Envelopes ---

// ErrorResponse is the short error body used in swagger annotations
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// APIResponse is a small acknowledgement body
type APIResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
}

// PaginatedResponse wraps list results with paging metadata
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// --- Documents ---

// GenerateDocumentRequest asks for an artifact for an entity
type GenerateDocumentRequest struct {
	EntityID uuid.UUID `json:"entityId" validate:"required"`
	Kind     string    `json:"kind" validate:"required"`
}

// DocumentResponse points at a stored artifact
type DocumentResponse struct {
	ID          uuid.UUID `json:"id"`
	EntityID    uuid.UUID `json:"entityId"`
	Kind        string    `json:"kind"`
	FileName    string    `json:"fileName"`
	StoragePath string    `json:"storagePath"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}
