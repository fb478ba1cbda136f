package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// UserRole is the organization role chosen during registration
type UserRole string

const (
	UserRoleClinic   UserRole = "clinic"
	UserRoleEmployer UserRole = "employer"
)

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleClinic, UserRoleEmployer:
		return true
	}
	return false
}

// ClinicSubRole applies only to users with UserRoleClinic
type ClinicSubRole string

const (
	ClinicSubRoleManager         ClinicSubRole = "manager"
	ClinicSubRoleProfpathologist ClinicSubRole = "profpathologist"
	ClinicSubRoleDoctor          ClinicSubRole = "doctor"
	ClinicSubRoleReceptionist    ClinicSubRole = "receptionist"
)

func (r ClinicSubRole) IsValid() bool {
	switch r {
	case ClinicSubRoleManager, ClinicSubRoleProfpathologist, ClinicSubRoleDoctor, ClinicSubRoleReceptionist:
		return true
	}
	return false
}

// RouteServiceStatus is the lifecycle of a single route sheet service
type RouteServiceStatus string

const (
	RouteServiceStatusPending   RouteServiceStatus = "pending"
	RouteServiceStatusCompleted RouteServiceStatus = "completed"
)

func (s RouteServiceStatus) IsValid() bool {
	switch s {
	case RouteServiceStatusPending, RouteServiceStatusCompleted:
		return true
	}
	return false
}

// RecommendationType classifies a post-examination directive
type RecommendationType string

const (
	RecommendationTypeTransfer       RecommendationType = "transfer"
	RecommendationTypeTreatment      RecommendationType = "treatment"
	RecommendationTypeObservation    RecommendationType = "observation"
	RecommendationTypeRehabilitation RecommendationType = "rehabilitation"
)

func (t RecommendationType) IsValid() bool {
	switch t {
	case RecommendationTypeTransfer, RecommendationTypeTreatment,
		RecommendationTypeObservation, RecommendationTypeRehabilitation:
		return true
	}
	return false
}

// RecommendationStatus is the execution lifecycle of a recommendation
type RecommendationStatus string

const (
	RecommendationStatusPending    RecommendationStatus = "pending"
	RecommendationStatusInProgress RecommendationStatus = "in_progress"
	RecommendationStatusCompleted  RecommendationStatus = "completed"
	RecommendationStatusCancelled  RecommendationStatus = "cancelled"
)

func (s RecommendationStatus) IsValid() bool {
	switch s {
	case RecommendationStatusPending, RecommendationStatusInProgress,
		RecommendationStatusCompleted, RecommendationStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s RecommendationStatus) IsTerminal() bool {
	return s == RecommendationStatusCompleted || s == RecommendationStatusCancelled
}

// PlanStatus is the approval lifecycle of a health improvement plan
type PlanStatus string

const (
	PlanStatusDraft      PlanStatus = "draft"
	PlanStatusPendingTSB PlanStatus = "pending_tsb"
	PlanStatusApproved   PlanStatus = "approved"
)

func (s PlanStatus) IsValid() bool {
	switch s {
	case PlanStatusDraft, PlanStatusPendingTSB, PlanStatusApproved:
		return true
	}
	return false
}

// BaseModel contains common fields for all entities
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns the primary key when the caller has not set one
func (m *BaseModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// User is the authenticated principal for a clinic or employer actor.
// Phone is the durable key; the record is created on first successful
// challenge verification and provisioned incrementally by the
// registration funnel.
type User struct {
	BaseModel
	Phone                 string         `gorm:"column:phone;uniqueIndex;not null" json:"phone"`
	PasswordHash          *string        `gorm:"column:password_hash" json:"-"`
	Role                  *UserRole      `gorm:"column:role" json:"role,omitempty"`
	ClinicSubRole         *ClinicSubRole `gorm:"column:clinic_sub_role" json:"clinicSubRole,omitempty"`
	OrganizationName      string         `gorm:"column:organization_name" json:"organizationName,omitempty"`
	TaxID                 string         `gorm:"column:tax_id" json:"taxId,omitempty"`
	Address               string         `gorm:"column:address" json:"address,omitempty"`
	ContactPerson         string         `gorm:"column:contact_person" json:"contactPerson,omitempty"`
	Email                 string         `gorm:"column:email" json:"email,omitempty"`
	RegistrationCompleted bool           `gorm:"column:registration_completed;default:false" json:"registrationCompleted"`
}

func (User) TableName() string {
	return "users"
}

// HasPassword reports whether a credential has been set
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// Challenge is a one-time verification code tied to a phone number.
// At most one unconsumed, unexpired challenge exists per phone.
type Challenge struct {
	BaseModel
	Phone    string    `gorm:"column:phone;index;not null" json:"phone"`
	Code     string    `gorm:"column:code;not null" json:"-"`
	IssuedAt time.Time `gorm:"column:issued_at;not null" json:"issuedAt"`
	Consumed bool      `gorm:"column:consumed;default:false" json:"consumed"`
}

func (Challenge) TableName() string {
	return "challenges"
}

// Expired reports whether the challenge is past its validity window
func (c *Challenge) Expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(c.IssuedAt) > ttl
}

// ContingentEmployee is one row of the employer-maintained roster of
// employees subject to periodic medical examination.
type ContingentEmployee struct {
	BaseModel
	EmployerID          uuid.UUID      `gorm:"column:employer_id;type:uuid;index;not null" json:"employerId"`
	Name                string         `gorm:"column:name;not null" json:"name"`
	NameKey             string         `gorm:"column:name_key;index" json:"-"`
	Position            string         `gorm:"column:position" json:"position"`
	Department          string         `gorm:"column:department" json:"department"`
	Phone               string         `gorm:"column:phone" json:"phone,omitempty"`
	NationalID          string         `gorm:"column:national_id" json:"nationalId,omitempty"`
	BirthDate           *time.Time     `gorm:"column:birth_date" json:"birthDate,omitempty"`
	Sex                 string         `gorm:"column:sex" json:"sex,omitempty"`
	HarmfulFactors      pq.StringArray `gorm:"column:harmful_factors;type:text[]" json:"harmfulFactors,omitempty"`
	LastExaminationDate *time.Time     `gorm:"column:last_examination_date" json:"lastExaminationDate,omitempty"`
	NextExaminationDate *time.Time     `gorm:"column:next_examination_date" json:"nextExaminationDate,omitempty"`
	ExaminationDue      bool           `gorm:"column:examination_due;default:false" json:"examinationDue"`
}

func (ContingentEmployee) TableName() string {
	return "contingent_employees"
}

// RouteSheet is a per-patient itinerary of examination services for a
// single visit.
type RouteSheet struct {
	BaseModel
	ClinicID          uuid.UUID           `gorm:"column:clinic_id;type:uuid;index;not null" json:"clinicId"`
	ContractNumber    string              `gorm:"column:contract_number" json:"contractNumber"`
	PatientName       string              `gorm:"column:patient_name;not null" json:"patientName"`
	PatientPosition   string              `gorm:"column:patient_position" json:"patientPosition"`
	PatientDepartment string              `gorm:"column:patient_department" json:"patientDepartment"`
	PatientNationalID string              `gorm:"column:patient_national_id" json:"patientNationalId"`
	VisitDate         time.Time           `gorm:"column:visit_date;not null" json:"visitDate"`
	Services          []RouteSheetService `gorm:"foreignKey:RouteSheetID;constraint:OnDelete:CASCADE" json:"services"`
}

func (RouteSheet) TableName() string {
	return "route_sheets"
}

// CompletionPercent derives aggregate progress from the service statuses
func (rs *RouteSheet) CompletionPercent() float64 {
	if len(rs.Services) == 0 {
		return 0
	}
	completed := 0
	for _, svc := range rs.Services {
		if svc.Status == RouteServiceStatusCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(rs.Services)) * 100
}

// RouteSheetService is a single examination step on a route sheet.
// Completion is terminal, there is no reversal.
type RouteSheetService struct {
	BaseModel
	RouteSheetID   uuid.UUID          `gorm:"column:route_sheet_id;type:uuid;index;not null" json:"routeSheetId"`
	Name           string             `gorm:"column:name;not null" json:"name"`
	Cabinet        string             `gorm:"column:cabinet" json:"cabinet"`
	Specialization string             `gorm:"column:specialization" json:"specialization,omitempty"`
	ScheduledTime  string             `gorm:"column:scheduled_time" json:"scheduledTime,omitempty"`
	Status         RouteServiceStatus `gorm:"column:status;default:'pending'" json:"status"`
	CompletedBy    *uuid.UUID         `gorm:"column:completed_by;type:uuid" json:"completedBy,omitempty"`
	CompletedAt    *time.Time         `gorm:"column:completed_at" json:"completedAt,omitempty"`
	SortOrder      int                `gorm:"column:sort_order;default:0" json:"sortOrder"`
}

func (RouteSheetService) TableName() string {
	return "route_sheet_services"
}

// Recommendation is a post-examination directive requiring tracked execution
type Recommendation struct {
	BaseModel
	ClinicID       uuid.UUID            `gorm:"column:clinic_id;type:uuid;index;not null" json:"clinicId"`
	PatientName    string               `gorm:"column:patient_name;not null" json:"patientName"`
	Type           RecommendationType   `gorm:"column:type;not null" json:"type"`
	Recommendation string               `gorm:"column:recommendation;type:text" json:"recommendation"`
	Status         RecommendationStatus `gorm:"column:status;default:'pending'" json:"status"`
	CompletionDate *time.Time           `gorm:"column:completion_date" json:"completionDate,omitempty"`
	Notes          string               `gorm:"column:notes;type:text" json:"notes,omitempty"`
}

func (Recommendation) TableName() string {
	return "recommendations"
}

// PlanActivity is one structured row of a health improvement plan
type PlanActivity struct {
	Activity    string `json:"activity"`
	Responsible string `json:"responsible"`
	Deadline    string `json:"deadline"`
}

// PlanActivities stores the activity rows as a JSON column
type PlanActivities []PlanActivity

func (a PlanActivities) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *PlanActivities) Scan(value interface{}) error {
	if value == nil {
		*a = PlanActivities{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	}
	return fmt.Errorf("unsupported type for plan activities: %T", value)
}

// HealthImprovementPlan is an annual employer-side plan of wellness
// activities requiring external TSB approval. One per (employer, year).
type HealthImprovementPlan struct {
	BaseModel
	EmployerID  uuid.UUID      `gorm:"column:employer_id;type:uuid;not null;uniqueIndex:idx_plan_employer_year" json:"employerId"`
	Year        int            `gorm:"column:year;not null;uniqueIndex:idx_plan_employer_year" json:"year"`
	Status      PlanStatus     `gorm:"column:status;default:'draft'" json:"status"`
	Activities  PlanActivities `gorm:"column:activities;type:jsonb" json:"activities"`
	SubmittedAt *time.Time     `gorm:"column:submitted_at" json:"submittedAt,omitempty"`
	ApprovedAt  *time.Time     `gorm:"column:approved_at" json:"approvedAt,omitempty"`
}

func (HealthImprovementPlan) TableName() string {
	return "health_improvement_plans"
}

// Doctor is a clinic staff member who performs examination services
type Doctor struct {
	BaseModel
	ClinicID       uuid.UUID `gorm:"column:clinic_id;type:uuid;index;not null" json:"clinicId"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	Specialization string    `gorm:"column:specialization;not null" json:"specialization"`
	Cabinet        string    `gorm:"column:cabinet" json:"cabinet"`
	Available      bool      `gorm:"column:available;default:true" json:"available"`
}

func (Doctor) TableName() string {
	return "doctors"
}

// GeneratedDocument records an artifact produced by document generation
type GeneratedDocument struct {
	BaseModel
	EntityID    uuid.UUID `gorm:"column:entity_id;type:uuid;index;not null" json:"entityId"`
	Kind        string    `gorm:"column:kind;not null" json:"kind"`
	StoragePath string    `gorm:"column:storage_path;not null" json:"storagePath"`
	FileName    string    `gorm:"column:file_name;not null" json:"fileName"`
	Size        int64     `gorm:"column:size" json:"size"`
}

func (GeneratedDocument) TableName() string {
	return "generated_documents"
}
