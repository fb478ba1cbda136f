package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/medosmotr/examination-api/internal/config"
	"github.com/medosmotr/examination-api/internal/domain"
	"github.com/medosmotr/examination-api/internal/messaging"
	"github.com/medosmotr/examination-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var taxIDPattern = regexp.MustCompile(`^\d{12}$`)

var emailValidator = validator.New()

// IdentityService owns the authenticated principal, credential
// verification and role assignment. It is the leaf dependency of the
// registration funnel and the session guard.
type IdentityService struct {
	userRepo      *repository.UserRepository
	challengeRepo *repository.ChallengeRepository
	sender        messaging.CodeSender
	logger        *zap.Logger
	db            *gorm.DB
	challengeTTL  time.Duration
	codeLength    int
	minPassword   int
}

func NewIdentityService(
	userRepo *repository.UserRepository,
	challengeRepo *repository.ChallengeRepository,
	sender messaging.CodeSender,
	authCfg *config.AuthConfig,
	challengeCfg *config.ChallengeConfig,
	logger *zap.Logger,
	db *gorm.DB,
) *IdentityService {
	return &IdentityService{
		userRepo:      userRepo,
		challengeRepo: challengeRepo,
		sender:        sender,
		logger:        logger,
		db:            db,
		challengeTTL:  challengeCfg.TTLDuration(),
		codeLength:    challengeCfg.CodeLength,
		minPassword:   authCfg.MinPasswordLength,
	}
}

// SendChallenge issues a one-time code for the phone and delivers it.
// A prior unconsumed challenge is superseded only after the channel has
// accepted the message, so a delivery failure leaves existing state
// untouched and the caller may retry.
func (s *IdentityService) SendChallenge(ctx context.Context, rawPhone string) error {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return err
	}

	code, err := generateCode(s.codeLength)
	if err != nil {
		return err
	}

	if err := s.sender.Deliver(ctx, phone, code); err != nil {
		s.logger.Warn("code delivery rejected",
			zap.String("phone", phone),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	challenge := &domain.Challenge{
		Phone:    phone,
		Code:     code,
		IssuedAt: time.Now().UTC(),
	}
	if err := s.challengeRepo.Issue(ctx, challenge); err != nil {
		return fmt.Errorf("failed to issue challenge: %w", err)
	}

	s.logger.Info("challenge issued", zap.String("phone", phone))
	return nil
}

// VerifyChallenge redeems the most recently issued code for the phone.
// On success the challenge is consumed and the principal is created if
// absent. The role is never set here.
func (s *IdentityService) VerifyChallenge(ctx context.Context, rawPhone, code string) (*domain.User, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}

	challenge, err := s.challengeRepo.GetActive(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveChallenge
		}
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}

	if challenge.Expired(s.challengeTTL, time.Now().UTC()) {
		return nil, ErrNoActiveChallenge
	}

	if challenge.Code != code {
		return nil, ErrCodeMismatch
	}

	// Consumption is conditional on the row still being unconsumed, so a
	// repeat redemption of the same code loses here.
	affected, err := s.challengeRepo.Consume(ctx, challenge.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to consume challenge: %w", err)
	}
	if affected == 0 {
		return nil, ErrNoActiveChallenge
	}

	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load user: %w", err)
		}
		user = &domain.User{Phone: phone}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		s.logger.Info("principal created", zap.String("phone", phone))
	}

	return user, nil
}

// LoginWithPassword authenticates an existing principal by password.
// bcrypt's comparison is constant time, so a mismatch does not leak
// timing information about the stored hash.
func (s *IdentityService) LoginWithPassword(ctx context.Context, rawPhone, password string) (*domain.User, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !user.HasPassword() {
		return nil, ErrNoPasswordSet
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}

	return user, nil
}

// SetPassword sets or replaces the stored credential. Replacing an
// existing password requires the old one.
func (s *IdentityService) SetPassword(ctx context.Context, rawPhone, newPassword string, oldPassword *string) error {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return err
	}

	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	if user.HasPassword() {
		if oldPassword == nil {
			return ErrInvalidCredential
		}
		if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(*oldPassword)); err != nil {
			return ErrInvalidCredential
		}
	}

	if len(newPassword) < s.minPassword {
		return fmt.Errorf("%w: minimum length is %d", ErrWeakPassword, s.minPassword)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	hashStr := string(hash)
	user.PasswordHash = &hashStr

	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to store password: %w", err)
	}

	s.logger.Info("password updated", zap.String("phone", phone))
	return nil
}

// AssignRole sets or overwrites the organization role. The role is
// frozen once registration has completed.
func (s *IdentityService) AssignRole(ctx context.Context, rawPhone string, role domain.UserRole) (*domain.User, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}

	if !role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user.RegistrationCompleted {
		return nil, ErrRoleLocked
	}

	user.Role = &role
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to assign role: %w", err)
	}

	return user, nil
}

// validateRegistrationPayload checks the organization details and
// reports the first invalid field
func validateRegistrationPayload(payload *domain.RegistrationPayload) error {
	if payload.OrganizationName == "" {
		return fmt.Errorf("%w: organizationName is required", ErrInvalidInput)
	}
	if !taxIDPattern.MatchString(payload.TaxID) {
		return fmt.Errorf("%w: taxId must be exactly 12 digits", ErrInvalidInput)
	}
	if payload.Address == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidInput)
	}
	if payload.ContactPerson == "" {
		return fmt.Errorf("%w: contactPerson is required", ErrInvalidInput)
	}
	if err := emailValidator.Var(payload.Email, "required,email"); err != nil {
		return fmt.Errorf("%w: email must be a valid address", ErrInvalidInput)
	}
	return nil
}

// CompleteRegistration validates the payload, persists role and
// organization details and flips the completed flag. A second call for
// the same phone fails.
func (s *IdentityService) CompleteRegistration(ctx context.Context, rawPhone string, role domain.UserRole, payload *domain.RegistrationPayload, clinicSubRole *domain.ClinicSubRole) (*domain.User, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}

	if !role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	if err := validateRegistrationPayload(payload); err != nil {
		return nil, err
	}
	if clinicSubRole != nil {
		if role != domain.UserRoleClinic {
			return nil, fmt.Errorf("%w: clinicSubRole only applies to clinics", ErrInvalidInput)
		}
		if !clinicSubRole.IsValid() {
			return nil, fmt.Errorf("%w: unknown clinic sub-role %q", ErrInvalidInput, *clinicSubRole)
		}
	}

	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user.RegistrationCompleted {
		return nil, ErrAlreadyCompleted
	}

	user.Role = &role
	user.OrganizationName = payload.OrganizationName
	user.TaxID = payload.TaxID
	user.Address = payload.Address
	user.ContactPerson = payload.ContactPerson
	user.Email = payload.Email
	if role == domain.UserRoleClinic {
		user.ClinicSubRole = clinicSubRole
	} else {
		user.ClinicSubRole = nil
	}
	user.RegistrationCompleted = true

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to complete registration: %w", err)
	}

	s.logger.Info("registration completed",
		zap.String("phone", phone),
		zap.String("role", string(role)),
	)
	return user, nil
}

// SelectClinicSubRole records the clinic sub-role chosen after
// registration has completed
func (s *IdentityService) SelectClinicSubRole(ctx context.Context, rawPhone string, subRole domain.ClinicSubRole) (*domain.User, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}

	if !subRole.IsValid() {
		return nil, fmt.Errorf("%w: unknown clinic sub-role %q", ErrInvalidInput, subRole)
	}

	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user.Role == nil || *user.Role != domain.UserRoleClinic {
		return nil, fmt.Errorf("%w: sub-role requires the clinic role", ErrInvalidInput)
	}

	user.ClinicSubRole = &subRole
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to set clinic sub-role: %w", err)
	}

	return user, nil
}

// UpdateOrganization edits organization fields after registration
// without touching the role or the completed flag
func (s *IdentityService) UpdateOrganization(ctx context.Context, rawPhone string, req *domain.UpdateOrganizationRequest) (*domain.User, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if req.OrganizationName != nil {
		if *req.OrganizationName == "" {
			return nil, fmt.Errorf("%w: organizationName cannot be empty", ErrInvalidInput)
		}
		user.OrganizationName = *req.OrganizationName
	}
	if req.Address != nil {
		user.Address = *req.Address
	}
	if req.ContactPerson != nil {
		user.ContactPerson = *req.ContactPerson
	}
	if req.Email != nil {
		if err := emailValidator.Var(*req.Email, "required,email"); err != nil {
			return nil, fmt.Errorf("%w: email must be a valid address", ErrInvalidInput)
		}
		user.Email = *req.Email
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}

	return user, nil
}

// GetByPhone loads the principal for a canonical or raw phone
func (s *IdentityService) GetByPhone(ctx context.Context, rawPhone string) (*domain.User, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}
