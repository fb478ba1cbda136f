package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/medosmotr/examination-api/internal/config"
	"github.com/medosmotr/examination-api/internal/domain"
	"github.com/medosmotr/examination-api/internal/repository"
	"github.com/medosmotr/examination-api/internal/service"
	"github.com/medosmotr/examination-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// captureSender records delivered codes instead of sending them
type captureSender struct {
	phones []string
	codes  []string
	fail   error
}

func (s *captureSender) Deliver(_ context.Context, phone, code string) error {
	if s.fail != nil {
		return s.fail
	}
	s.phones = append(s.phones, phone)
	s.codes = append(s.codes, code)
	return nil
}

func (s *captureSender) lastCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, s.codes, "no code was delivered")
	return s.codes[len(s.codes)-1]
}

func createIdentityService(db *gorm.DB, sender *captureSender) *service.IdentityService {
	userRepo := repository.NewUserRepository(db)
	challengeRepo := repository.NewChallengeRepository(db)
	authCfg := &config.AuthConfig{JWTSecret: "test-secret", TokenTTL: 3600, MinPasswordLength: 6}
	challengeCfg := &config.ChallengeConfig{TTL: 300, CodeLength: 6}

	return service.NewIdentityService(userRepo, challengeRepo, sender, authCfg, challengeCfg, zap.NewNop(), db)
}

func TestIdentityService_SendChallenge(t *testing.T) {
	db := testutil.SetupTestDB(t)
	sender := &captureSender{}
	svc := createIdentityService(db, sender)
	ctx := context.Background()

	t.Run("delivers a code and persists the challenge", func(t *testing.T) {
		err := svc.SendChallenge(ctx, "+7 (701) 123-45-67")
		require.NoError(t, err)

		require.Len(t, sender.phones, 1)
		assert.Equal(t, "77011234567", sender.phones[0])
		assert.Len(t, sender.lastCode(t), 6)

		var count int64
		require.NoError(t, db.Model(&domain.Challenge{}).
			Where("phone = ? AND consumed = ?", "77011234567", false).
			Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("supersedes the previous challenge", func(t *testing.T) {
		require.NoError(t, svc.SendChallenge(ctx, "77011234567"))

		var live int64
		require.NoError(t, db.Model(&domain.Challenge{}).
			Where("phone = ? AND consumed = ?", "77011234567", false).
			Count(&live).Error)
		assert.Equal(t, int64(1), live, "only the latest challenge may stay live")
	})

	t.Run("rejects an invalid phone", func(t *testing.T) {
		err := svc.SendChallenge(ctx, "not-a-phone")
		assert.ErrorIs(t, err, service.ErrInvalidPhone)
	})

	t.Run("keeps state untouched when delivery fails", func(t *testing.T) {
		failing := &captureSender{fail: errors.New("gateway down")}
		failingSvc := createIdentityService(db, failing)

		err := failingSvc.SendChallenge(ctx, "77019998877")
		assert.ErrorIs(t, err, service.ErrDeliveryFailed)

		var count int64
		require.NoError(t, db.Model(&domain.Challenge{}).
			Where("phone = ?", "77019998877").
			Count(&count).Error)
		assert.Equal(t, int64(0), count, "a failed delivery must not persist a challenge")
	})
}

func TestIdentityService_VerifyChallenge(t *testing.T) {
	db := testutil.SetupTestDB(t)
	sender := &captureSender{}
	svc := createIdentityService(db, sender)
	ctx := context.Background()

	t.Run("creates the principal on first verification", func(t *testing.T) {
		require.NoError(t, svc.SendChallenge(ctx, "77011112233"))

		user, err := svc.VerifyChallenge(ctx, "8 701 111 22 33", sender.lastCode(t))
		require.NoError(t, err)
		assert.Equal(t, "77011112233", user.Phone)
		assert.Nil(t, user.Role)
		assert.False(t, user.RegistrationCompleted)
	})

	t.Run("returns the existing principal on later verifications", func(t *testing.T) {
		require.NoError(t, svc.SendChallenge(ctx, "77011112233"))

		first, err := svc.GetByPhone(ctx, "77011112233")
		require.NoError(t, err)

		user, err := svc.VerifyChallenge(ctx, "77011112233", sender.lastCode(t))
		require.NoError(t, err)
		assert.Equal(t, first.ID, user.ID)
	})

	t.Run("rejects a second redemption of the same code", func(t *testing.T) {
		require.NoError(t, svc.SendChallenge(ctx, "77011112233"))
		code := sender.lastCode(t)

		_, err := svc.VerifyChallenge(ctx, "77011112233", code)
		require.NoError(t, err)

		_, err = svc.VerifyChallenge(ctx, "77011112233", code)
		assert.ErrorIs(t, err, service.ErrNoActiveChallenge)
	})

	t.Run("rejects a wrong code", func(t *testing.T) {
		require.NoError(t, svc.SendChallenge(ctx, "77011112233"))

		_, err := svc.VerifyChallenge(ctx, "77011112233", "000000")
		if sender.lastCode(t) == "000000" {
			t.Skip("generated code collided with the probe value")
		}
		assert.ErrorIs(t, err, service.ErrCodeMismatch)
	})

	t.Run("rejects a phone without a challenge", func(t *testing.T) {
		_, err := svc.VerifyChallenge(ctx, "77055556677", "123456")
		assert.ErrorIs(t, err, service.ErrNoActiveChallenge)
	})

	t.Run("rejects an expired challenge", func(t *testing.T) {
		require.NoError(t, svc.SendChallenge(ctx, "77044443322"))

		// Backdate past the validity window
		err := db.Model(&domain.Challenge{}).
			Where("phone = ?", "77044443322").
			Update("issued_at", time.Now().UTC().Add(-time.Hour)).Error
		require.NoError(t, err)

		_, err = svc.VerifyChallenge(ctx, "77044443322", sender.lastCode(t))
		assert.ErrorIs(t, err, service.ErrNoActiveChallenge)
	})
}

// verifyPrincipal runs the full challenge round for the phone and
// returns the resulting user
func verifyPrincipal(t *testing.T, svc *service.IdentityService, sender *captureSender, phone string) *domain.User {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, svc.SendChallenge(ctx, phone))
	user, err := svc.VerifyChallenge(ctx, phone, sender.lastCode(t))
	require.NoError(t, err)
	return user
}

func TestIdentityService_Passwords(t *testing.T) {
	db := testutil.SetupTestDB(t)
	sender := &captureSender{}
	svc := createIdentityService(db, sender)
	ctx := context.Background()

	phone := "77012223344"
	verifyPrincipal(t, svc, sender, phone)

	t.Run("login without a password fails", func(t *testing.T) {
		_, err := svc.LoginWithPassword(ctx, phone, "whatever")
		assert.ErrorIs(t, err, service.ErrNoPasswordSet)
	})

	t.Run("rejects a short password", func(t *testing.T) {
		err := svc.SetPassword(ctx, phone, "abc", nil)
		assert.ErrorIs(t, err, service.ErrWeakPassword)
	})

	t.Run("sets the first password without the old one", func(t *testing.T) {
		require.NoError(t, svc.SetPassword(ctx, phone, "secret-1", nil))

		user, err := svc.LoginWithPassword(ctx, phone, "secret-1")
		require.NoError(t, err)
		assert.Equal(t, phone, user.Phone)
	})

	t.Run("rejects a wrong password on login", func(t *testing.T) {
		_, err := svc.LoginWithPassword(ctx, phone, "wrong")
		assert.ErrorIs(t, err, service.ErrInvalidCredential)
	})

	t.Run("requires the old password for a change", func(t *testing.T) {
		err := svc.SetPassword(ctx, phone, "secret-2", nil)
		assert.ErrorIs(t, err, service.ErrInvalidCredential)

		wrong := "not-it"
		err = svc.SetPassword(ctx, phone, "secret-2", &wrong)
		assert.ErrorIs(t, err, service.ErrInvalidCredential)

		old := "secret-1"
		require.NoError(t, svc.SetPassword(ctx, phone, "secret-2", &old))

		_, err = svc.LoginWithPassword(ctx, phone, "secret-2")
		require.NoError(t, err)
	})

	t.Run("login for an unknown phone fails", func(t *testing.T) {
		_, err := svc.LoginWithPassword(ctx, "77090000000", "secret-1")
		assert.ErrorIs(t, err, service.ErrUserNotFound)
	})
}

func validRegistrationPayload() *domain.RegistrationPayload {
	return &domain.RegistrationPayload{
		OrganizationName: "ТОО МедЦентр",
		TaxID:            "123456789012",
		Address:          "г. Алматы, ул. Абая 1",
		ContactPerson:    "Иванов Иван",
		Email:            "info@medcenter.kz",
	}
}

func TestIdentityService_Registration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	sender := &captureSender{}
	svc := createIdentityService(db, sender)
	ctx := context.Background()

	phone := "77013334455"
	verifyPrincipal(t, svc, sender, phone)

	t.Run("assigns and reassigns the role before completion", func(t *testing.T) {
		user, err := svc.AssignRole(ctx, phone, domain.UserRoleEmployer)
		require.NoError(t, err)
		require.NotNil(t, user.Role)
		assert.Equal(t, domain.UserRoleEmployer, *user.Role)

		user, err = svc.AssignRole(ctx, phone, domain.UserRoleClinic)
		require.NoError(t, err)
		assert.Equal(t, domain.UserRoleClinic, *user.Role)
	})

	t.Run("rejects an unknown role", func(t *testing.T) {
		_, err := svc.AssignRole(ctx, phone, domain.UserRole("admin"))
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("validates the payload field by field", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(p *domain.RegistrationPayload)
		}{
			{"missing organization name", func(p *domain.RegistrationPayload) { p.OrganizationName = "" }},
			{"tax id too short", func(p *domain.RegistrationPayload) { p.TaxID = "12345" }},
			{"tax id with letters", func(p *domain.RegistrationPayload) { p.TaxID = "12345678901a" }},
			{"missing address", func(p *domain.RegistrationPayload) { p.Address = "" }},
			{"missing contact person", func(p *domain.RegistrationPayload) { p.ContactPerson = "" }},
			{"malformed email", func(p *domain.RegistrationPayload) { p.Email = "not-an-email" }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				payload := validRegistrationPayload()
				tt.mutate(payload)
				_, err := svc.CompleteRegistration(ctx, phone, domain.UserRoleEmployer, payload, nil)
				assert.ErrorIs(t, err, service.ErrInvalidInput)
			})
		}
	})

	t.Run("rejects a sub-role for an employer", func(t *testing.T) {
		subRole := domain.ClinicSubRoleManager
		_, err := svc.CompleteRegistration(ctx, phone, domain.UserRoleEmployer, validRegistrationPayload(), &subRole)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("completes registration", func(t *testing.T) {
		subRole := domain.ClinicSubRoleManager
		user, err := svc.CompleteRegistration(ctx, phone, domain.UserRoleClinic, validRegistrationPayload(), &subRole)
		require.NoError(t, err)
		assert.True(t, user.RegistrationCompleted)
		require.NotNil(t, user.Role)
		assert.Equal(t, domain.UserRoleClinic, *user.Role)
		require.NotNil(t, user.ClinicSubRole)
		assert.Equal(t, domain.ClinicSubRoleManager, *user.ClinicSubRole)
		assert.Equal(t, "123456789012", user.TaxID)
	})

	t.Run("rejects a second completion", func(t *testing.T) {
		_, err := svc.CompleteRegistration(ctx, phone, domain.UserRoleClinic, validRegistrationPayload(), nil)
		assert.ErrorIs(t, err, service.ErrAlreadyCompleted)
	})

	t.Run("locks the role after completion", func(t *testing.T) {
		_, err := svc.AssignRole(ctx, phone, domain.UserRoleEmployer)
		assert.ErrorIs(t, err, service.ErrRoleLocked)
	})
}

func TestIdentityService_SelectClinicSubRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	sender := &captureSender{}
	svc := createIdentityService(db, sender)
	ctx := context.Background()

	clinicPhone := "77014445566"
	verifyPrincipal(t, svc, sender, clinicPhone)
	_, err := svc.CompleteRegistration(ctx, clinicPhone, domain.UserRoleClinic, validRegistrationPayload(), nil)
	require.NoError(t, err)

	employerPhone := "77015556677"
	verifyPrincipal(t, svc, sender, employerPhone)
	_, err = svc.CompleteRegistration(ctx, employerPhone, domain.UserRoleEmployer, validRegistrationPayload(), nil)
	require.NoError(t, err)

	t.Run("records the sub-role for a clinic", func(t *testing.T) {
		user, err := svc.SelectClinicSubRole(ctx, clinicPhone, domain.ClinicSubRoleDoctor)
		require.NoError(t, err)
		require.NotNil(t, user.ClinicSubRole)
		assert.Equal(t, domain.ClinicSubRoleDoctor, *user.ClinicSubRole)
	})

	t.Run("rejects an unknown sub-role", func(t *testing.T) {
		_, err := svc.SelectClinicSubRole(ctx, clinicPhone, domain.ClinicSubRole("janitor"))
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("rejects an employer", func(t *testing.T) {
		_, err := svc.SelectClinicSubRole(ctx, employerPhone, domain.ClinicSubRoleManager)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func TestIdentityService_UpdateOrganization(t *testing.T) {
	db := testutil.SetupTestDB(t)
	sender := &captureSender{}
	svc := createIdentityService(db, sender)
	ctx := context.Background()

	phone := "77016667788"
	verifyPrincipal(t, svc, sender, phone)
	_, err := svc.CompleteRegistration(ctx, phone, domain.UserRoleEmployer, validRegistrationPayload(), nil)
	require.NoError(t, err)

	t.Run("updates provided fields only", func(t *testing.T) {
		name := "ТОО Новое Имя"
		user, err := svc.UpdateOrganization(ctx, phone, &domain.UpdateOrganizationRequest{
			OrganizationName: &name,
		})
		require.NoError(t, err)
		assert.Equal(t, name, user.OrganizationName)
		assert.Equal(t, "г. Алматы, ул. Абая 1", user.Address)
		assert.True(t, user.RegistrationCompleted)
	})

	t.Run("rejects an empty organization name", func(t *testing.T) {
		empty := ""
		_, err := svc.UpdateOrganization(ctx, phone, &domain.UpdateOrganizationRequest{
			OrganizationName: &empty,
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("rejects a malformed email", func(t *testing.T) {
		bad := "nope"
		_, err := svc.UpdateOrganization(ctx, phone, &domain.UpdateOrganizationRequest{
			Email: &bad,
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}
