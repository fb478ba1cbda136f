package auth_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/medosmotr/examination-api/internal/auth"
	"github.com/medosmotr/examination-api/internal/config"
	"github.com/medosmotr/examination-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(ttl int) *auth.TokenManager {
	return auth.NewTokenManager(&config.AuthConfig{
		JWTSecret: "test-secret",
		TokenTTL:  ttl,
	}, "examination-api-test")
}

func testUser() *domain.User {
	role := domain.UserRoleClinic
	subRole := domain.ClinicSubRoleDoctor
	user := &domain.User{
		Phone:                 "77011234567",
		Role:                  &role,
		ClinicSubRole:         &subRole,
		RegistrationCompleted: true,
	}
	user.ID = uuid.New()
	return user
}

func TestTokenManager_RoundTrip(t *testing.T) {
	manager := newTestManager(3600)
	user := testUser()

	token, err := manager.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userCtx, err := manager.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, user.ID, userCtx.UserID)
	assert.Equal(t, user.Phone, userCtx.Phone)
	require.NotNil(t, userCtx.Role)
	assert.Equal(t, domain.UserRoleClinic, *userCtx.Role)
	require.NotNil(t, userCtx.ClinicSubRole)
	assert.Equal(t, domain.ClinicSubRoleDoctor, *userCtx.ClinicSubRole)
	assert.True(t, userCtx.RegistrationCompleted)
}

func TestTokenManager_PartialPrincipal(t *testing.T) {
	manager := newTestManager(3600)

	user := &domain.User{Phone: "77012223344"}
	user.ID = uuid.New()

	token, err := manager.Issue(user)
	require.NoError(t, err)

	userCtx, err := manager.Validate(token)
	require.NoError(t, err)
	assert.Nil(t, userCtx.Role)
	assert.Nil(t, userCtx.ClinicSubRole)
	assert.False(t, userCtx.RegistrationCompleted)
}

func TestTokenManager_Validate(t *testing.T) {
	manager := newTestManager(3600)

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := manager.Validate("not.a.token")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		other := auth.NewTokenManager(&config.AuthConfig{
			JWTSecret: "different-secret",
			TokenTTL:  3600,
		}, "examination-api-test")

		token, err := other.Issue(testUser())
		require.NoError(t, err)

		_, err = manager.Validate(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		expired := newTestManager(-60)

		token, err := expired.Issue(testUser())
		require.NoError(t, err)

		_, err = manager.Validate(token)
		assert.ErrorIs(t, err, auth.ErrExpiredToken)
	})
}

func TestUserContext_CanCompleteService(t *testing.T) {
	clinic := domain.UserRoleClinic
	employer := domain.UserRoleEmployer

	tests := []struct {
		name    string
		role    *domain.UserRole
		subRole *domain.ClinicSubRole
		want    bool
	}{
		{"manager", &clinic, subRole(domain.ClinicSubRoleManager), true},
		{"profpathologist", &clinic, subRole(domain.ClinicSubRoleProfpathologist), true},
		{"doctor", &clinic, subRole(domain.ClinicSubRoleDoctor), true},
		{"receptionist", &clinic, subRole(domain.ClinicSubRoleReceptionist), false},
		{"clinic without sub-role", &clinic, nil, false},
		{"employer", &employer, nil, false},
		{"no role", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userCtx := &auth.UserContext{
				UserID:        uuid.New(),
				Role:          tt.role,
				ClinicSubRole: tt.subRole,
			}
			assert.Equal(t, tt.want, userCtx.CanCompleteService())
		})
	}
}

func subRole(r domain.ClinicSubRole) *domain.ClinicSubRole {
	return &r
}
