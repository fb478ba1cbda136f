package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/medosmotr/examination-api/internal/auth"
	"github.com/medosmotr/examination-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// echoUser replies 200 and records whether a user context was present
func echoUser(sawUser *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := auth.FromContext(r.Context())
		*sawUser = ok
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_Authenticate(t *testing.T) {
	manager := newTestManager(3600)
	middleware := auth.NewMiddleware(manager, zap.NewNop())

	token, err := manager.Issue(testUser())
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   bool
	}{
		{"valid bearer token", "Bearer " + token, http.StatusOK, true},
		{"case-insensitive scheme", "bearer " + token, http.StatusOK, true},
		{"missing header", "", http.StatusUnauthorized, false},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, false},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sawUser := false
			handler := middleware.Authenticate(echoUser(&sawUser))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantUser, sawUser)
		})
	}
}

func TestMiddleware_OptionalAuthenticate(t *testing.T) {
	manager := newTestManager(3600)
	middleware := auth.NewMiddleware(manager, zap.NewNop())

	token, err := manager.Issue(testUser())
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantUser bool
	}{
		{"valid token attaches the user", "Bearer " + token, true},
		{"no header passes through anonymously", "", false},
		{"invalid token passes through anonymously", "Bearer junk", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sawUser := false
			handler := middleware.OptionalAuthenticate(echoUser(&sawUser))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/next-step", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantUser, sawUser)
		})
	}
}

func TestMiddleware_RequireRole(t *testing.T) {
	manager := newTestManager(3600)
	middleware := auth.NewMiddleware(manager, zap.NewNop())

	clinicToken, err := manager.Issue(testUser())
	require.NoError(t, err)

	t.Run("matching role passes", func(t *testing.T) {
		sawUser := false
		handler := middleware.Authenticate(
			middleware.RequireRole(domain.UserRoleClinic)(echoUser(&sawUser)))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/route-sheets", nil)
		req.Header.Set("Authorization", "Bearer "+clinicToken)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong role is forbidden", func(t *testing.T) {
		sawUser := false
		handler := middleware.Authenticate(
			middleware.RequireRole(domain.UserRoleEmployer)(echoUser(&sawUser)))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/employees", nil)
		req.Header.Set("Authorization", "Bearer "+clinicToken)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing user context is forbidden", func(t *testing.T) {
		sawUser := false
		handler := middleware.RequireRole(domain.UserRoleClinic)(echoUser(&sawUser))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/route-sheets", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestMiddleware_RequireRegistered(t *testing.T) {
	manager := newTestManager(3600)
	middleware := auth.NewMiddleware(manager, zap.NewNop())

	t.Run("registered user passes", func(t *testing.T) {
		token, err := manager.Issue(testUser())
		require.NoError(t, err)

		sawUser := false
		handler := middleware.Authenticate(middleware.RequireRegistered(echoUser(&sawUser)))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/employees", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unfinished registration is forbidden", func(t *testing.T) {
		user := testUser()
		user.RegistrationCompleted = false
		token, err := manager.Issue(user)
		require.NoError(t, err)

		sawUser := false
		handler := middleware.Authenticate(middleware.RequireRegistered(echoUser(&sawUser)))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/employees", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
