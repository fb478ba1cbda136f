package session_test

import (
	"testing"

	"github.com/medosmotr/examination-api/internal/domain"
	"github.com/medosmotr/examination-api/internal/session"
	"github.com/stretchr/testify/assert"
)

func rolePtr(r domain.UserRole) *domain.UserRole {
	return &r
}

func subRolePtr(r domain.ClinicSubRole) *domain.ClinicSubRole {
	return &r
}

// principals at each stage of the funnel
var (
	fresh = &domain.User{}

	roleChosen = &domain.User{Role: rolePtr(domain.UserRoleEmployer)}

	registeredEmployer = &domain.User{
		Role:                  rolePtr(domain.UserRoleEmployer),
		RegistrationCompleted: true,
	}

	clinicNoSubRole = &domain.User{
		Role:                  rolePtr(domain.UserRoleClinic),
		RegistrationCompleted: true,
	}

	registeredNoRole = &domain.User{RegistrationCompleted: true}

	clinicComplete = &domain.User{
		Role:                  rolePtr(domain.UserRoleClinic),
		ClinicSubRole:         subRolePtr(domain.ClinicSubRoleDoctor),
		RegistrationCompleted: true,
	}
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		principal *domain.User
		requested session.Route
		want      session.Decision
	}{
		// Anonymous
		{"anonymous sees landing", nil, session.RouteLanding, session.Allow()},
		{"anonymous sees phone entry", nil, session.RoutePhoneEntry, session.Allow()},
		{"anonymous is bounced from dashboard", nil, session.RouteClinicDashboard, session.RedirectTo(session.RoutePhoneEntry)},
		{"anonymous is bounced from role selection", nil, session.RouteSelectRole, session.RedirectTo(session.RoutePhoneEntry)},

		// Verified, no role yet
		{"fresh principal lands on role selection", fresh, session.RouteLanding, session.RedirectTo(session.RouteSelectRole)},
		{"fresh principal stays on role selection", fresh, session.RouteSelectRole, session.Allow()},
		{"fresh principal cannot skip to dashboard", fresh, session.RouteEmployerDashboard, session.RedirectTo(session.RouteSelectRole)},

		// Role chosen, details missing
		{"role chosen goes to registration form", roleChosen, session.RouteLanding, session.RedirectTo(session.RouteRegisterEmployer)},
		{"role chosen stays on registration form", roleChosen, session.RouteRegisterEmployer, session.Allow()},
		{"role chosen cannot revisit role selection", roleChosen, session.RouteSelectRole, session.RedirectTo(session.RouteRegisterEmployer)},

		// Completed registration but no role recorded
		{"registered without role is sent to role selection", registeredNoRole, session.RouteLanding, session.RedirectTo(session.RouteSelectRole)},
		{"registered without role stays on role selection", registeredNoRole, session.RouteSelectRole, session.Allow()},

		// Registered clinic without sub-role
		{"clinic without sub-role is sent to selection", clinicNoSubRole, session.RouteClinicDashboard, session.RedirectTo(session.RouteSelectSubRole)},
		{"clinic without sub-role stays on selection", clinicNoSubRole, session.RouteSelectSubRole, session.Allow()},

		// Fully provisioned
		{"employer is bounced from landing to dashboard", registeredEmployer, session.RouteLanding, session.RedirectTo(session.RouteEmployerDashboard)},
		{"employer is bounced from auth routes", registeredEmployer, session.RoutePhoneEntry, session.RedirectTo(session.RouteEmployerDashboard)},
		{"employer reaches the dashboard", registeredEmployer, session.RouteEmployerDashboard, session.Allow()},
		{"employer reaches dashboard subpages", registeredEmployer, session.Route("/dashboard/employer/employees"), session.Allow()},
		{"clinic is bounced to the clinic dashboard", clinicComplete, session.RouteLanding, session.RedirectTo(session.RouteClinicDashboard)},
		{"clinic reaches the dashboard", clinicComplete, session.RouteClinicDashboard, session.Allow()},
		{"clinic cannot reopen sub-role selection", clinicComplete, session.RouteSelectSubRole, session.RedirectTo(session.RouteClinicDashboard)},

		// Unknown routes pass through for provisioned users
		{"other routes are allowed", registeredEmployer, session.Route("/settings"), session.Allow()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := session.Resolve(tt.principal, tt.requested)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveIsPure(t *testing.T) {
	// Identical inputs must always produce identical decisions
	for i := 0; i < 10; i++ {
		first := session.Resolve(clinicNoSubRole, session.RouteLanding)
		second := session.Resolve(clinicNoSubRole, session.RouteLanding)
		assert.Equal(t, first, second)
	}
}
