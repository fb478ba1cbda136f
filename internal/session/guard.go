// Package session derives navigation decisions from principal state.
// The guard is a pure function: identical inputs always produce
// identical outputs, and no ambient state is consulted.
package session

import (
	"strings"

	"github.com/medosmotr/examination-api/internal/domain"
)

// Route is a client navigation target known to the guard
type Route string

const (
	RouteLanding          Route = "/"
	RoutePhoneEntry       Route = "/auth"
	RouteSelectRole       Route = "/auth/select-role"
	RouteRegisterClinic   Route = "/auth/register/clinic"
	RouteRegisterEmployer Route = "/auth/register/employer"
	RouteSelectSubRole    Route = "/auth/select-subrole"
	RouteClinicDashboard  Route = "/dashboard/clinic"
	RouteEmployerDashboard Route = "/dashboard/employer"
)

// DecisionKind distinguishes pass-through from redirects
type DecisionKind string

const (
	DecisionAllow    DecisionKind = "allow"
	DecisionRedirect DecisionKind = "redirect"
)

// Decision is the guard's verdict for one requested route
type Decision struct {
	Kind  DecisionKind
	Route Route
}

// Allow lets the requested route through
func Allow() Decision {
	return Decision{Kind: DecisionAllow}
}

// RedirectTo sends the client to the single allowed next step
func RedirectTo(route Route) Decision {
	return Decision{Kind: DecisionRedirect, Route: route}
}

// isAuthRoute reports whether the route belongs to the entry/funnel surface
func isAuthRoute(route Route) bool {
	return route == RoutePhoneEntry ||
		route == RouteSelectRole ||
		route == RouteRegisterClinic ||
		route == RouteRegisterEmployer ||
		route == RouteSelectSubRole
}

// isDashboardRoute matches the dashboard root and everything under it
func isDashboardRoute(route Route) bool {
	return strings.HasPrefix(string(route), "/dashboard")
}

// registrationRoute is the details form for the chosen role
func registrationRoute(role domain.UserRole) Route {
	if role == domain.UserRoleClinic {
		return RouteRegisterClinic
	}
	return RouteRegisterEmployer
}

// dashboardRoute is the dashboard root for the chosen role
func dashboardRoute(role domain.UserRole) Route {
	if role == domain.UserRoleClinic {
		return RouteClinicDashboard
	}
	return RouteEmployerDashboard
}

// Resolve evaluates the guard rules in order, first match wins.
// A redirect whose target equals the requested route collapses to Allow
// so the client never loops on the step it is already on.
func Resolve(principal *domain.User, requested Route) Decision {
	// Rule 1: anonymous visitors may only see the landing page and the
	// phone entry screen.
	if principal == nil {
		if requested == RouteLanding || requested == RoutePhoneEntry {
			return Allow()
		}
		return RedirectTo(RoutePhoneEntry)
	}

	// Rule 2: authenticated but no role chosen yet.
	if !principal.RegistrationCompleted && principal.Role == nil {
		if requested == RouteSelectRole {
			return Allow()
		}
		return RedirectTo(RouteSelectRole)
	}

	// Rule 3: role chosen, registration details still missing.
	if !principal.RegistrationCompleted {
		target := registrationRoute(*principal.Role)
		if requested == target {
			return Allow()
		}
		return RedirectTo(target)
	}

	// A completed registration with no role recorded is inconsistent
	// state; send the client back to role selection rather than panic.
	if principal.Role == nil {
		if requested == RouteSelectRole {
			return Allow()
		}
		return RedirectTo(RouteSelectRole)
	}

	// Rule 4: registered clinic without a sub-role.
	if *principal.Role == domain.UserRoleClinic && principal.ClinicSubRole == nil {
		if requested == RouteSelectSubRole {
			return Allow()
		}
		return RedirectTo(RouteSelectSubRole)
	}

	// Rule 5: fully provisioned users are bounced from entry/auth routes
	// to their dashboard; dashboard-internal routes pass through.
	if isAuthRoute(requested) || requested == RouteLanding {
		return RedirectTo(dashboardRoute(*principal.Role))
	}
	if isDashboardRoute(requested) {
		return Allow()
	}

	// Rule 6: everything else is allowed.
	return Allow()
}
