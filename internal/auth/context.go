package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/medosmotr/examination-api/internal/domain"
)

// UserContext holds authenticated user information for a request
type UserContext struct {
	UserID                uuid.UUID
	Phone                 string
	Role                  *domain.UserRole
	ClinicSubRole         *domain.ClinicSubRole
	RegistrationCompleted bool
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// MustFromContext extracts user context or panics
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// HasRole checks if the user holds the given organization role
func (u *UserContext) HasRole(role domain.UserRole) bool {
	return u.Role != nil && *u.Role == role
}

// IsClinic reports whether the user acts for a clinic
func (u *UserContext) IsClinic() bool {
	return u.HasRole(domain.UserRoleClinic)
}

// IsEmployer reports whether the user acts for an employer
func (u *UserContext) IsEmployer() bool {
	return u.HasRole(domain.UserRoleEmployer)
}

// HasSubRole checks the clinic sub-role
func (u *UserContext) HasSubRole(subRole domain.ClinicSubRole) bool {
	return u.ClinicSubRole != nil && *u.ClinicSubRole == subRole
}

// HasAnySubRole checks if user has any of the specified clinic sub-roles
func (u *UserContext) HasAnySubRole(subRoles ...domain.ClinicSubRole) bool {
	for _, subRole := range subRoles {
		if u.HasSubRole(subRole) {
			return true
		}
	}
	return false
}

// CanCompleteService reports whether the user may mark a route sheet
// service as completed. Any clinic manager, profpathologist or doctor
// may complete any service regardless of its specialization.
func (u *UserContext) CanCompleteService() bool {
	if !u.IsClinic() {
		return false
	}
	return u.HasAnySubRole(
		domain.ClinicSubRoleManager,
		domain.ClinicSubRoleProfpathologist,
		domain.ClinicSubRoleDoctor,
	)
}
