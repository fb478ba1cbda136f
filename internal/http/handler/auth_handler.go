package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/medosmotr/examination-api/internal/auth"
	"github.com/medosmotr/examination-api/internal/domain"
	"github.com/medosmotr/examination-api/internal/mapper"
	"github.com/medosmotr/examination-api/internal/service"
	"github.com/medosmotr/examination-api/internal/session"
	"go.uber.org/zap"
)

type AuthHandler struct {
	identityService *service.IdentityService
	tokens          *auth.TokenManager
	logger          *zap.Logger
}

func NewAuthHandler(identityService *service.IdentityService, tokens *auth.TokenManager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		identityService: identityService,
		tokens:          tokens,
		logger:          logger,
	}
}

// SendChallenge godoc
// @Summary Send a verification code
// @Description Send a one-time code to the given phone number. A new request supersedes any previous unconsumed code for the same phone.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.SendChallengeRequest true "Phone number"
// @Success 200 {object} domain.APIResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Router /auth/challenge [post]
func (h *AuthHandler) SendChallenge(w http.ResponseWriter, r *http.Request) {
	var req domain.SendChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	if err := h.identityService.SendChallenge(r.Context(), req.Phone); err != nil {
		if errors.Is(err, service.ErrInvalidPhone) {
			respondWithError(w, http.StatusBadRequest, "Invalid phone number")
			return
		}
		if errors.Is(err, service.ErrDeliveryFailed) {
			respondWithError(w, http.StatusBadGateway, "Failed to deliver verification code")
			return
		}
		h.logger.Error("failed to send challenge", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to send verification code")
		return
	}

	respondJSON(w, http.StatusOK, domain.APIResponse{Success: true, Message: "Verification code sent"})
}

// VerifyChallenge godoc
// @Summary Verify a one-time code
// @Description Redeem the active code for the phone. Creates the account on first verification and returns a session token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.VerifyChallengeRequest true "Phone and code"
// @Success 200 {object} domain.AuthResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Router /auth/verify [post]
func (h *AuthHandler) VerifyChallenge(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	user, err := h.identityService.VerifyChallenge(r.Context(), req.Phone, req.Code)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPhone) {
			respondWithError(w, http.StatusBadRequest, "Invalid phone number")
			return
		}
		if errors.Is(err, service.ErrNoActiveChallenge) {
			respondWithError(w, http.StatusUnauthorized, "No active verification code, request a new one")
			return
		}
		if errors.Is(err, service.ErrCodeMismatch) {
			respondWithError(w, http.StatusUnauthorized, "Verification code does not match")
			return
		}
		h.logger.Error("failed to verify challenge", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to verify code")
		return
	}

	h.respondWithToken(w, user)
}

// Login godoc
// @Summary Log in with password
// @Description Authenticate an existing account with phone and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.LoginRequest true "Credentials"
// @Success 200 {object} domain.AuthResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	user, err := h.identityService.LoginWithPassword(r.Context(), req.Phone, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPhone) {
			respondWithError(w, http.StatusBadRequest, "Invalid phone number")
			return
		}
		if errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrInvalidCredential) {
			respondWithError(w, http.StatusUnauthorized, "Invalid phone or password")
			return
		}
		if errors.Is(err, service.ErrNoPasswordSet) {
			respondWithError(w, http.StatusUnauthorized, "No password set for this account, use code verification")
			return
		}
		h.logger.Error("failed to log in", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	h.respondWithToken(w, user)
}

// SetPassword godoc
// @Summary Set or change the account password
// @Description Set a password for the authenticated account. The current password is required once one exists.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.SetPasswordRequest true "New password"
// @Success 200 {object} domain.APIResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /auth/password [post]
func (h *AuthHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	var req domain.SetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.identityService.SetPassword(r.Context(), userCtx.Phone, req.NewPassword, req.OldPassword)
	if err != nil {
		if errors.Is(err, service.ErrWeakPassword) {
			respondWithError(w, http.StatusBadRequest, "Password is too short")
			return
		}
		if errors.Is(err, service.ErrInvalidCredential) {
			respondWithError(w, http.StatusUnauthorized, "Current password does not match")
			return
		}
		if errors.Is(err, service.ErrUserNotFound) {
			respondWithError(w, http.StatusNotFound, "Account not found")
			return
		}
		h.logger.Error("failed to set password", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to set password")
		return
	}

	respondJSON(w, http.StatusOK, domain.APIResponse{Success: true, Message: "Password updated"})
}

// AssignRole godoc
// @Summary Choose the organization role
// @Description Record the role picked during registration. The role is locked once registration completes.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.AssignRoleRequest true "Role"
// @Success 200 {object} domain.AuthResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /auth/role [post]
func (h *AuthHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	var req domain.AssignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.Role.IsValid() {
		respondWithError(w, http.StatusBadRequest, "Unknown role")
		return
	}

	user, err := h.identityService.AssignRole(r.Context(), userCtx.Phone, req.Role)
	if err != nil {
		if errors.Is(err, service.ErrRoleLocked) {
			respondWithError(w, http.StatusConflict, "Role cannot change after registration is completed")
			return
		}
		if errors.Is(err, service.ErrUserNotFound) {
			respondWithError(w, http.StatusNotFound, "Account not found")
			return
		}
		h.logger.Error("failed to assign role", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to assign role")
		return
	}

	h.respondWithToken(w, user)
}

// CompleteRegistration godoc
// @Summary Complete organization registration
// @Description Submit the organization details and finish the registration funnel
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.CompleteRegistrationRequest true "Registration details"
// @Success 200 {object} domain.AuthResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /auth/register [post]
func (h *AuthHandler) CompleteRegistration(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	var req domain.CompleteRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.Role.IsValid() {
		respondWithError(w, http.StatusBadRequest, "Unknown role")
		return
	}

	user, err := h.identityService.CompleteRegistration(r.Context(), userCtx.Phone, req.Role, &req.Payload, req.ClinicSubRole)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyCompleted) {
			respondWithError(w, http.StatusConflict, "Registration is already completed")
			return
		}
		if errors.Is(err, service.ErrInvalidInput) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, service.ErrUserNotFound) {
			respondWithError(w, http.StatusNotFound, "Account not found")
			return
		}
		h.logger.Error("failed to complete registration", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to complete registration")
		return
	}

	h.respondWithToken(w, user)
}

// SelectSubRole godoc
// @Summary Choose the clinic sub-role
// @Description Record which clinic workstation the user operates
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.SelectSubRoleRequest true "Sub-role"
// @Success 200 {object} domain.AuthResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /auth/subrole [post]
func (h *AuthHandler) SelectSubRole(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	var req domain.SelectSubRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.ClinicSubRole.IsValid() {
		respondWithError(w, http.StatusBadRequest, "Unknown sub-role")
		return
	}

	user, err := h.identityService.SelectClinicSubRole(r.Context(), userCtx.Phone, req.ClinicSubRole)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			respondWithError(w, http.StatusForbidden, "Sub-roles apply to clinic accounts only")
			return
		}
		if errors.Is(err, service.ErrUserNotFound) {
			respondWithError(w, http.StatusNotFound, "Account not found")
			return
		}
		h.logger.Error("failed to select sub-role", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to select sub-role")
		return
	}

	h.respondWithToken(w, user)
}

// UpdateOrganization godoc
// @Summary Update organization details
// @Description Edit the organization profile after registration
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.UpdateOrganizationRequest true "Fields to update"
// @Success 200 {object} domain.UserResponse
// @Failure 400 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /auth/organization [put]
func (h *AuthHandler) UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	var req domain.UpdateOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	user, err := h.identityService.UpdateOrganization(r.Context(), userCtx.Phone, &req)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondWithError(w, http.StatusNotFound, "Account not found")
			return
		}
		h.logger.Error("failed to update organization", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to update organization")
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToUserResponse(user))
}

// Me godoc
// @Summary Get the current account
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.UserResponse
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	user, err := h.identityService.GetByPhone(r.Context(), userCtx.Phone)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondWithError(w, http.StatusNotFound, "Account not found")
			return
		}
		h.logger.Error("failed to load account", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to load account")
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToUserResponse(user))
}

// NextStep godoc
// @Summary Resolve the next funnel step
// @Description Given the route the client wants to open, return whether to allow it or where to redirect based on the account's registration progress. Anonymous calls are allowed.
// @Tags Auth
// @Produce json
// @Param route query string false "Requested route" default(/)
// @Success 200 {object} domain.NextStepResponse
// @Router /auth/next-step [get]
func (h *AuthHandler) NextStep(w http.ResponseWriter, r *http.Request) {
	requested := session.Route(r.URL.Query().Get("route"))
	if requested == "" {
		requested = session.RouteLanding
	}

	var principal *domain.User
	if userCtx, ok := auth.FromContext(r.Context()); ok {
		user, err := h.identityService.GetByPhone(r.Context(), userCtx.Phone)
		if err != nil && !errors.Is(err, service.ErrUserNotFound) {
			h.logger.Error("failed to load account for guard", zap.Error(err))
			respondWithError(w, http.StatusInternalServerError, "Failed to resolve next step")
			return
		}
		principal = user
	}

	decision := session.Resolve(principal, requested)
	resp := domain.NextStepResponse{Decision: string(decision.Kind)}
	if decision.Kind == session.DecisionRedirect {
		resp.Route = string(decision.Route)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, user *domain.User) {
	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to issue session token")
		return
	}
	respondJSON(w, http.StatusOK, domain.AuthResponse{Token: token, User: mapper.ToUserResponse(user)})
}
