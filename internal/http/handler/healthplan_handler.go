package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/medosmotr/examination-api/internal/auth"
	"github.com/medosmotr/examination-api/internal/domain"
	"github.com/medosmotr/examination-api/internal/service"
	"go.uber.org/zap"
)

type HealthPlanHandler struct {
	planService *service.HealthPlanService
	logger      *zap.Logger
}

func NewHealthPlanHandler(planService *service.HealthPlanService, logger *zap.Logger) *HealthPlanHandler {
	return &HealthPlanHandler{
		planService: planService,
		logger:      logger,
	}
}

// Create godoc
// @Summary Create a health improvement plan
// @Description Open a draft plan for a calendar year. One plan per employer per year.
// @Tags HealthPlans
// @Accept json
// @Produce json
// @Param request body domain.CreatePlanRequest true "Plan details"
// @Success 201 {object} domain.HealthImprovementPlan
// @Failure 400 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /health-plans [post]
func (h *HealthPlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	var req domain.CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	plan, err := h.planService.Create(r.Context(), userCtx.UserID, &req)
	if err != nil {
		if errors.Is(err, service.ErrConflict) {
			respondWithError(w, http.StatusConflict, "A plan for this year already exists")
			return
		}
		h.logger.Error("failed to create plan", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to create plan")
		return
	}

	respondJSON(w, http.StatusCreated, plan)
}

// List godoc
// @Summary List health improvement plans
// @Tags HealthPlans
// @Produce json
// @Success 200 {array} domain.HealthImprovementPlan
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /health-plans [get]
func (h *HealthPlanHandler) List(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	plans, err := h.planService.List(r.Context(), userCtx.UserID)
	if err != nil {
		h.logger.Error("failed to list plans", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list plans")
		return
	}

	respondJSON(w, http.StatusOK, plans)
}

// Get godoc
// @Summary Get a health improvement plan
// @Tags HealthPlans
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} domain.HealthImprovementPlan
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /health-plans/{id} [get]
func (h *HealthPlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid plan ID")
		return
	}

	plan, err := h.planService.GetByID(r.Context(), userCtx.UserID, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Plan not found")
			return
		}
		h.logger.Error("failed to get plan", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to get plan")
		return
	}

	respondJSON(w, http.StatusOK, plan)
}

// Update godoc
// @Summary Update a draft plan
// @Description Edit plan activities. Only draft plans can be edited.
// @Tags HealthPlans
// @Accept json
// @Produce json
// @Param id path string true "Plan ID"
// @Param request body domain.UpdatePlanRequest true "Fields to update"
// @Success 200 {object} domain.HealthImprovementPlan
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /health-plans/{id} [put]
func (h *HealthPlanHandler) Update(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid plan ID")
		return
	}

	var req domain.UpdatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	plan, err := h.planService.Update(r.Context(), userCtx.UserID, id, &req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Plan not found")
			return
		}
		if errors.Is(err, service.ErrIllegalTransition) {
			respondWithError(w, http.StatusConflict, "Only draft plans can be edited")
			return
		}
		h.logger.Error("failed to update plan", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to update plan")
		return
	}

	respondJSON(w, http.StatusOK, plan)
}

// Submit godoc
// @Summary Submit a plan for approval
// @Description Move a draft plan to the pending approval state
// @Tags HealthPlans
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} domain.HealthImprovementPlan
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /health-plans/{id}/submit [post]
func (h *HealthPlanHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.planService.Submit)
}

// Approve godoc
// @Summary Approve a submitted plan
// @Tags HealthPlans
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} domain.HealthImprovementPlan
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /health-plans/{id}/approve [post]
func (h *HealthPlanHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.planService.Approve)
}

func (h *HealthPlanHandler) transition(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, employerID, id uuid.UUID) (*domain.HealthImprovementPlan, error)) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid plan ID")
		return
	}

	plan, err := apply(r.Context(), userCtx.UserID, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Plan not found")
			return
		}
		if errors.Is(err, service.ErrIllegalTransition) {
			respondWithError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("failed to transition plan", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to transition plan")
		return
	}

	respondJSON(w, http.StatusOK, plan)
}

// Delete godoc
// @Summary Delete a plan
// @Tags HealthPlans
// @Param id path string true "Plan ID"
// @Success 204 "No Content"
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /health-plans/{id} [delete]
func (h *HealthPlanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid plan ID")
		return
	}

	if err := h.planService.Delete(r.Context(), userCtx.UserID, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Plan not found")
			return
		}
		h.logger.Error("failed to delete plan", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to delete plan")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
