package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/medosmotr/examination-api/internal/auth"
	"github.com/medosmotr/examination-api/internal/domain"
	"github.com/medosmotr/examination-api/internal/repository"
	"github.com/medosmotr/examination-api/internal/service"
	"go.uber.org/zap"
)

type RecommendationHandler struct {
	recommendationService *service.RecommendationService
	logger                *zap.Logger
}

func NewRecommendationHandler(recommendationService *service.RecommendationService, logger *zap.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		recommendationService: recommendationService,
		logger:                logger,
	}
}

// Create godoc
// @Summary Create a recommendation
// @Description Record a post-examination directive for a patient
// @Tags Recommendations
// @Accept json
// @Produce json
// @Param request body domain.CreateRecommendationRequest true "Recommendation details"
// @Success 201 {object} domain.Recommendation
// @Failure 400 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /recommendations [post]
func (h *RecommendationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	var req domain.CreateRecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}
	if !req.Type.IsValid() {
		respondWithError(w, http.StatusBadRequest, "Unknown recommendation type")
		return
	}

	rec, err := h.recommendationService.Create(r.Context(), userCtx.UserID, &req)
	if err != nil {
		h.logger.Error("failed to create recommendation", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to create recommendation")
		return
	}

	respondJSON(w, http.StatusCreated, rec)
}

// List godoc
// @Summary List recommendations
// @Tags Recommendations
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page" default(20)
// @Param status query string false "Filter by status" Enums(pending, in_progress, completed, cancelled)
// @Param type query string false "Filter by type" Enums(transfer, treatment, observation, rehabilitation)
// @Param patientName query string false "Search by patient name"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.Recommendation}
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /recommendations [get]
func (h *RecommendationHandler) List(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize < 1 {
		pageSize = 20
	}

	filters := &repository.RecommendationFilters{
		PatientName: r.URL.Query().Get("patientName"),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		s := domain.RecommendationStatus(status)
		filters.Status = &s
	}
	if recType := r.URL.Query().Get("type"); recType != "" {
		t := domain.RecommendationType(recType)
		filters.Type = &t
	}

	recs, total, err := h.recommendationService.List(r.Context(), userCtx.UserID, page, pageSize, filters)
	if err != nil {
		h.logger.Error("failed to list recommendations", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list recommendations")
		return
	}

	respondJSON(w, http.StatusOK, paginated(recs, total, page, pageSize))
}

// Get godoc
// @Summary Get a recommendation
// @Tags Recommendations
// @Produce json
// @Param id path string true "Recommendation ID"
// @Success 200 {object} domain.Recommendation
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /recommendations/{id} [get]
func (h *RecommendationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid recommendation ID")
		return
	}

	rec, err := h.recommendationService.GetByID(r.Context(), userCtx.UserID, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Recommendation not found")
			return
		}
		h.logger.Error("failed to get recommendation", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to get recommendation")
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// Update godoc
// @Summary Update a recommendation
// @Description Edit directive text fields. Completed and cancelled recommendations cannot be edited.
// @Tags Recommendations
// @Accept json
// @Produce json
// @Param id path string true "Recommendation ID"
// @Param request body domain.UpdateRecommendationRequest true "Fields to update"
// @Success 200 {object} domain.Recommendation
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /recommendations/{id} [put]
func (h *RecommendationHandler) Update(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid recommendation ID")
		return
	}

	var req domain.UpdateRecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, err := h.recommendationService.Update(r.Context(), userCtx.UserID, id, &req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Recommendation not found")
			return
		}
		if errors.Is(err, service.ErrIllegalTransition) {
			respondWithError(w, http.StatusConflict, "Recommendation is in a terminal state")
			return
		}
		h.logger.Error("failed to update recommendation", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to update recommendation")
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// Transition godoc
// @Summary Move a recommendation between states
// @Description Apply a lifecycle transition. Completing requires a completion date, and terminal states accept no further transitions.
// @Tags Recommendations
// @Accept json
// @Produce json
// @Param id path string true "Recommendation ID"
// @Param request body domain.TransitionRecommendationRequest true "Target status"
// @Success 200 {object} domain.Recommendation
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /recommendations/{id}/transition [post]
func (h *RecommendationHandler) Transition(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid recommendation ID")
		return
	}

	var req domain.TransitionRecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.Status.IsValid() {
		respondWithError(w, http.StatusBadRequest, "Unknown status")
		return
	}

	rec, err := h.recommendationService.Transition(r.Context(), userCtx.UserID, id, &req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Recommendation not found")
			return
		}
		if errors.Is(err, service.ErrInvalidInput) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, service.ErrIllegalTransition) {
			respondWithError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("failed to transition recommendation", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to transition recommendation")
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// Delete godoc
// @Summary Delete a recommendation
// @Tags Recommendations
// @Param id path string true "Recommendation ID"
// @Success 204 "No Content"
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /recommendations/{id} [delete]
func (h *RecommendationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid recommendation ID")
		return
	}

	if err := h.recommendationService.Delete(r.Context(), userCtx.UserID, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Recommendation not found")
			return
		}
		h.logger.Error("failed to delete recommendation", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to delete recommendation")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
