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
	"github.com/medosmotr/examination-api/internal/mapper"
	"github.com/medosmotr/examination-api/internal/repository"
	"github.com/medosmotr/examination-api/internal/service"
	"go.uber.org/zap"
)

type RouteSheetHandler struct {
	routeSheetService *service.RouteSheetService
	logger            *zap.Logger
}

func NewRouteSheetHandler(routeSheetService *service.RouteSheetService, logger *zap.Logger) *RouteSheetHandler {
	return &RouteSheetHandler{
		routeSheetService: routeSheetService,
		logger:            logger,
	}
}

// Generate godoc
// @Summary Generate a route sheet
// @Description Build an examination itinerary for a patient visit. Specialists are derived from the patient's position and harmful factors, and visits are scheduled in order from the start of the day.
// @Tags RouteSheets
// @Accept json
// @Produce json
// @Param request body domain.GenerateRouteSheetRequest true "Patient visit details"
// @Success 201 {object} domain.RouteSheetResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 422 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /route-sheets [post]
func (h *RouteSheetHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	var req domain.GenerateRouteSheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	sheet, err := h.routeSheetService.Generate(r.Context(), userCtx.UserID, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to generate route sheet", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to generate route sheet")
		return
	}

	respondJSON(w, http.StatusCreated, mapper.ToRouteSheetResponse(sheet))
}

// List godoc
// @Summary List route sheets
// @Tags RouteSheets
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page" default(20)
// @Param patientName query string false "Search by patient name"
// @Param contractNumber query string false "Filter by contract number"
// @Param visitDateFrom query string false "Visit date lower bound (YYYY-MM-DD)"
// @Param visitDateTo query string false "Visit date upper bound (YYYY-MM-DD)"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.RouteSheetResponse}
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /route-sheets [get]
func (h *RouteSheetHandler) List(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize < 1 {
		pageSize = 20
	}

	filters := &repository.RouteSheetFilters{
		PatientName: r.URL.Query().Get("patientName"),
	}
	if cn := r.URL.Query().Get("contractNumber"); cn != "" {
		filters.ContractNumber = &cn
	}
	if from := r.URL.Query().Get("visitDateFrom"); from != "" {
		filters.VisitDateFrom = &from
	}
	if to := r.URL.Query().Get("visitDateTo"); to != "" {
		filters.VisitDateTo = &to
	}

	sheets, total, err := h.routeSheetService.List(r.Context(), userCtx.UserID, page, pageSize, filters)
	if err != nil {
		h.logger.Error("failed to list route sheets", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list route sheets")
		return
	}

	respondJSON(w, http.StatusOK, paginated(mapper.ToRouteSheetResponses(sheets), total, page, pageSize))
}

// Get godoc
// @Summary Get a route sheet
// @Tags RouteSheets
// @Produce json
// @Param id path string true "Route sheet ID"
// @Success 200 {object} domain.RouteSheetResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /route-sheets/{id} [get]
func (h *RouteSheetHandler) Get(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid route sheet ID")
		return
	}

	sheet, err := h.routeSheetService.GetByID(r.Context(), userCtx.UserID, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Route sheet not found")
			return
		}
		h.logger.Error("failed to get route sheet", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to get route sheet")
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToRouteSheetResponse(sheet))
}

// Delete godoc
// @Summary Delete a route sheet
// @Tags RouteSheets
// @Param id path string true "Route sheet ID"
// @Success 204 "No Content"
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /route-sheets/{id} [delete]
func (h *RouteSheetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid route sheet ID")
		return
	}

	if err := h.routeSheetService.Delete(r.Context(), userCtx.UserID, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Route sheet not found")
			return
		}
		h.logger.Error("failed to delete route sheet", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to delete route sheet")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CompleteService godoc
// @Summary Mark an itinerary step as completed
// @Description Complete one service on a route sheet. Only clinic managers, profpathologists and doctors may complete services, and a completed step cannot be completed again.
// @Tags RouteSheets
// @Produce json
// @Param id path string true "Route sheet ID"
// @Param serviceId path string true "Service ID"
// @Success 200 {object} domain.RouteSheetResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /route-sheets/{id}/services/{serviceId}/complete [post]
func (h *RouteSheetHandler) CompleteService(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	sheetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid route sheet ID")
		return
	}
	serviceID, err := uuid.Parse(chi.URLParam(r, "serviceId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid service ID")
		return
	}

	sheet, err := h.routeSheetService.CompleteService(r.Context(), userCtx.UserID, sheetID, serviceID)
	if err != nil {
		if errors.Is(err, service.ErrPermissionDenied) {
			respondWithError(w, http.StatusForbidden, "Your workstation role cannot complete services")
			return
		}
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Route sheet or service not found")
			return
		}
		if errors.Is(err, service.ErrIllegalTransition) {
			respondWithError(w, http.StatusConflict, "Service is already completed")
			return
		}
		h.logger.Error("failed to complete service", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to complete service")
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToRouteSheetResponse(sheet))
}
