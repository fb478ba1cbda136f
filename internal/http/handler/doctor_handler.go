package handler

import (
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

type DoctorHandler struct {
	doctorService *service.DoctorService
	logger        *zap.Logger
}

func NewDoctorHandler(doctorService *service.DoctorService, logger *zap.Logger) *DoctorHandler {
	return &DoctorHandler{
		doctorService: doctorService,
		logger:        logger,
	}
}

// Create godoc
// @Summary Register a doctor
// @Tags Doctors
// @Accept json
// @Produce json
// @Param request body domain.CreateDoctorRequest true "Doctor details"
// @Success 201 {object} domain.Doctor
// @Failure 400 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /doctors [post]
func (h *DoctorHandler) Create(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	var req domain.CreateDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	doctor, err := h.doctorService.Create(r.Context(), userCtx.UserID, &req)
	if err != nil {
		h.logger.Error("failed to create doctor", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to create doctor")
		return
	}

	respondJSON(w, http.StatusCreated, doctor)
}

// List godoc
// @Summary List clinic doctors
// @Tags Doctors
// @Produce json
// @Success 200 {array} domain.Doctor
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /doctors [get]
func (h *DoctorHandler) List(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	doctors, err := h.doctorService.List(r.Context(), userCtx.UserID)
	if err != nil {
		h.logger.Error("failed to list doctors", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list doctors")
		return
	}

	respondJSON(w, http.StatusOK, doctors)
}

// Get godoc
// @Summary Get a doctor
// @Tags Doctors
// @Produce json
// @Param id path string true "Doctor ID"
// @Success 200 {object} domain.Doctor
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /doctors/{id} [get]
func (h *DoctorHandler) Get(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid doctor ID")
		return
	}

	doctor, err := h.doctorService.GetByID(r.Context(), userCtx.UserID, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Doctor not found")
			return
		}
		h.logger.Error("failed to get doctor", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to get doctor")
		return
	}

	respondJSON(w, http.StatusOK, doctor)
}

// Update godoc
// @Summary Update a doctor
// @Tags Doctors
// @Accept json
// @Produce json
// @Param id path string true "Doctor ID"
// @Param request body domain.UpdateDoctorRequest true "Fields to update"
// @Success 200 {object} domain.Doctor
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /doctors/{id} [put]
func (h *DoctorHandler) Update(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid doctor ID")
		return
	}

	var req domain.UpdateDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	doctor, err := h.doctorService.Update(r.Context(), userCtx.UserID, id, &req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Doctor not found")
			return
		}
		h.logger.Error("failed to update doctor", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to update doctor")
		return
	}

	respondJSON(w, http.StatusOK, doctor)
}

// Delete godoc
// @Summary Remove a doctor
// @Tags Doctors
// @Param id path string true "Doctor ID"
// @Success 204 "No Content"
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /doctors/{id} [delete]
func (h *DoctorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid doctor ID")
		return
	}

	if err := h.doctorService.Delete(r.Context(), userCtx.UserID, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Doctor not found")
			return
		}
		h.logger.Error("failed to delete doctor", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to delete doctor")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
