package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/medosmotr/examination-api/internal/auth"
	"github.com/medosmotr/examination-api/internal/documents"
	"github.com/medosmotr/examination-api/internal/domain"
	"github.com/medosmotr/examination-api/internal/importer"
	"github.com/medosmotr/examination-api/internal/repository"
	"github.com/medosmotr/examination-api/internal/service"
	"go.uber.org/zap"
)

// maxImportSize caps uploaded spreadsheets at 10 MB
const maxImportSize = 10 << 20

type EmployeeHandler struct {
	employeeService *service.EmployeeService
	logger          *zap.Logger
}

func NewEmployeeHandler(employeeService *service.EmployeeService, logger *zap.Logger) *EmployeeHandler {
	return &EmployeeHandler{
		employeeService: employeeService,
		logger:          logger,
	}
}

// List godoc
// @Summary List contingent employees
// @Description Get paginated roster of the authenticated employer with optional filters
// @Tags Contingent
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param search query string false "Search by name or national ID"
// @Param department query string false "Filter by department"
// @Param position query string false "Filter by position"
// @Param dueOnly query bool false "Only employees with an examination due"
// @Param sortBy query string false "Sort option" Enums(name_asc, name_desc, created_desc, next_exam_asc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.ContingentEmployee}
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /employees [get]
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize < 1 {
		pageSize = 20
	}

	filters := &repository.EmployeeFilters{
		Search: r.URL.Query().Get("search"),
	}
	if dept := r.URL.Query().Get("department"); dept != "" {
		filters.Department = &dept
	}
	if pos := r.URL.Query().Get("position"); pos != "" {
		filters.Position = &pos
	}
	if due := r.URL.Query().Get("dueOnly"); due == "true" {
		filters.DueOnly = true
	}

	sortBy := repository.EmployeeSortByCreatedDesc
	if s := r.URL.Query().Get("sortBy"); s != "" {
		sortBy = repository.EmployeeSortOption(s)
	}

	employees, total, err := h.employeeService.List(r.Context(), userCtx.UserID, page, pageSize, filters, sortBy)
	if err != nil {
		h.logger.Error("failed to list employees", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list employees")
		return
	}

	respondJSON(w, http.StatusOK, paginated(employees, total, page, pageSize))
}

// Get godoc
// @Summary Get a contingent employee
// @Tags Contingent
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} domain.ContingentEmployee
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /employees/{id} [get]
func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid employee ID")
		return
	}

	employee, err := h.employeeService.GetByID(r.Context(), userCtx.UserID, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Employee not found")
			return
		}
		h.logger.Error("failed to get employee", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to get employee")
		return
	}

	respondJSON(w, http.StatusOK, employee)
}

// Create godoc
// @Summary Add a contingent employee
// @Tags Contingent
// @Accept json
// @Produce json
// @Param request body domain.CreateEmployeeRequest true "Employee details"
// @Success 201 {object} domain.ContingentEmployee
// @Failure 400 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /employees [post]
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	var req domain.CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	employee, err := h.employeeService.Create(r.Context(), userCtx.UserID, &req)
	if err != nil {
		if errors.Is(err, service.ErrConflict) {
			respondWithError(w, http.StatusConflict, "An employee with this name or national ID already exists")
			return
		}
		h.logger.Error("failed to create employee", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to create employee")
		return
	}

	respondJSON(w, http.StatusCreated, employee)
}

// Update godoc
// @Summary Update a contingent employee
// @Tags Contingent
// @Accept json
// @Produce json
// @Param id path string true "Employee ID"
// @Param request body domain.UpdateEmployeeRequest true "Fields to update"
// @Success 200 {object} domain.ContingentEmployee
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /employees/{id} [put]
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid employee ID")
		return
	}

	var req domain.UpdateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	employee, err := h.employeeService.Update(r.Context(), userCtx.UserID, id, &req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Employee not found")
			return
		}
		h.logger.Error("failed to update employee", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to update employee")
		return
	}

	respondJSON(w, http.StatusOK, employee)
}

// Delete godoc
// @Summary Remove a contingent employee
// @Tags Contingent
// @Param id path string true "Employee ID"
// @Success 204 "No Content"
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /employees/{id} [delete]
func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid employee ID")
		return
	}

	if err := h.employeeService.Delete(r.Context(), userCtx.UserID, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Employee not found")
			return
		}
		h.logger.Error("failed to delete employee", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to delete employee")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Import godoc
// @Summary Import contingent from a spreadsheet
// @Description Upload an xlsx roster. Rows without a name, rows with invalid data and duplicates of existing employees are skipped and counted per reason.
// @Tags Contingent
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Roster spreadsheet (.xlsx)"
// @Success 200 {object} domain.ImportResult
// @Failure 400 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /employees/import [post]
func (h *EmployeeHandler) Import(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	rows, err := importer.ParseContingent(file)
	if err != nil {
		h.logger.Warn("failed to parse roster upload",
			zap.String("fileName", header.Filename), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, "File is not a readable spreadsheet")
		return
	}

	result, err := h.employeeService.BulkImport(r.Context(), userCtx.UserID, rows)
	if err != nil {
		h.logger.Error("failed to import roster", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to import roster")
		return
	}

	h.logger.Info("roster imported",
		zap.String("employerId", userCtx.UserID.String()),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped))

	respondJSON(w, http.StatusOK, result)
}

// Export godoc
// @Summary Export the contingent as a spreadsheet
// @Description Download the full roster of the authenticated employer as xlsx
// @Tags Contingent
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /employees/export [get]
func (h *EmployeeHandler) Export(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	employees, err := h.employeeService.ListAll(r.Context(), userCtx.UserID)
	if err != nil {
		h.logger.Error("failed to load roster for export", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to export roster")
		return
	}

	buf, err := documents.BuildContingentWorkbook(employees)
	if err != nil {
		h.logger.Error("failed to build roster workbook", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to export roster")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="contingent.xlsx"`)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
