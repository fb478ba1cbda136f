package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/medosmotr/examination-api/internal/auth"
	"github.com/medosmotr/examination-api/internal/documents"
	"github.com/medosmotr/examination-api/internal/domain"
	"github.com/medosmotr/examination-api/internal/mapper"
	"github.com/medosmotr/examination-api/internal/service"
	"go.uber.org/zap"
)

type DocumentHandler struct {
	documentService *service.DocumentService
	logger          *zap.Logger
}

func NewDocumentHandler(documentService *service.DocumentService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		logger:          logger,
	}
}

// Generate godoc
// @Summary Generate a document
// @Description Render an xlsx artifact for an entity and store it. Supported kinds are contingent_roster, health_plan and recommendations_report.
// @Tags Documents
// @Accept json
// @Produce json
// @Param request body domain.GenerateDocumentRequest true "Entity and kind"
// @Success 201 {object} domain.DocumentResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 422 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /documents [post]
func (h *DocumentHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	var req domain.GenerateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	kind := documents.Kind(req.Kind)
	if !kind.IsValid() {
		respondWithError(w, http.StatusBadRequest, "Unknown document kind")
		return
	}

	doc, err := h.documentService.Generate(r.Context(), userCtx.UserID, req.EntityID, kind)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Entity not found")
			return
		}
		if errors.Is(err, service.ErrNothingToGenerate) {
			respondWithError(w, http.StatusUnprocessableEntity, "No data to render for this entity")
			return
		}
		h.logger.Error("failed to generate document", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to generate document")
		return
	}

	respondJSON(w, http.StatusCreated, mapper.ToDocumentResponse(doc))
}

// ListByEntity godoc
// @Summary List documents for an entity
// @Tags Documents
// @Produce json
// @Param entityId query string true "Entity ID"
// @Success 200 {array} domain.DocumentResponse
// @Failure 400 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /documents [get]
func (h *DocumentHandler) ListByEntity(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	entityID, err := uuid.Parse(r.URL.Query().Get("entityId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid entity ID")
		return
	}

	docs, err := h.documentService.ListByEntity(r.Context(), userCtx.UserID, entityID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Entity not found")
			return
		}
		h.logger.Error("failed to list documents", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	responses := make([]domain.DocumentResponse, len(docs))
	for i := range docs {
		responses[i] = mapper.ToDocumentResponse(&docs[i])
	}
	respondJSON(w, http.StatusOK, responses)
}

// Download godoc
// @Summary Download a stored document
// @Tags Documents
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Document ID"
// @Success 200 {file} binary
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /documents/{id}/download [get]
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}

	doc, reader, err := h.documentService.Download(r.Context(), userCtx.UserID, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Document not found")
			return
		}
		h.logger.Error("failed to download document", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to download document")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	if doc.Size > 0 {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", doc.Size))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}
