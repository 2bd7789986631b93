package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/recruiting-crm-api/internal/dto"
	"github.com/noah-isme/recruiting-crm-api/internal/middleware"
	"github.com/noah-isme/recruiting-crm-api/internal/models"
	"github.com/noah-isme/recruiting-crm-api/internal/service"
	appErrors "github.com/noah-isme/recruiting-crm-api/pkg/errors"
	"github.com/noah-isme/recruiting-crm-api/pkg/export"
	"github.com/noah-isme/recruiting-crm-api/pkg/response"
)

type pipelineService interface {
	List(ctx context.Context, tenantID string, query dto.PipelineQuery) (*dto.PipelineListResponse, error)
	Get(ctx context.Context, tenantID, id string) (*models.PipelineEntryDetail, error)
	Create(ctx context.Context, tenantID string, req dto.CreatePipelineEntryRequest) (*models.PipelineEntryDetail, error)
	Update(ctx context.Context, tenantID, id string, req dto.UpdatePipelineEntryRequest) (*models.PipelineEntryDetail, error)
	Move(ctx context.Context, tenantID, id string, req dto.MovePipelineEntryRequest) (*models.PipelineEntryDetail, error)
	Delete(ctx context.Context, tenantID, id string) error
	BulkMove(ctx context.Context, tenantID string, req dto.BulkMoveRequest) (*dto.BulkResult, error)
	BulkUpdate(ctx context.Context, tenantID string, req dto.BulkUpdateRequest) (*dto.BulkResult, error)
}

type pipelineExporter interface {
	ExportPipeline(ctx context.Context, tenantID string, query dto.PipelineQuery, format export.Format) (*service.ExportFile, error)
}

// PipelineHandler exposes the recruiting pipeline endpoints.
type PipelineHandler struct {
	service  pipelineService
	exporter pipelineExporter
}

// NewPipelineHandler builds a new handler. exporter may be nil when exports are disabled.
func NewPipelineHandler(service pipelineService, exporter pipelineExporter) *PipelineHandler {
	return &PipelineHandler{service: service, exporter: exporter}
}

func pipelineQueryFromContext(c *gin.Context) dto.PipelineQuery {
	return dto.PipelineQuery{
		PositionID: c.Query("positionId"),
		Status:     c.Query("status"),
		StageID:    c.Query("stageId"),
		Search:     c.Query("search"),
		Limit:      c.Query("limit"),
		Offset:     c.Query("offset"),
	}
}

// List godoc
// @Summary List pipeline entries
// @Tags Pipeline
// @Produce json
// @Param positionId query string false "Position ID"
// @Param status query string false "Status (active, hired, passed, withdrawn)"
// @Param stageId query string false "Stage ID"
// @Param search query string false "Search candidate name, email, title or company"
// @Param limit query int false "Page size (default 50, max 500)"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope{data=dto.PipelineListResponse}
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /pipeline [get]
func (h *PipelineHandler) List(c *gin.Context) {
	tenantID, err := tenantFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.List(c.Request.Context(), tenantID, pipelineQueryFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := &models.Pagination{Limit: result.Limit, Offset: result.Offset, Total: result.Total}
	response.JSON(c, http.StatusOK, result, pagination, middleware.ResponseMeta(c))
}

// Get godoc
// @Summary Get a pipeline entry
// @Tags Pipeline
// @Produce json
// @Param id path string true "Pipeline entry ID"
// @Success 200 {object} response.Envelope{data=dto.PipelineEntryResponse}
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /pipeline/{id} [get]
func (h *PipelineHandler) Get(c *gin.Context) {
	tenantID, err := tenantFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	entry, err := h.service.Get(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.PipelineEntryResponse{Entry: entry}, nil)
}

// Create godoc
// @Summary Add a candidate to a position pipeline
// @Tags Pipeline
// @Accept json
// @Produce json
// @Param payload body dto.CreatePipelineEntryRequest true "Pipeline entry payload"
// @Success 201 {object} response.Envelope{data=dto.PipelineEntryResponse}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /pipeline [post]
func (h *PipelineHandler) Create(c *gin.Context) {
	tenantID, err := tenantFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreatePipelineEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, http.StatusBadRequest, "invalid pipeline entry payload"))
		return
	}
	entry, err := h.service.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.PipelineEntryResponse{Entry: entry})
}

// Update godoc
// @Summary Update a pipeline entry
// @Description Applies only the supplied fields. Stage and status changes trigger automation and audit records.
// @Tags Pipeline
// @Accept json
// @Produce json
// @Param id path string true "Pipeline entry ID"
// @Param payload body dto.UpdatePipelineEntryRequest true "Patch"
// @Success 200 {object} response.Envelope{data=dto.PipelineEntryResponse}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /pipeline/{id} [put]
func (h *PipelineHandler) Update(c *gin.Context) {
	tenantID, err := tenantFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdatePipelineEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, http.StatusBadRequest, "invalid pipeline patch"))
		return
	}
	entry, err := h.service.Update(c.Request.Context(), tenantID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.PipelineEntryResponse{Entry: entry}, nil)
}

// Move godoc
// @Summary Move a pipeline entry to another stage
// @Tags Pipeline
// @Accept json
// @Produce json
// @Param id path string true "Pipeline entry ID"
// @Param payload body dto.MovePipelineEntryRequest true "Target stage"
// @Success 200 {object} response.Envelope{data=dto.PipelineEntryResponse}
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /pipeline/{id}/move [put]
func (h *PipelineHandler) Move(c *gin.Context) {
	tenantID, err := tenantFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.MovePipelineEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, http.StatusBadRequest, "invalid move payload"))
		return
	}
	entry, err := h.service.Move(c.Request.Context(), tenantID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.PipelineEntryResponse{Entry: entry}, nil)
}

// Delete godoc
// @Summary Delete a pipeline entry
// @Tags Pipeline
// @Produce json
// @Param id path string true "Pipeline entry ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /pipeline/{id} [delete]
func (h *PipelineHandler) Delete(c *gin.Context) {
	tenantID, err := tenantFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id := c.Param("id")
	if err := h.service.Delete(c.Request.Context(), tenantID, id); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"id": id, "deleted": true}, nil)
}

// BulkMove godoc
// @Summary Move several pipeline entries to one stage
// @Description Ids outside the caller's organization are skipped. Item failures do not fail the request.
// @Tags Pipeline
// @Accept json
// @Produce json
// @Param payload body dto.BulkMoveRequest true "Ids and target stage"
// @Success 200 {object} response.Envelope{data=dto.BulkResult}
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /pipeline/bulk-move [put]
func (h *PipelineHandler) BulkMove(c *gin.Context) {
	tenantID, err := tenantFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.BulkMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, http.StatusBadRequest, "invalid bulk move payload"))
		return
	}
	result, err := h.service.BulkMove(c.Request.Context(), tenantID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, middleware.ResponseMeta(c))
}

// BulkUpdate godoc
// @Summary Apply one patch to several pipeline entries
// @Tags Pipeline
// @Accept json
// @Produce json
// @Param payload body dto.BulkUpdateRequest true "Ids and patch"
// @Success 200 {object} response.Envelope{data=dto.BulkResult}
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /pipeline/bulk-update [put]
func (h *PipelineHandler) BulkUpdate(c *gin.Context) {
	tenantID, err := tenantFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.BulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, http.StatusBadRequest, "invalid bulk update payload"))
		return
	}
	result, err := h.service.BulkUpdate(c.Request.Context(), tenantID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, middleware.ResponseMeta(c))
}

// Export godoc
// @Summary Export the filtered pipeline
// @Tags Pipeline
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param positionId query string false "Position ID"
// @Param status query string false "Status"
// @Param stageId query string false "Stage ID"
// @Param search query string false "Search term"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /pipeline/export [get]
func (h *PipelineHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "exports are disabled"))
		return
	}
	tenantID, err := tenantFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, err.Error()))
		return
	}
	query := pipelineQueryFromContext(c)
	query.Limit, query.Offset = "", ""
	result, err := h.exporter.ExportPipeline(c.Request.Context(), tenantID, query, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}
