package dto

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/recruiting-crm-api/internal/models"
)

// PipelineQuery is the raw listing query as received over HTTP.
type PipelineQuery struct {
	PositionID string
	Status     string
	StageID    string
	Search     string
	Limit      string
	Offset     string
}

// CreatePipelineEntryRequest describes a new application.
type CreatePipelineEntryRequest struct {
	CandidateID   string                 `json:"candidateId" validate:"required"`
	PositionID    string                 `json:"positionId" validate:"required"`
	StageID       *string                `json:"stageId" validate:"omitempty,min=1"`
	Status        *string                `json:"status"`
	Rating        *int                   `json:"rating" validate:"omitempty,min=0,max=5"`
	Notes         *string                `json:"notes"`
	InterviewDate *time.Time             `json:"interviewDate"`
	CustomFields  map[string]interface{} `json:"customFields"`
}

// UpdatePipelineEntryRequest is a partial update; omitted fields stay untouched.
type UpdatePipelineEntryRequest struct {
	StageID         *string                `json:"stageId" validate:"omitempty,min=1"`
	Status          *string                `json:"status"`
	Rating          *int                   `json:"rating" validate:"omitempty,min=0,max=5"`
	Notes           *string                `json:"notes"`
	InterviewDate   *time.Time             `json:"interviewDate"`
	OfferDetails    map[string]interface{} `json:"offerDetails"`
	RejectionReason *string                `json:"rejectionReason"`
	CustomFields    map[string]interface{} `json:"customFields"`
}

// ToPatch converts the request into a domain patch, rejecting unknown statuses.
func (r UpdatePipelineEntryRequest) ToPatch() (models.PipelinePatch, error) {
	patch := models.PipelinePatch{
		StageID:         r.StageID,
		Rating:          r.Rating,
		Notes:           r.Notes,
		InterviewDate:   r.InterviewDate,
		RejectionReason: r.RejectionReason,
	}
	if r.Status != nil {
		status, err := models.ParsePipelineStatus(*r.Status)
		if err != nil {
			return models.PipelinePatch{}, err
		}
		patch.Status = &status
	}
	if r.OfferDetails != nil {
		patch.OfferDetails = models.JSONMap(r.OfferDetails)
	}
	if r.CustomFields != nil {
		patch.CustomFields = models.JSONMap(r.CustomFields)
	}
	return patch, nil
}

// MovePipelineEntryRequest moves an entry to another stage.
type MovePipelineEntryRequest struct {
	StageID string `json:"stageId" validate:"required"`
}

// BulkMoveRequest moves several entries to one stage.
type BulkMoveRequest struct {
	IDs     []string `json:"ids" validate:"required,min=1,dive,required"`
	StageID string   `json:"stageId" validate:"required"`
}

// BulkUpdateRequest applies the same patch to several entries.
type BulkUpdateRequest struct {
	IDs   []string                   `json:"ids" validate:"required,min=1,dive,required"`
	Patch UpdatePipelineEntryRequest `json:"patch"`
}

// PipelineListResponse is the listing payload.
type PipelineListResponse struct {
	Entries []models.PipelineEntryDetail `json:"entries"`
	Total   int                          `json:"total"`
	Limit   int                          `json:"limit"`
	Offset  int                          `json:"offset"`
}

// PipelineEntryResponse wraps a single entry.
type PipelineEntryResponse struct {
	Entry *models.PipelineEntryDetail `json:"entry"`
}

// Bulk item outcomes.
const (
	BulkOutcomeProcessed = "processed"
	BulkOutcomeSkipped   = "skipped"
	BulkOutcomeFailed    = "failed"
)

// BulkItemResult reports what happened to one requested id.
type BulkItemResult struct {
	ID      string `json:"id"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// BulkResult summarises a bulk operation.
type BulkResult struct {
	ProcessedCount int              `json:"processedCount"`
	Results        []BulkItemResult `json:"results"`
}

// ParsePagination parses limit/offset strictly: empty falls back to defaults,
// anything non-numeric or negative is an error.
func ParsePagination(limitRaw, offsetRaw string, defaultLimit int) (int, int, error) {
	limit := defaultLimit
	if s := strings.TrimSpace(limitRaw); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, fmt.Errorf("limit must be a non-negative integer")
		}
		if v < 0 {
			return 0, 0, fmt.Errorf("limit must be a non-negative integer")
		}
		if v > 0 {
			limit = v
		}
	}
	offset := 0
	if s := strings.TrimSpace(offsetRaw); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			return 0, 0, fmt.Errorf("offset must be a non-negative integer")
		}
		offset = v
	}
	return limit, offset, nil
}
