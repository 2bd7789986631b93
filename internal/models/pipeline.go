package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PipelineStatus is the lifecycle state of an application.
type PipelineStatus string

const (
	PipelineStatusActive    PipelineStatus = "active"
	PipelineStatusHired     PipelineStatus = "hired"
	PipelineStatusPassed    PipelineStatus = "passed"
	PipelineStatusWithdrawn PipelineStatus = "withdrawn"
)

var knownPipelineStatuses = map[PipelineStatus]struct{}{
	PipelineStatusActive:    {},
	PipelineStatusHired:     {},
	PipelineStatusPassed:    {},
	PipelineStatusWithdrawn: {},
}

// Valid reports whether the status is one the engine understands.
func (s PipelineStatus) Valid() bool {
	_, ok := knownPipelineStatuses[s]
	return ok
}

// ParsePipelineStatus normalises raw input, rejecting unknown values.
func ParsePipelineStatus(raw string) (PipelineStatus, error) {
	status := PipelineStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown pipeline status %q", raw)
	}
	return status, nil
}

// Rating bounds.
const (
	MinRating = 0
	MaxRating = 5
)

// PipelineEntry is one candidate's application to one position.
type PipelineEntry struct {
	ID              string         `db:"id" json:"id"`
	TenantID        string         `db:"tenant_id" json:"tenantId"`
	CandidateID     string         `db:"candidate_id" json:"candidateId"`
	PositionID      string         `db:"position_id" json:"positionId"`
	StageID         *string        `db:"stage_id" json:"stageId"`
	Status          PipelineStatus `db:"status" json:"status"`
	Rating          *int           `db:"rating" json:"rating"`
	Notes           *string        `db:"notes" json:"notes"`
	AppliedAt       time.Time      `db:"applied_at" json:"appliedAt"`
	InterviewDate   *time.Time     `db:"interview_date" json:"interviewDate"`
	HiredAt         *time.Time     `db:"hired_at" json:"hiredAt"`
	RejectedAt      *time.Time     `db:"rejected_at" json:"rejectedAt"`
	WithdrawnAt     *time.Time     `db:"withdrawn_at" json:"withdrawnAt"`
	OfferDetails    JSONMap        `db:"offer_details" json:"offerDetails"`
	RejectionReason *string        `db:"rejection_reason" json:"rejectionReason"`
	CustomFields    JSONMap        `db:"custom_fields" json:"customFields"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updatedAt"`
}

// PipelineEntryDetail is the denormalized view joining candidate, position and stage.
type PipelineEntryDetail struct {
	PipelineEntry
	CandidateFirstName string  `db:"candidate_first_name" json:"candidateFirstName"`
	CandidateLastName  string  `db:"candidate_last_name" json:"candidateLastName"`
	CandidateEmail     *string `db:"candidate_email" json:"candidateEmail"`
	CandidateTitle     *string `db:"candidate_title" json:"candidateTitle"`
	CandidateCompany   *string `db:"candidate_company" json:"candidateCompany"`
	PositionTitle      string  `db:"position_title" json:"positionTitle"`
	PositionDepartment *string `db:"position_department" json:"positionDepartment"`
	StageName          *string `db:"stage_name" json:"stageName"`
	StageColor         *string `db:"stage_color" json:"stageColor"`
	StageOrder         *int    `db:"stage_order" json:"stageOrder"`
}

// CandidateName joins first and last name for display.
func (d PipelineEntryDetail) CandidateName() string {
	return strings.TrimSpace(d.CandidateFirstName + " " + d.CandidateLastName)
}

// PipelineFilter captures the optional listing filters. TenantID is mandatory.
type PipelineFilter struct {
	TenantID   string
	PositionID string
	Status     PipelineStatus
	StageID    string
	Search     string
	Limit      int
	Offset     int
}

// PipelinePatch carries caller-supplied changes; nil fields are left untouched.
// Terminal timestamps and appliedAt are deliberately absent.
type PipelinePatch struct {
	StageID         *string
	Status          *PipelineStatus
	Rating          *int
	Notes           *string
	InterviewDate   *time.Time
	OfferDetails    JSONMap
	RejectionReason *string
	CustomFields    JSONMap
}

// IsEmpty reports whether the patch carries no fields at all.
func (p PipelinePatch) IsEmpty() bool {
	return p.StageID == nil && p.Status == nil && p.Rating == nil && p.Notes == nil &&
		p.InterviewDate == nil && p.OfferDetails == nil && p.RejectionReason == nil && p.CustomFields == nil
}

// JSONMap is an open key-value document stored as jsonb.
type JSONMap map[string]interface{}

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported JSONMap source %T", value)
	}
	if len(raw) == 0 || string(raw) == "null" {
		*m = nil
		return nil
	}
	return json.Unmarshal(raw, m)
}
