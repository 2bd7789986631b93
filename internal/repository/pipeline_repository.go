package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/recruiting-crm-api/internal/models"
)

const pipelineEntryColumns = `id, tenant_id, candidate_id, position_id, stage_id, status, rating, notes,
       applied_at, interview_date, hired_at, rejected_at, withdrawn_at, offer_details, rejection_reason,
       custom_fields, created_at, updated_at`

const pipelineDetailSelect = `SELECT p.id, p.tenant_id, p.candidate_id, p.position_id, p.stage_id, p.status, p.rating, p.notes,
       p.applied_at, p.interview_date, p.hired_at, p.rejected_at, p.withdrawn_at, p.offer_details, p.rejection_reason,
       p.custom_fields, p.created_at, p.updated_at,
       c.first_name AS candidate_first_name, c.last_name AS candidate_last_name, c.email AS candidate_email,
       c.current_title AS candidate_title, c.current_company AS candidate_company,
       pos.title AS position_title, pos.department AS position_department,
       s.name AS stage_name, s.color AS stage_color, s.display_order AS stage_order`

const pipelineDetailFrom = `
FROM pipeline_entries p
JOIN contacts c ON c.id = p.candidate_id AND c.tenant_id = p.tenant_id
JOIN positions pos ON pos.id = p.position_id AND pos.tenant_id = p.tenant_id
LEFT JOIN stages s ON s.id = p.stage_id AND s.tenant_id = p.tenant_id`

// PipelineMutator decides the next state of an entry that is locked for update.
type PipelineMutator func(current models.PipelineEntry) (models.PipelineEntry, error)

// PipelineRepository handles persistence of pipeline entries.
type PipelineRepository struct {
	db *sqlx.DB
}

// NewPipelineRepository constructs the repository.
func NewPipelineRepository(db *sqlx.DB) *PipelineRepository {
	return &PipelineRepository{db: db}
}

// List returns the page selected by the filter plus the unpaginated total.
func (r *PipelineRepository) List(ctx context.Context, filter models.PipelineFilter) ([]models.PipelineEntryDetail, int, error) {
	predicate, err := NewPipelinePredicate(filter)
	if err != nil {
		return nil, 0, err
	}

	page, pageArgs := predicate.Page()
	query := pipelineDetailSelect + pipelineDetailFrom + predicate.Where() + page
	entries := make([]models.PipelineEntryDetail, 0)
	if err := r.db.SelectContext(ctx, &entries, query, pageArgs...); err != nil {
		return nil, 0, fmt.Errorf("list pipeline entries: %w", err)
	}

	countQuery := "SELECT COUNT(*)" + pipelineDetailFrom + predicate.Where()
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, predicate.Args()...); err != nil {
		return nil, 0, fmt.Errorf("count pipeline entries: %w", err)
	}
	return entries, total, nil
}

// FindByID returns the raw entry scoped to the tenant.
func (r *PipelineRepository) FindByID(ctx context.Context, tenantID, id string) (*models.PipelineEntry, error) {
	query := "SELECT " + pipelineEntryColumns + " FROM pipeline_entries WHERE tenant_id = $1 AND id = $2"
	var entry models.PipelineEntry
	if err := r.db.GetContext(ctx, &entry, query, tenantID, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindDetailByID returns the denormalized view of one entry scoped to the tenant.
func (r *PipelineRepository) FindDetailByID(ctx context.Context, tenantID, id string) (*models.PipelineEntryDetail, error) {
	query := pipelineDetailSelect + pipelineDetailFrom + " WHERE p.tenant_id = $1 AND p.id = $2"
	var detail models.PipelineEntryDetail
	if err := r.db.GetContext(ctx, &detail, query, tenantID, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsActive checks whether the candidate already holds an active application for the position.
func (r *PipelineRepository) ExistsActive(ctx context.Context, tenantID, candidateID, positionID string) (bool, error) {
	const query = `SELECT 1 FROM pipeline_entries
WHERE tenant_id = $1 AND candidate_id = $2 AND position_id = $3 AND status = $4 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, tenantID, candidateID, positionID, models.PipelineStatusActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check active application: %w", err)
	}
	return true, nil
}

// Create persists a new entry.
func (r *PipelineRepository) Create(ctx context.Context, entry *models.PipelineEntry) error {
	now := time.Now().UTC()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.AppliedAt.IsZero() {
		entry.AppliedAt = now
	}
	if entry.Status == "" {
		entry.Status = models.PipelineStatusActive
	}
	entry.CreatedAt = now
	entry.UpdatedAt = now

	const query = `INSERT INTO pipeline_entries
	(id, tenant_id, candidate_id, position_id, stage_id, status, rating, notes, applied_at, interview_date,
	 hired_at, rejected_at, withdrawn_at, offer_details, rejection_reason, custom_fields, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	if _, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.TenantID, entry.CandidateID, entry.PositionID, entry.StageID, entry.Status,
		entry.Rating, entry.Notes, entry.AppliedAt, entry.InterviewDate,
		entry.HiredAt, entry.RejectedAt, entry.WithdrawnAt, entry.OfferDetails, entry.RejectionReason,
		entry.CustomFields, entry.CreatedAt, entry.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create pipeline entry: %w", err)
	}
	return nil
}

// UpdateLocked runs a read-modify-write on one entry while holding its row lock.
// The mutator sees the committed state and returns the state to persist; a mutator
// error aborts the transaction and is returned unchanged. sql.ErrNoRows is returned
// when the tenant has no such entry.
func (r *PipelineRepository) UpdateLocked(ctx context.Context, tenantID, id string, mutate PipelineMutator) (before, after *models.PipelineEntry, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin pipeline update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current models.PipelineEntry
	lockQuery := "SELECT " + pipelineEntryColumns + " FROM pipeline_entries WHERE tenant_id = $1 AND id = $2 FOR UPDATE"
	if err = tx.GetContext(ctx, &current, lockQuery, tenantID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("lock pipeline entry: %w", err)
	}

	next, err := mutate(current)
	if err != nil {
		return nil, nil, err
	}
	next.UpdatedAt = time.Now().UTC()

	const updateQuery = `UPDATE pipeline_entries SET
	stage_id = $3, status = $4, rating = $5, notes = $6, interview_date = $7, hired_at = $8,
	rejected_at = $9, withdrawn_at = $10, offer_details = $11, rejection_reason = $12,
	custom_fields = $13, updated_at = $14
	WHERE tenant_id = $1 AND id = $2`
	if _, err = tx.ExecContext(ctx, updateQuery,
		tenantID, id, next.StageID, next.Status, next.Rating, next.Notes, next.InterviewDate, next.HiredAt,
		next.RejectedAt, next.WithdrawnAt, next.OfferDetails, next.RejectionReason,
		next.CustomFields, next.UpdatedAt,
	); err != nil {
		return nil, nil, fmt.Errorf("update pipeline entry: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit pipeline entry: %w", err)
	}
	return &current, &next, nil
}

// Delete hard-removes an entry. sql.ErrNoRows signals that nothing matched.
func (r *PipelineRepository) Delete(ctx context.Context, tenantID, id string) error {
	const query = `DELETE FROM pipeline_entries WHERE tenant_id = $1 AND id = $2`
	result, err := r.db.ExecContext(ctx, query, tenantID, id)
	if err != nil {
		return fmt.Errorf("delete pipeline entry: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check pipeline delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ExistingIDs returns the subset of ids owned by the tenant, in request order.
func (r *PipelineRepository) ExistingIDs(ctx context.Context, tenantID string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}
	const query = `SELECT id FROM pipeline_entries WHERE tenant_id = $1 AND id = ANY($2)`
	var found []string
	if err := r.db.SelectContext(ctx, &found, query, tenantID, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("resolve pipeline ids: %w", err)
	}
	owned := make(map[string]struct{}, len(found))
	for _, id := range found {
		owned[id] = struct{}{}
	}
	result := make([]string, 0, len(found))
	for _, id := range ids {
		if _, ok := owned[id]; ok {
			result = append(result, id)
			delete(owned, id)
		}
	}
	return result, nil
}
