package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/recruiting-crm-api/internal/models"
)

// AutomationLogRepository appends automation audit records. Rows are never updated here.
type AutomationLogRepository struct {
	db *sqlx.DB
}

// NewAutomationLogRepository constructs the repository.
func NewAutomationLogRepository(db *sqlx.DB) *AutomationLogRepository {
	return &AutomationLogRepository{db: db}
}

// Create inserts one audit record.
func (r *AutomationLogRepository) Create(ctx context.Context, log *models.AutomationLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.Status == "" {
		log.Status = models.AutomationLogStatusPending
	}
	if log.ExecutedAt.IsZero() {
		log.ExecutedAt = time.Now().UTC()
	}
	const query = `INSERT INTO automation_logs
	(id, tenant_id, automation_id, trigger_type, trigger_data, conditions_met, status, executed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(ctx, query,
		log.ID, log.TenantID, log.AutomationID, log.TriggerType, log.TriggerData,
		log.ConditionsMet, log.Status, log.ExecutedAt,
	); err != nil {
		return fmt.Errorf("create automation log: %w", err)
	}
	return nil
}
