package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/recruiting-crm-api/internal/models"
)

// StageRepository reads tenant-defined pipeline stages.
type StageRepository struct {
	db *sqlx.DB
}

// NewStageRepository constructs the repository.
func NewStageRepository(db *sqlx.DB) *StageRepository {
	return &StageRepository{db: db}
}

// FindByID returns a stage scoped to the tenant.
func (r *StageRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Stage, error) {
	const query = `SELECT id, tenant_id, name, pipeline_type, display_order, color, created_at
FROM stages WHERE tenant_id = $1 AND id = $2`
	var stage models.Stage
	if err := r.db.GetContext(ctx, &stage, query, tenantID, id); err != nil {
		return nil, err
	}
	return &stage, nil
}

// FindDefault returns the lowest-ordered recruiting stage of the tenant, or sql.ErrNoRows when none exist.
func (r *StageRepository) FindDefault(ctx context.Context, tenantID string) (*models.Stage, error) {
	const query = `SELECT id, tenant_id, name, pipeline_type, display_order, color, created_at
FROM stages WHERE tenant_id = $1 AND pipeline_type = $2
ORDER BY display_order ASC, created_at ASC, id ASC LIMIT 1`
	var stage models.Stage
	if err := r.db.GetContext(ctx, &stage, query, tenantID, models.StagePipelineTypeRecruiting); err != nil {
		return nil, err
	}
	return &stage, nil
}
