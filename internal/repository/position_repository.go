package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/recruiting-crm-api/internal/models"
)

// PositionRepository reads open positions.
type PositionRepository struct {
	db *sqlx.DB
}

// NewPositionRepository constructs the repository.
func NewPositionRepository(db *sqlx.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// FindByID returns a position scoped to the tenant.
func (r *PositionRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Position, error) {
	const query = `SELECT id, tenant_id, title, department, status FROM positions WHERE tenant_id = $1 AND id = $2`
	var position models.Position
	if err := r.db.GetContext(ctx, &position, query, tenantID, id); err != nil {
		return nil, err
	}
	return &position, nil
}
