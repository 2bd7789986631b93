package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/recruiting-crm-api/internal/models"
)

// CandidateRepository reads candidate contacts. The pipeline never writes them.
type CandidateRepository struct {
	db *sqlx.DB
}

// NewCandidateRepository constructs the repository.
func NewCandidateRepository(db *sqlx.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

// FindByID returns a candidate scoped to the tenant.
func (r *CandidateRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Candidate, error) {
	const query = `SELECT id, tenant_id, first_name, last_name, email, current_title, current_company
FROM contacts WHERE tenant_id = $1 AND id = $2`
	var candidate models.Candidate
	if err := r.db.GetContext(ctx, &candidate, query, tenantID, id); err != nil {
		return nil, err
	}
	return &candidate, nil
}
