package repository

import (
	"fmt"
	"strings"

	"github.com/noah-isme/recruiting-crm-api/internal/models"
	appErrors "github.com/noah-isme/recruiting-crm-api/pkg/errors"
)

const (
	// DefaultPipelineLimit applies when a filter carries no limit.
	DefaultPipelineLimit = 50
	// MaxPipelineLimit bounds a single page.
	MaxPipelineLimit = 500
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// PipelinePredicate is a WHERE clause over the joined pipeline view that always
// starts with the tenant condition. It can only be built through NewPipelinePredicate.
type PipelinePredicate struct {
	tenantID   string
	conditions []string
	args       []interface{}
	limit      int
	offset     int
}

// NewPipelinePredicate validates the filter and composes the tenant-anchored predicate.
func NewPipelinePredicate(filter models.PipelineFilter) (*PipelinePredicate, error) {
	tenantID := strings.TrimSpace(filter.TenantID)
	if tenantID == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "tenant id is required")
	}
	if filter.Limit < 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "limit must be a non-negative integer")
	}
	if filter.Offset < 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "offset must be a non-negative integer")
	}
	limit := filter.Limit
	if limit == 0 {
		limit = DefaultPipelineLimit
	}
	if limit > MaxPipelineLimit {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, fmt.Sprintf("limit must not exceed %d", MaxPipelineLimit))
	}

	p := &PipelinePredicate{tenantID: tenantID, limit: limit, offset: filter.Offset}
	p.conditions = append(p.conditions, "p.tenant_id = "+p.bind(tenantID))

	if id := strings.TrimSpace(filter.PositionID); id != "" {
		p.conditions = append(p.conditions, "p.position_id = "+p.bind(id))
	}
	if filter.Status != "" {
		if !filter.Status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrInvalidArgument, fmt.Sprintf("unknown status %q", filter.Status))
		}
		p.conditions = append(p.conditions, "p.status = "+p.bind(filter.Status))
	}
	if id := strings.TrimSpace(filter.StageID); id != "" {
		p.conditions = append(p.conditions, "p.stage_id = "+p.bind(id))
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		ph := p.bind("%" + likeEscaper.Replace(term) + "%")
		p.conditions = append(p.conditions, fmt.Sprintf(
			"(c.first_name ILIKE %[1]s OR c.last_name ILIKE %[1]s OR c.email ILIKE %[1]s OR c.current_title ILIKE %[1]s OR c.current_company ILIKE %[1]s)",
			ph,
		))
	}
	return p, nil
}

func (p *PipelinePredicate) bind(value interface{}) string {
	p.args = append(p.args, value)
	return fmt.Sprintf("$%d", len(p.args))
}

// TenantID returns the anchoring tenant.
func (p *PipelinePredicate) TenantID() string { return p.tenantID }

// Limit returns the resolved page size.
func (p *PipelinePredicate) Limit() int { return p.limit }

// Offset returns the resolved page offset.
func (p *PipelinePredicate) Offset() int { return p.offset }

// Where renders the conjunction, prefixed with WHERE.
func (p *PipelinePredicate) Where() string {
	return " WHERE " + strings.Join(p.conditions, " AND ")
}

// Args returns a copy of the positional arguments bound so far.
func (p *PipelinePredicate) Args() []interface{} {
	out := make([]interface{}, len(p.args))
	copy(out, p.args)
	return out
}

// Page renders ORDER BY plus LIMIT/OFFSET placeholders and returns the extended args.
func (p *PipelinePredicate) Page() (string, []interface{}) {
	args := p.Args()
	args = append(args, p.limit, p.offset)
	clause := fmt.Sprintf(" ORDER BY p.applied_at DESC, p.id ASC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return clause, args
}
