package models

import "time"

// StagePipelineTypeRecruiting is the pipeline type whose stages drive applications.
const StagePipelineTypeRecruiting = "recruiting"

// Stage is an ordered, tenant-defined step of a pipeline.
type Stage struct {
	ID           string    `db:"id" json:"id"`
	TenantID     string    `db:"tenant_id" json:"tenantId"`
	Name         string    `db:"name" json:"name"`
	PipelineType string    `db:"pipeline_type" json:"pipelineType"`
	DisplayOrder int       `db:"display_order" json:"displayOrder"`
	Color        *string   `db:"color" json:"color"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Candidate is the contact record a pipeline entry refers to.
type Candidate struct {
	ID             string  `db:"id" json:"id"`
	TenantID       string  `db:"tenant_id" json:"tenantId"`
	FirstName      string  `db:"first_name" json:"firstName"`
	LastName       string  `db:"last_name" json:"lastName"`
	Email          *string `db:"email" json:"email"`
	CurrentTitle   *string `db:"current_title" json:"currentTitle"`
	CurrentCompany *string `db:"current_company" json:"currentCompany"`
}

// Position is the opening a candidate applies to.
type Position struct {
	ID         string  `db:"id" json:"id"`
	TenantID   string  `db:"tenant_id" json:"tenantId"`
	Title      string  `db:"title" json:"title"`
	Department *string `db:"department" json:"department"`
	Status     string  `db:"status" json:"status"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}
