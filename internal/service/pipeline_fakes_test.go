package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/recruiting-crm-api/internal/models"
	"github.com/noah-isme/recruiting-crm-api/internal/repository"
)

type pipelineStoreStub struct {
	mu        sync.Mutex
	entries   map[string]*models.PipelineEntry
	seq       int
	createErr error
	updateErr map[string]error
	listErr   error
	listCalls int
	afterList func()
	detailErr error
}

func newPipelineStoreStub() *pipelineStoreStub {
	return &pipelineStoreStub{entries: make(map[string]*models.PipelineEntry), updateErr: make(map[string]error)}
}

func (s *pipelineStoreStub) put(entry models.PipelineEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyEntry := entry
	s.entries[entry.ID] = &copyEntry
}

func (s *pipelineStoreStub) get(id string) models.PipelineEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.entries[id]
}

func (s *pipelineStoreStub) detail(entry models.PipelineEntry) models.PipelineEntryDetail {
	detail := models.PipelineEntryDetail{
		PipelineEntry:      entry,
		CandidateFirstName: "Ada",
		CandidateLastName:  "Lovelace",
		PositionTitle:      "Backend Engineer",
	}
	if entry.StageID != nil {
		name := "Stage " + *entry.StageID
		detail.StageName = &name
	}
	return detail
}

func (s *pipelineStoreStub) List(ctx context.Context, filter models.PipelineFilter) ([]models.PipelineEntryDetail, int, error) {
	if hook := s.afterList; hook != nil {
		s.afterList = nil
		defer hook()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, 0, s.listErr
	}
	matched := make([]models.PipelineEntryDetail, 0)
	for _, entry := range s.entries {
		if entry.TenantID != filter.TenantID {
			continue
		}
		if filter.PositionID != "" && entry.PositionID != filter.PositionID {
			continue
		}
		if filter.Status != "" && entry.Status != filter.Status {
			continue
		}
		if filter.StageID != "" && (entry.StageID == nil || *entry.StageID != filter.StageID) {
			continue
		}
		matched = append(matched, s.detail(*entry))
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].AppliedAt.Equal(matched[j].AppliedAt) {
			return matched[i].AppliedAt.After(matched[j].AppliedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	total := len(matched)
	start := filter.Offset
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *pipelineStoreStub) FindDetailByID(ctx context.Context, tenantID, id string) (*models.PipelineEntryDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detailErr != nil {
		return nil, s.detailErr
	}
	entry, ok := s.entries[id]
	if !ok || entry.TenantID != tenantID {
		return nil, sql.ErrNoRows
	}
	detail := s.detail(*entry)
	return &detail, nil
}

func (s *pipelineStoreStub) ExistsActive(ctx context.Context, tenantID, candidateID, positionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.entries {
		if entry.TenantID == tenantID && entry.CandidateID == candidateID && entry.PositionID == positionID &&
			entry.Status == models.PipelineStatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (s *pipelineStoreStub) Create(ctx context.Context, entry *models.PipelineEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.seq++
	if entry.ID == "" {
		entry.ID = fmt.Sprintf("entry-%d", s.seq)
	}
	if entry.AppliedAt.IsZero() {
		entry.AppliedAt = time.Date(2024, 1, 1, 0, 0, s.seq, 0, time.UTC)
	}
	copyEntry := *entry
	s.entries[entry.ID] = &copyEntry
	return nil
}

func (s *pipelineStoreStub) UpdateLocked(ctx context.Context, tenantID, id string, mutate repository.PipelineMutator) (*models.PipelineEntry, *models.PipelineEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok || entry.TenantID != tenantID {
		return nil, nil, sql.ErrNoRows
	}
	before := *entry
	next, err := mutate(before)
	if err != nil {
		return nil, nil, err
	}
	if err := s.updateErr[id]; err != nil {
		return nil, nil, err
	}
	stored := next
	s.entries[id] = &stored
	return &before, &next, nil
}

func (s *pipelineStoreStub) Delete(ctx context.Context, tenantID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok || entry.TenantID != tenantID {
		return sql.ErrNoRows
	}
	delete(s.entries, id)
	return nil
}

func (s *pipelineStoreStub) ExistingIDs(ctx context.Context, tenantID string, ids []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if entry, ok := s.entries[id]; ok && entry.TenantID == tenantID {
			out = append(out, id)
		}
	}
	return out, nil
}

type stageStub struct {
	stages []models.Stage
}

func (s stageStub) FindByID(ctx context.Context, tenantID, id string) (*models.Stage, error) {
	for _, stage := range s.stages {
		if stage.TenantID == tenantID && stage.ID == id {
			found := stage
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s stageStub) FindDefault(ctx context.Context, tenantID string) (*models.Stage, error) {
	var best *models.Stage
	for i := range s.stages {
		stage := s.stages[i]
		if stage.TenantID != tenantID || stage.PipelineType != models.StagePipelineTypeRecruiting {
			continue
		}
		if best == nil || stage.DisplayOrder < best.DisplayOrder {
			best = &stage
		}
	}
	if best == nil {
		return nil, sql.ErrNoRows
	}
	return best, nil
}

type candidateStub map[string]models.Candidate

func (s candidateStub) FindByID(ctx context.Context, tenantID, id string) (*models.Candidate, error) {
	candidate, ok := s[tenantID+"/"+id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &candidate, nil
}

type positionStub map[string]models.Position

func (s positionStub) FindByID(ctx context.Context, tenantID, id string) (*models.Position, error) {
	position, ok := s[tenantID+"/"+id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &position, nil
}

type engineStub struct {
	mu     sync.Mutex
	events []models.AutomationEvent
	err    error
	panics bool
}

func (e *engineStub) ProcessEvent(ctx context.Context, event models.AutomationEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.panics {
		panic("rule engine exploded")
	}
	e.events = append(e.events, event)
	return e.err
}

func (e *engineStub) types() []models.AutomationEventType {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.AutomationEventType, 0, len(e.events))
	for _, event := range e.events {
		out = append(out, event.Type)
	}
	return out
}

type auditStoreStub struct {
	mu   sync.Mutex
	logs []*models.AutomationLog
	err  error
}

func (a *auditStoreStub) Create(ctx context.Context, log *models.AutomationLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.logs = append(a.logs, log)
	return nil
}

func (a *auditStoreStub) triggers() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.logs))
	for _, log := range a.logs {
		out = append(out, log.TriggerType)
	}
	return out
}

type pipelineFixture struct {
	store   *pipelineStoreStub
	engine  *engineStub
	audit   *auditStoreStub
	metrics *MetricsService
	svc     *PipelineService
}

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newPipelineFixture(stages []models.Stage, cfg PipelineServiceConfig, opts ...PipelineServiceOption) *pipelineFixture {
	store := newPipelineStoreStub()
	engine := &engineStub{}
	audit := &auditStoreStub{}
	metrics := NewMetricsService()
	candidates := candidateStub{
		"tenant-a/cand-1": {ID: "cand-1", TenantID: "tenant-a", FirstName: "Ada", LastName: "Lovelace"},
		"tenant-a/cand-2": {ID: "cand-2", TenantID: "tenant-a", FirstName: "Grace", LastName: "Hopper"},
		"tenant-b/cand-9": {ID: "cand-9", TenantID: "tenant-b", FirstName: "Alan", LastName: "Turing"},
	}
	positions := positionStub{
		"tenant-a/pos-1": {ID: "pos-1", TenantID: "tenant-a", Title: "Backend Engineer"},
		"tenant-b/pos-9": {ID: "pos-9", TenantID: "tenant-b", Title: "Researcher"},
	}
	opts = append([]PipelineServiceOption{WithPipelineMetrics(metrics), WithPipelineClock(func() time.Time { return fixedNow })}, opts...)
	svc := NewPipelineService(
		store,
		stageStub{stages: stages},
		candidates,
		positions,
		NewAutomationDispatcher(engine, metrics, nil),
		NewAuditLogger(audit, metrics, nil),
		nil,
		nil,
		cfg,
		opts...,
	)
	return &pipelineFixture{store: store, engine: engine, audit: audit, metrics: metrics, svc: svc}
}

func recruitingStages() []models.Stage {
	return []models.Stage{
		{ID: "stage-2", TenantID: "tenant-a", Name: "Interview", PipelineType: models.StagePipelineTypeRecruiting, DisplayOrder: 1},
		{ID: "stage-1", TenantID: "tenant-a", Name: "Screening", PipelineType: models.StagePipelineTypeRecruiting, DisplayOrder: 0},
		{ID: "stage-x", TenantID: "tenant-a", Name: "Onboarding", PipelineType: "onboarding", DisplayOrder: -1},
		{ID: "stage-b", TenantID: "tenant-b", Name: "Applied", PipelineType: models.StagePipelineTypeRecruiting, DisplayOrder: 0},
	}
}

func strPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }
