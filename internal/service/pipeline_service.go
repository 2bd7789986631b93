package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/recruiting-crm-api/internal/dto"
	"github.com/noah-isme/recruiting-crm-api/internal/models"
	"github.com/noah-isme/recruiting-crm-api/internal/repository"
	appErrors "github.com/noah-isme/recruiting-crm-api/pkg/errors"
)

type pipelineStore interface {
	List(ctx context.Context, filter models.PipelineFilter) ([]models.PipelineEntryDetail, int, error)
	FindDetailByID(ctx context.Context, tenantID, id string) (*models.PipelineEntryDetail, error)
	ExistsActive(ctx context.Context, tenantID, candidateID, positionID string) (bool, error)
	Create(ctx context.Context, entry *models.PipelineEntry) error
	UpdateLocked(ctx context.Context, tenantID, id string, mutate repository.PipelineMutator) (*models.PipelineEntry, *models.PipelineEntry, error)
	Delete(ctx context.Context, tenantID, id string) error
	ExistingIDs(ctx context.Context, tenantID string, ids []string) ([]string, error)
}

type stageReader interface {
	FindByID(ctx context.Context, tenantID, id string) (*models.Stage, error)
	FindDefault(ctx context.Context, tenantID string) (*models.Stage, error)
}

type candidateReader interface {
	FindByID(ctx context.Context, tenantID, id string) (*models.Candidate, error)
}

type positionReader interface {
	FindByID(ctx context.Context, tenantID, id string) (*models.Position, error)
}

// PipelineServiceConfig tunes listing and bulk behaviour.
type PipelineServiceConfig struct {
	DefaultLimit    int
	MaxLimit        int
	BulkConcurrency int
	CacheTTL        time.Duration
	ExportMaxRows   int
}

// PipelineService implements the recruiting pipeline use cases.
type PipelineService struct {
	repo       pipelineStore
	stages     stageReader
	candidates candidateReader
	positions  positionReader
	dispatcher *AutomationDispatcher
	audit      *AuditLogger
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	config     PipelineServiceConfig
	now        func() time.Time
}

// PipelineServiceOption configures optional collaborators.
type PipelineServiceOption func(*PipelineService)

// WithPipelineCache enables list caching.
func WithPipelineCache(cache *CacheService) PipelineServiceOption {
	return func(s *PipelineService) {
		s.cache = cache
	}
}

// WithPipelineMetrics attaches Prometheus instrumentation.
func WithPipelineMetrics(metrics *MetricsService) PipelineServiceOption {
	return func(s *PipelineService) {
		s.metrics = metrics
	}
}

// WithPipelineClock overrides the clock used for terminal timestamps.
func WithPipelineClock(now func() time.Time) PipelineServiceOption {
	return func(s *PipelineService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewPipelineService constructs the service with defaults.
func NewPipelineService(
	repo pipelineStore,
	stages stageReader,
	candidates candidateReader,
	positions positionReader,
	dispatcher *AutomationDispatcher,
	audit *AuditLogger,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg PipelineServiceConfig,
	opts ...PipelineServiceOption,
) *PipelineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = repository.DefaultPipelineLimit
	}
	if cfg.MaxLimit <= 0 || cfg.MaxLimit > repository.MaxPipelineLimit {
		cfg.MaxLimit = repository.MaxPipelineLimit
	}
	if cfg.BulkConcurrency <= 0 {
		cfg.BulkConcurrency = 1
	}
	if cfg.ExportMaxRows <= 0 {
		cfg.ExportMaxRows = 1000
	}
	svc := &PipelineService{
		repo:       repo,
		stages:     stages,
		candidates: candidates,
		positions:  positions,
		dispatcher: dispatcher,
		audit:      audit,
		validator:  validate,
		logger:     logger,
		config:     cfg,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// List returns one page of the tenant's pipeline plus the unpaginated total.
func (s *PipelineService) List(ctx context.Context, tenantID string, query dto.PipelineQuery) (*dto.PipelineListResponse, error) {
	filter, err := s.buildFilter(tenantID, query)
	if err != nil {
		return nil, err
	}

	generation, cacheable := s.cache.TenantGeneration(ctx, tenantID)
	key := listCacheKey(filter, generation)
	if cacheable {
		var cached dto.PipelineListResponse
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return &cached, nil
		}
	}

	start := time.Now()
	entries, total, err := s.repo.List(ctx, filter)
	s.metrics.ObserveDBQuery("pipeline_list", time.Since(start))
	if err != nil {
		if _, ok := appErrors.As(err); ok {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pipeline entries")
	}

	resp := &dto.PipelineListResponse{Entries: entries, Total: total, Limit: filter.Limit, Offset: filter.Offset}
	if cacheable {
		_ = s.cache.Set(ctx, key, resp, s.config.CacheTTL)
	}
	return resp, nil
}

// Get returns the denormalized view of one entry.
func (s *PipelineService) Get(ctx context.Context, tenantID, id string) (*models.PipelineEntryDetail, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	detail, err := s.repo.FindDetailByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pipeline entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pipeline entry")
	}
	return detail, nil
}

// Create opens a new application for a candidate on a position.
func (s *PipelineService) Create(ctx context.Context, tenantID string, req dto.CreatePipelineEntryRequest) (*models.PipelineEntryDetail, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "invalid pipeline entry payload")
	}

	status := models.PipelineStatusActive
	if req.Status != nil && strings.TrimSpace(*req.Status) != "" {
		parsed, err := models.ParsePipelineStatus(*req.Status)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, err.Error())
		}
		status = parsed
	}

	if _, err := s.candidates.FindByID(ctx, tenantID, req.CandidateID); err != nil {
		return nil, lookupError(err, "candidate not found")
	}
	if _, err := s.positions.FindByID(ctx, tenantID, req.PositionID); err != nil {
		return nil, lookupError(err, "position not found")
	}
	stageID, err := s.resolveStage(ctx, tenantID, req.StageID)
	if err != nil {
		return nil, err
	}

	if status == models.PipelineStatusActive {
		exists, err := s.repo.ExistsActive(ctx, tenantID, req.CandidateID, req.PositionID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing applications")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrDuplicateApplication, "")
		}
	}

	entry := &models.PipelineEntry{
		TenantID:    tenantID,
		CandidateID: req.CandidateID,
		PositionID:  req.PositionID,
		StageID:     stageID,
		Status:      status,
		Rating:      req.Rating,
		Notes:       req.Notes,
	}
	if req.InterviewDate != nil {
		interview := req.InterviewDate.UTC()
		entry.InterviewDate = &interview
	}
	if req.CustomFields != nil {
		entry.CustomFields = models.JSONMap(req.CustomFields)
	}
	stampTerminal(entry, s.now())

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, writeError(err, "failed to create pipeline entry")
	}
	s.invalidate(ctx, tenantID)

	return s.reload(ctx, *entry), nil
}

// Update applies a partial patch and fans out the resulting transitions.
func (s *PipelineService) Update(ctx context.Context, tenantID, id string, req dto.UpdatePipelineEntryRequest) (*models.PipelineEntryDetail, error) {
	patch, err := s.patchFromRequest(req)
	if err != nil {
		return nil, err
	}
	return s.applyPatch(ctx, tenantID, id, patch, false)
}

// Move changes only the stage of an entry.
func (s *PipelineService) Move(ctx context.Context, tenantID, id string, req dto.MovePipelineEntryRequest) (*models.PipelineEntryDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "stageId is required")
	}
	stageID := req.StageID
	return s.applyPatch(ctx, tenantID, id, models.PipelinePatch{StageID: &stageID}, false)
}

// Delete removes an entry.
func (s *PipelineService) Delete(ctx context.Context, tenantID, id string) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "pipeline entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrWriteFailed.Code, appErrors.ErrWriteFailed.Status, "failed to delete pipeline entry")
	}
	s.invalidate(ctx, tenantID)
	return nil
}

func (s *PipelineService) patchFromRequest(req dto.UpdatePipelineEntryRequest) (models.PipelinePatch, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.PipelinePatch{}, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "invalid pipeline patch")
	}
	patch, err := req.ToPatch()
	if err != nil {
		return models.PipelinePatch{}, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, err.Error())
	}
	return patch, nil
}

// applyPatch is the single write path for update, move and bulk items:
// validate references, commit under a row lock, then dispatch automation and audit.
// Batch callers validate the stage and invalidate the cache once for the whole batch.
func (s *PipelineService) applyPatch(ctx context.Context, tenantID, id string, patch models.PipelinePatch, inBatch bool) (*models.PipelineEntryDetail, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if patch.StageID != nil && !inBatch {
		if err := s.ensureStage(ctx, tenantID, *patch.StageID); err != nil {
			return nil, err
		}
	}

	var transitions []Transition
	before, after, err := s.repo.UpdateLocked(ctx, tenantID, id, func(current models.PipelineEntry) (models.PipelineEntry, error) {
		next, kinds, err := ApplyTransition(current, patch, s.now())
		if err != nil {
			return models.PipelineEntry{}, err
		}
		transitions = kinds
		return next, nil
	})
	if err != nil {
		return nil, updateError(err)
	}
	if !inBatch {
		s.invalidate(ctx, tenantID)
	}
	for _, transition := range transitions {
		s.metrics.RecordTransition(transition.Kind)
	}

	detail := s.reload(ctx, *after)

	if len(transitions) > 0 {
		s.dispatcher.Dispatch(ctx, detail, transitions)
		s.audit.Record(ctx, *before, *after, transitions)
	}
	return detail, nil
}

// reload fetches the denormalized view of a committed entry. The write already
// succeeded, so a failing read falls back to the bare entry instead of an error.
func (s *PipelineService) reload(ctx context.Context, entry models.PipelineEntry) *models.PipelineEntryDetail {
	detail, err := s.repo.FindDetailByID(ctx, entry.TenantID, entry.ID)
	if err != nil {
		s.logger.Warn("reload pipeline entry after write failed",
			zap.String("tenant_id", entry.TenantID), zap.String("entry_id", entry.ID), zap.Error(err))
		return &models.PipelineEntryDetail{PipelineEntry: entry}
	}
	return detail
}

func (s *PipelineService) ensureStage(ctx context.Context, tenantID, stageID string) error {
	if strings.TrimSpace(stageID) == "" {
		return appErrors.Clone(appErrors.ErrInvalidArgument, "stageId must not be empty")
	}
	if _, err := s.stages.FindByID(ctx, tenantID, stageID); err != nil {
		return lookupError(err, "stage not found")
	}
	return nil
}

// resolveStage validates a requested stage or falls back to the tenant default.
// A tenant without recruiting stages yields a nil stage.
func (s *PipelineService) resolveStage(ctx context.Context, tenantID string, requested *string) (*string, error) {
	if requested != nil && strings.TrimSpace(*requested) != "" {
		stageID := strings.TrimSpace(*requested)
		if err := s.ensureStage(ctx, tenantID, stageID); err != nil {
			return nil, err
		}
		return &stageID, nil
	}
	stage, err := s.stages.FindDefault(ctx, tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve default stage")
	}
	return &stage.ID, nil
}

func (s *PipelineService) buildFilter(tenantID string, query dto.PipelineQuery) (models.PipelineFilter, error) {
	if err := requireTenant(tenantID); err != nil {
		return models.PipelineFilter{}, err
	}
	limit, offset, err := dto.ParsePagination(query.Limit, query.Offset, s.config.DefaultLimit)
	if err != nil {
		return models.PipelineFilter{}, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, err.Error())
	}
	if limit > s.config.MaxLimit {
		return models.PipelineFilter{}, appErrors.Clone(appErrors.ErrInvalidArgument, fmt.Sprintf("limit must not exceed %d", s.config.MaxLimit))
	}
	filter := models.PipelineFilter{
		TenantID:   tenantID,
		PositionID: strings.TrimSpace(query.PositionID),
		StageID:    strings.TrimSpace(query.StageID),
		Search:     strings.TrimSpace(query.Search),
		Limit:      limit,
		Offset:     offset,
	}
	if raw := strings.TrimSpace(query.Status); raw != "" {
		status, err := models.ParsePipelineStatus(raw)
		if err != nil {
			return models.PipelineFilter{}, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, err.Error())
		}
		filter.Status = status
	}
	return filter, nil
}

func (s *PipelineService) invalidate(ctx context.Context, tenantID string) {
	_ = s.cache.InvalidateTenant(ctx, tenantID)
}

func listCacheKey(filter models.PipelineFilter, generation int64) string {
	values := url.Values{}
	values.Set("position", filter.PositionID)
	values.Set("status", string(filter.Status))
	values.Set("stage", filter.StageID)
	values.Set("search", filter.Search)
	values.Set("limit", fmt.Sprintf("%d", filter.Limit))
	values.Set("offset", fmt.Sprintf("%d", filter.Offset))
	return fmt.Sprintf("pipeline:%s:v%d:list:%s", filter.TenantID, generation, values.Encode())
}

func requireTenant(tenantID string) error {
	if strings.TrimSpace(tenantID) == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "tenant context is required")
	}
	return nil
}

func lookupError(err error, notFound string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve reference")
}

func writeError(err error, message string) error {
	if repository.IsUniqueViolation(err) {
		return appErrors.Wrap(err, appErrors.ErrDuplicateApplication.Code, appErrors.ErrDuplicateApplication.Status, appErrors.ErrDuplicateApplication.Message)
	}
	return appErrors.Wrap(err, appErrors.ErrWriteFailed.Code, appErrors.ErrWriteFailed.Status, message)
}

func updateError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "pipeline entry not found")
	}
	if _, ok := appErrors.As(err); ok {
		return err
	}
	return writeError(err, "failed to update pipeline entry")
}
