package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/recruiting-crm-api/internal/dto"
	"github.com/noah-isme/recruiting-crm-api/internal/models"
	appErrors "github.com/noah-isme/recruiting-crm-api/pkg/errors"
)

// BulkMove moves every tenant-owned entry among ids to the stage.
func (s *PipelineService) BulkMove(ctx context.Context, tenantID string, req dto.BulkMoveRequest) (*dto.BulkResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "ids and stageId are required")
	}
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := s.ensureStage(ctx, tenantID, req.StageID); err != nil {
		return nil, err
	}
	stageID := req.StageID
	return s.runBulk(ctx, tenantID, req.IDs, models.PipelinePatch{StageID: &stageID})
}

// BulkUpdate applies the same patch to every tenant-owned entry among ids.
func (s *PipelineService) BulkUpdate(ctx context.Context, tenantID string, req dto.BulkUpdateRequest) (*dto.BulkResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "ids are required")
	}
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	patch, err := s.patchFromRequest(req.Patch)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "patch must change at least one field")
	}
	if patch.StageID != nil {
		if err := s.ensureStage(ctx, tenantID, *patch.StageID); err != nil {
			return nil, err
		}
	}
	return s.runBulk(ctx, tenantID, req.IDs, patch)
}

// runBulk resolves the tenant-owned subset of ids and applies the patch to each entry
// independently. Ids outside the tenant are skipped; one failure never aborts the rest.
func (s *PipelineService) runBulk(ctx context.Context, tenantID string, ids []string, patch models.PipelinePatch) (*dto.BulkResult, error) {
	requested := dedupeIDs(ids)
	if len(requested) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "ids must contain at least one id")
	}

	owned, err := s.repo.ExistingIDs(ctx, tenantID, requested)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve pipeline entries")
	}
	ownedSet := make(map[string]struct{}, len(owned))
	for _, id := range owned {
		ownedSet[id] = struct{}{}
	}

	results := make([]dto.BulkItemResult, len(requested))
	group := new(errgroup.Group)
	group.SetLimit(s.config.BulkConcurrency)
	for i, id := range requested {
		i, id := i, id
		if _, ok := ownedSet[id]; !ok {
			results[i] = dto.BulkItemResult{ID: id, Outcome: dto.BulkOutcomeSkipped}
			continue
		}
		group.Go(func() error {
			if _, err := s.applyPatch(ctx, tenantID, id, patch, true); err != nil {
				s.logger.Warn("bulk pipeline item failed",
					zap.String("tenant_id", tenantID), zap.String("entry_id", id), zap.Error(err))
				results[i] = dto.BulkItemResult{ID: id, Outcome: dto.BulkOutcomeFailed, Error: appErrors.FromError(err).Message}
				return nil
			}
			results[i] = dto.BulkItemResult{ID: id, Outcome: dto.BulkOutcomeProcessed}
			return nil
		})
	}
	_ = group.Wait()

	processed := 0
	for _, result := range results {
		s.metrics.RecordBulkItem(result.Outcome)
		if result.Outcome == dto.BulkOutcomeProcessed {
			processed++
		}
	}
	if processed > 0 {
		s.invalidate(ctx, tenantID)
	}
	return &dto.BulkResult{ProcessedCount: processed, Results: results}, nil
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
