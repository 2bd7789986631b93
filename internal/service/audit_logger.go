package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/recruiting-crm-api/internal/models"
)

type auditStore interface {
	Create(ctx context.Context, log *models.AutomationLog) error
}

// AuditLogger appends one automation log per audited transition.
type AuditLogger struct {
	store   auditStore
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewAuditLogger constructs the audit logger.
func NewAuditLogger(store auditStore, metrics *MetricsService, logger *zap.Logger) *AuditLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditLogger{store: store, metrics: metrics, logger: logger, now: time.Now}
}

// Record writes the audit trail for the transitions and returns how many records were stored.
// Write failures are logged and swallowed.
func (a *AuditLogger) Record(ctx context.Context, before, after models.PipelineEntry, transitions []Transition) int {
	if a == nil || a.store == nil {
		return 0
	}
	written := 0
	for _, transition := range transitions {
		if !transition.Kind.Audited() {
			continue
		}
		log := &models.AutomationLog{
			TenantID:      after.TenantID,
			TriggerType:   transition.Kind.TriggerType(),
			TriggerData:   auditSnapshot(before, after, transition),
			ConditionsMet: true,
			Status:        models.AutomationLogStatusPending,
			ExecutedAt:    a.now().UTC(),
		}
		if err := a.store.Create(ctx, log); err != nil {
			a.metrics.RecordAuditFailure()
			a.logger.Warn("audit write failed",
				zap.String("tenant_id", after.TenantID),
				zap.String("entry_id", after.ID),
				zap.String("trigger_type", log.TriggerType),
				zap.Error(err),
			)
			continue
		}
		written++
	}
	return written
}

func auditSnapshot(before, after models.PipelineEntry, transition Transition) models.JSONMap {
	snapshot := models.JSONMap{
		"entryId": after.ID,
		"before":  before,
		"after":   after,
	}
	if transition.Kind == models.TransitionStageChanged {
		snapshot["oldStageId"] = stringValue(transition.OldStageID)
		snapshot["newStageId"] = stringValue(transition.NewStageID)
		return snapshot
	}
	snapshot["oldStatus"] = string(transition.OldStatus)
	snapshot["newStatus"] = string(transition.NewStatus)
	return snapshot
}
