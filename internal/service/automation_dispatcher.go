package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/recruiting-crm-api/internal/models"
	appErrors "github.com/noah-isme/recruiting-crm-api/pkg/errors"
)

// AutomationEngine is the external rules subsystem that consumes pipeline events.
type AutomationEngine interface {
	ProcessEvent(ctx context.Context, event models.AutomationEvent) error
}

// AutomationDispatcher turns committed transitions into automation events.
// Delivery is best effort: failures are logged and counted, never returned.
type AutomationDispatcher struct {
	engine  AutomationEngine
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewAutomationDispatcher constructs a dispatcher. A nil engine disables delivery.
func NewAutomationDispatcher(engine AutomationEngine, metrics *MetricsService, logger *zap.Logger) *AutomationDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutomationDispatcher{engine: engine, metrics: metrics, logger: logger, now: time.Now}
}

// Dispatch submits one event per transition, in order, and returns how many were accepted.
func (d *AutomationDispatcher) Dispatch(ctx context.Context, entry *models.PipelineEntryDetail, transitions []Transition) int {
	if d == nil || d.engine == nil || entry == nil {
		return 0
	}
	delivered := 0
	for _, transition := range transitions {
		event := models.AutomationEvent{
			ID:         uuid.NewString(),
			Type:       transition.Kind.EventType(),
			TenantID:   entry.TenantID,
			Data:       eventData(entry, transition),
			OccurredAt: d.now().UTC(),
		}
		if err := d.deliver(ctx, event); err != nil {
			d.metrics.RecordAutomationFailure()
			d.logger.Warn("automation delivery failed",
				zap.String("tenant_id", entry.TenantID),
				zap.String("entry_id", entry.ID),
				zap.String("event_type", string(event.Type)),
				zap.Error(err),
			)
			continue
		}
		delivered++
	}
	return delivered
}

func (d *AutomationDispatcher) deliver(ctx context.Context, event models.AutomationEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = appErrors.Wrap(fmt.Errorf("panic: %v", r), appErrors.ErrAutomationDeliveryFail.Code, appErrors.ErrAutomationDeliveryFail.Status, "automation engine panicked")
		}
	}()
	if err := d.engine.ProcessEvent(ctx, event); err != nil {
		return appErrors.Wrap(err, appErrors.ErrAutomationDeliveryFail.Code, appErrors.ErrAutomationDeliveryFail.Status, appErrors.ErrAutomationDeliveryFail.Message)
	}
	return nil
}

func eventData(entry *models.PipelineEntryDetail, transition Transition) map[string]interface{} {
	data := map[string]interface{}{
		"entryId":     entry.ID,
		"candidateId": entry.CandidateID,
		"positionId":  entry.PositionID,
		"stageId":     stringValue(entry.StageID),
		"status":      string(entry.Status),
		"entry":       entry.PipelineEntry,
		"candidate": map[string]interface{}{
			"id":        entry.CandidateID,
			"firstName": entry.CandidateFirstName,
			"lastName":  entry.CandidateLastName,
			"email":     stringValue(entry.CandidateEmail),
			"title":     stringValue(entry.CandidateTitle),
			"company":   stringValue(entry.CandidateCompany),
		},
		"position": map[string]interface{}{
			"id":         entry.PositionID,
			"title":      entry.PositionTitle,
			"department": stringValue(entry.PositionDepartment),
		},
	}
	if entry.StageID != nil {
		data["stage"] = map[string]interface{}{
			"id":    *entry.StageID,
			"name":  stringValue(entry.StageName),
			"color": stringValue(entry.StageColor),
		}
	}
	switch transition.Kind {
	case models.TransitionStageChanged:
		data["oldStageId"] = stringValue(transition.OldStageID)
		data["newStageId"] = stringValue(transition.NewStageID)
	default:
		data["oldStatus"] = string(transition.OldStatus)
		data["newStatus"] = string(transition.NewStatus)
	}
	return data
}
