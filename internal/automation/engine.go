package automation

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/recruiting-crm-api/internal/models"
)

// Engine consumes pipeline events.
type Engine interface {
	ProcessEvent(ctx context.Context, event models.AutomationEvent) error
}

// LogEngine only records events in the operational log. It is used when no
// stream backend is configured.
type LogEngine struct {
	logger *zap.Logger
}

// NewLogEngine constructs a LogEngine.
func NewLogEngine(logger *zap.Logger) *LogEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogEngine{logger: logger}
}

// ProcessEvent implements Engine.
func (e *LogEngine) ProcessEvent(ctx context.Context, event models.AutomationEvent) error {
	e.logger.Info("automation event",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("tenant_id", event.TenantID),
		zap.Any("entry_id", event.Data["entryId"]),
	)
	return nil
}
