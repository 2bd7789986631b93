package automation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/recruiting-crm-api/internal/models"
)

type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// StreamPublisher appends events to a Redis stream read by the rules engine.
// The stream is trimmed approximately to maxLen entries.
type StreamPublisher struct {
	client streamAdder
	stream string
	maxLen int64
}

// NewStreamPublisher constructs a StreamPublisher.
func NewStreamPublisher(client streamAdder, stream string, maxLen int64) *StreamPublisher {
	if stream == "" {
		stream = "automation:events"
	}
	return &StreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

// ProcessEvent implements Engine.
func (p *StreamPublisher) ProcessEvent(ctx context.Context, event models.AutomationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal automation event %s: %w", event.ID, err)
	}
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"event_id":  event.ID,
			"type":      string(event.Type),
			"tenant_id": event.TenantID,
			"payload":   string(payload),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}
