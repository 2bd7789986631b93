package automation

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/recruiting-crm-api/internal/models"
	"github.com/noah-isme/recruiting-crm-api/pkg/jobs"
)

const jobTypeAutomationEvent = "automation_event"

// FailureHook is called once for an event whose delivery exhausted its retries.
type FailureHook func(event models.AutomationEvent, err error)

type failureCounter interface {
	RecordAutomationFailure()
}

// ReportFailures counts abandoned events in metrics and logs them.
func ReportFailures(metrics failureCounter, logger *zap.Logger) FailureHook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(event models.AutomationEvent, err error) {
		if metrics != nil {
			metrics.RecordAutomationFailure()
		}
		logger.Warn("automation delivery abandoned",
			zap.String("tenant_id", event.TenantID),
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
	}
}

// QueuedEngineOption customises a QueuedEngine.
type QueuedEngineOption func(*QueuedEngine)

// WithFailureHook registers the callback for abandoned events.
func WithFailureHook(hook FailureHook) QueuedEngineOption {
	return func(e *QueuedEngine) {
		e.onFailure = hook
	}
}

// QueuedEngine hands events to background workers so callers never wait on delivery.
// Events of one pipeline entry always land on the same single-worker shard and are
// retried in place, so they reach next in the order they were submitted.
type QueuedEngine struct {
	next       Engine
	shards     []*jobs.Queue
	maxRetries int
	retryDelay time.Duration
	onFailure  FailureHook
}

// NewQueuedEngine wraps next with cfg.Workers ordered shards.
func NewQueuedEngine(next Engine, cfg jobs.QueueConfig, opts ...QueuedEngineOption) *QueuedEngine {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = 4 * workers
	}
	e := &QueuedEngine{
		next:       next,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
	if e.maxRetries < 0 {
		e.maxRetries = 0
	}
	if e.retryDelay <= 0 {
		e.retryDelay = time.Second
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	shardCfg := jobs.QueueConfig{
		Workers:    1,
		BufferSize: (buffer + workers - 1) / workers,
		Logger:     cfg.Logger,
	}
	e.shards = make([]*jobs.Queue, workers)
	for i := range e.shards {
		e.shards[i] = jobs.NewQueue("automation-"+strconv.Itoa(i), e.handle, shardCfg)
	}
	return e
}

// Start launches the workers.
func (e *QueuedEngine) Start(ctx context.Context) {
	for _, shard := range e.shards {
		shard.Start(ctx)
	}
}

// Stop drains buffered events and stops the workers.
func (e *QueuedEngine) Stop() {
	for _, shard := range e.shards {
		shard.Stop()
	}
}

// ProcessEvent implements Engine. An error means the event was not accepted.
func (e *QueuedEngine) ProcessEvent(_ context.Context, event models.AutomationEvent) error {
	shard := e.shards[e.shardFor(event)]
	return shard.Enqueue(jobs.Job{ID: event.ID, Type: jobTypeAutomationEvent, Payload: event})
}

func (e *QueuedEngine) shardFor(event models.AutomationEvent) int {
	if len(e.shards) == 1 {
		return 0
	}
	key, _ := event.Data["entryId"].(string)
	if key == "" {
		key = event.ID
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(event.TenantID + "/" + key))
	return int(h.Sum32() % uint32(len(e.shards)))
}

// handle delivers one event, blocking its shard while it retries.
func (e *QueuedEngine) handle(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.AutomationEvent)
	if !ok {
		return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)
	}

	var err error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(e.retryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				e.fail(event, fmt.Errorf("%w (last error: %v)", ctx.Err(), err))
				return nil
			case <-timer.C:
			}
		}
		if err = e.next.ProcessEvent(ctx, event); err == nil {
			return nil
		}
	}
	e.fail(event, err)
	return nil
}

func (e *QueuedEngine) fail(event models.AutomationEvent, err error) {
	if e.onFailure != nil {
		e.onFailure(event, err)
	}
}
