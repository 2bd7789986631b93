package automation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/recruiting-crm-api/internal/models"
	"github.com/noah-isme/recruiting-crm-api/pkg/jobs"
)

type xaddRecorder struct {
	args []*redis.XAddArgs
	err  error
}

func (r *xaddRecorder) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	r.args = append(r.args, a)
	cmd := redis.NewStringCmd(ctx)
	if r.err != nil {
		cmd.SetErr(r.err)
	} else {
		cmd.SetVal("1700000000000-0")
	}
	return cmd
}

func sampleEvent(id string) models.AutomationEvent {
	return models.AutomationEvent{
		ID:         id,
		Type:       models.EventCandidateHired,
		TenantID:   "tenant-a",
		Data:       map[string]interface{}{"entryId": "entry-1"},
		OccurredAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestStreamPublisherAppendsTrimmedEntry(t *testing.T) {
	client := &xaddRecorder{}
	publisher := NewStreamPublisher(client, "", 1000)

	require.NoError(t, publisher.ProcessEvent(context.Background(), sampleEvent("evt-1")))
	require.Len(t, client.args, 1)
	args := client.args[0]
	assert.Equal(t, "automation:events", args.Stream)
	assert.Equal(t, int64(1000), args.MaxLen)
	assert.True(t, args.Approx)

	values := args.Values.(map[string]interface{})
	assert.Equal(t, "candidate_hired", values["type"])
	assert.Equal(t, "tenant-a", values["tenant_id"])
	var decoded models.AutomationEvent
	require.NoError(t, json.Unmarshal([]byte(values["payload"].(string)), &decoded))
	assert.Equal(t, "entry-1", decoded.Data["entryId"])
}

func TestStreamPublisherReturnsRedisErrors(t *testing.T) {
	publisher := NewStreamPublisher(&xaddRecorder{err: errors.New("READONLY")}, "events", 0)

	err := publisher.ProcessEvent(context.Background(), sampleEvent("evt-1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xadd events")
}

type recordingEngine struct {
	mu       sync.Mutex
	ids      []string
	failures int
	slow     map[string]time.Duration
}

func (e *recordingEngine) ProcessEvent(ctx context.Context, event models.AutomationEvent) error {
	if delay := e.slow[event.ID]; delay > 0 {
		time.Sleep(delay)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failures > 0 {
		e.failures--
		return errors.New("transient")
	}
	e.ids = append(e.ids, event.ID)
	return nil
}

func (e *recordingEngine) delivered() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.ids...)
}

func entryEvent(id, entryID string, eventType models.AutomationEventType) models.AutomationEvent {
	event := sampleEvent(id)
	event.Type = eventType
	event.Data = map[string]interface{}{"entryId": entryID}
	return event
}

func TestQueuedEngineDeliversInBackground(t *testing.T) {
	next := &recordingEngine{failures: 1}
	engine := NewQueuedEngine(next, jobs.QueueConfig{Workers: 1, BufferSize: 4, MaxRetries: 2, RetryDelay: 10 * time.Millisecond})

	assert.Error(t, engine.ProcessEvent(context.Background(), sampleEvent("early")), "not started")

	engine.Start(context.Background())
	require.NoError(t, engine.ProcessEvent(context.Background(), sampleEvent("evt-1")))

	assert.Eventually(t, func() bool {
		next.mu.Lock()
		defer next.mu.Unlock()
		return len(next.ids) == 1
	}, time.Second, 5*time.Millisecond)
	engine.Stop()

	assert.Equal(t, []string{"evt-1"}, next.ids)
}

func TestQueuedEngineKeepsPerEntryOrderAcrossWorkers(t *testing.T) {
	next := &recordingEngine{slow: map[string]time.Duration{"stage": 50 * time.Millisecond}}
	engine := NewQueuedEngine(next, jobs.QueueConfig{Workers: 4, BufferSize: 16, RetryDelay: time.Millisecond})
	engine.Start(context.Background())

	require.NoError(t, engine.ProcessEvent(context.Background(), entryEvent("stage", "entry-1", models.EventCandidateStageChanged)))
	require.NoError(t, engine.ProcessEvent(context.Background(), entryEvent("hired", "entry-1", models.EventCandidateHired)))
	engine.Stop()

	assert.Equal(t, []string{"stage", "hired"}, next.delivered())
}

func TestQueuedEngineRetriesWithoutReordering(t *testing.T) {
	next := &recordingEngine{failures: 2}
	engine := NewQueuedEngine(next, jobs.QueueConfig{Workers: 3, BufferSize: 9, MaxRetries: 3, RetryDelay: 5 * time.Millisecond})
	engine.Start(context.Background())

	require.NoError(t, engine.ProcessEvent(context.Background(), entryEvent("stage", "entry-1", models.EventCandidateStageChanged)))
	require.NoError(t, engine.ProcessEvent(context.Background(), entryEvent("hired", "entry-1", models.EventCandidateHired)))
	assert.Eventually(t, func() bool { return len(next.delivered()) == 2 }, time.Second, 5*time.Millisecond)
	engine.Stop()

	assert.Equal(t, []string{"stage", "hired"}, next.delivered())
}

func TestQueuedEngineReportsExhaustedDeliveries(t *testing.T) {
	next := &recordingEngine{failures: 10}
	var mu sync.Mutex
	var failed []string
	engine := NewQueuedEngine(next,
		jobs.QueueConfig{Workers: 2, BufferSize: 4, MaxRetries: 1, RetryDelay: time.Millisecond},
		WithFailureHook(func(event models.AutomationEvent, err error) {
			mu.Lock()
			defer mu.Unlock()
			failed = append(failed, event.ID)
			assert.EqualError(t, err, "transient")
		}),
	)
	engine.Start(context.Background())

	require.NoError(t, engine.ProcessEvent(context.Background(), entryEvent("lost", "entry-1", models.EventCandidateHired)))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(failed) == 1
	}, time.Second, 5*time.Millisecond)
	engine.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"lost"}, failed)
	assert.Empty(t, next.delivered())
}

type failureCounterStub struct {
	mu    sync.Mutex
	count int
}

func (c *failureCounterStub) RecordAutomationFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
}

func TestQueuedEngineCountsAbandonedDeliveries(t *testing.T) {
	counter := &failureCounterStub{}
	engine := NewQueuedEngine(&recordingEngine{failures: 5},
		jobs.QueueConfig{Workers: 2, BufferSize: 4, MaxRetries: 1, RetryDelay: time.Millisecond},
		WithFailureHook(ReportFailures(counter, nil)),
	)
	engine.Start(context.Background())

	require.NoError(t, engine.ProcessEvent(context.Background(), entryEvent("evt-1", "entry-1", models.EventCandidatePassed)))
	assert.Eventually(t, func() bool {
		counter.mu.Lock()
		defer counter.mu.Unlock()
		return counter.count == 1
	}, time.Second, 5*time.Millisecond)
	engine.Stop()
}

func TestLogEngineAcceptsEverything(t *testing.T) {
	assert.NoError(t, NewLogEngine(nil).ProcessEvent(context.Background(), sampleEvent("evt-1")))
}
