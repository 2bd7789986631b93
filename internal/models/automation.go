package models

import "time"

// TransitionKind classifies a change to an entry's stage and/or status.
type TransitionKind string

const (
	TransitionStageChanged TransitionKind = "stage_changed"
	TransitionHired        TransitionKind = "hired"
	TransitionPassed       TransitionKind = "passed"
	TransitionUpdated      TransitionKind = "updated"
)

// AutomationEventType names the events delivered to the automation subsystem.
type AutomationEventType string

const (
	EventCandidateUpdated      AutomationEventType = "candidate_updated"
	EventCandidateStageChanged AutomationEventType = "candidate_stage_changed"
	EventCandidateHired        AutomationEventType = "candidate_hired"
	EventCandidatePassed       AutomationEventType = "candidate_passed"
)

// EventType maps a transition kind to its automation event type.
func (k TransitionKind) EventType() AutomationEventType {
	switch k {
	case TransitionStageChanged:
		return EventCandidateStageChanged
	case TransitionHired:
		return EventCandidateHired
	case TransitionPassed:
		return EventCandidatePassed
	default:
		return EventCandidateUpdated
	}
}

// Audited reports whether the kind produces an audit record.
func (k TransitionKind) Audited() bool {
	return k == TransitionStageChanged || k == TransitionHired || k == TransitionPassed
}

// TriggerType is the namespaced trigger recorded on audit rows.
func (k TransitionKind) TriggerType() string {
	return "recruiting_" + string(k.EventType())
}

// AutomationEvent is the ephemeral payload handed to the automation subsystem.
type AutomationEvent struct {
	ID         string                 `json:"id"`
	Type       AutomationEventType    `json:"type"`
	TenantID   string                 `json:"tenantId"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurredAt"`
}

// Automation log statuses.
const (
	AutomationLogStatusPending = "pending"
)

// AutomationLog is the append-only audit record of a triggering transition.
type AutomationLog struct {
	ID            string    `db:"id" json:"id"`
	TenantID      string    `db:"tenant_id" json:"tenantId"`
	AutomationID  *string   `db:"automation_id" json:"automationId"`
	TriggerType   string    `db:"trigger_type" json:"triggerType"`
	TriggerData   JSONMap   `db:"trigger_data" json:"triggerData"`
	ConditionsMet bool      `db:"conditions_met" json:"conditionsMet"`
	Status        string    `db:"status" json:"status"`
	ExecutedAt    time.Time `db:"executed_at" json:"executedAt"`
}
