package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePipelineStatus(t *testing.T) {
	status, err := ParsePipelineStatus(" Hired ")
	require.NoError(t, err)
	assert.Equal(t, PipelineStatusHired, status)

	_, err = ParsePipelineStatus("archived")
	assert.Error(t, err)
}

func TestJSONMapScan(t *testing.T) {
	var m JSONMap
	require.NoError(t, m.Scan([]byte(`{"salary":120000}`)))
	assert.Equal(t, float64(120000), m["salary"])

	require.NoError(t, m.Scan(nil))
	assert.Nil(t, m)

	assert.Error(t, m.Scan(42))
}

func TestJSONMapValueNil(t *testing.T) {
	var m JSONMap
	v, err := m.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestTransitionKindTriggerType(t *testing.T) {
	assert.Equal(t, "recruiting_candidate_stage_changed", TransitionStageChanged.TriggerType())
	assert.Equal(t, "recruiting_candidate_hired", TransitionHired.TriggerType())
	assert.Equal(t, EventCandidateUpdated, TransitionUpdated.EventType())
	assert.False(t, TransitionUpdated.Audited())
	assert.True(t, TransitionPassed.Audited())
}
