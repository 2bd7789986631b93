package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/recruiting-crm-api/internal/dto"
	"github.com/noah-isme/recruiting-crm-api/internal/models"
)

func counterValue(t *testing.T, m *MetricsService, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			matched := 0
			for _, pair := range metric.GetLabel() {
				if value, ok := labels[pair.GetName()]; ok && value == pair.GetValue() {
					matched++
				}
			}
			if matched == len(labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestMetricsServiceRecordsPipelineSeries(t *testing.T) {
	metrics := NewMetricsService()
	metrics.RecordTransition(models.TransitionHired)
	metrics.RecordTransition(models.TransitionHired)
	metrics.RecordTransition(models.TransitionStageChanged)
	metrics.RecordBulkItem(dto.BulkOutcomeSkipped)
	metrics.ObserveHTTPRequest(http.MethodGet, "/api/v1/pipeline", http.StatusOK, 15*time.Millisecond)

	assert.Equal(t, 2.0, counterValue(t, metrics, "pipeline_transitions_total", map[string]string{"kind": "hired"}))
	assert.Equal(t, 1.0, counterValue(t, metrics, "pipeline_transitions_total", map[string]string{"kind": "stage_changed"}))
	assert.Equal(t, 1.0, counterValue(t, metrics, "bulk_items_total", map[string]string{"outcome": "skipped"}))
	assert.Equal(t, 1.0, counterValue(t, metrics, "http_requests_total", map[string]string{"status": "200"}))

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "pipeline_transitions_total"))
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var metrics *MetricsService
	assert.NotPanics(t, func() {
		metrics.RecordTransition(models.TransitionPassed)
		metrics.RecordAutomationFailure()
		metrics.RecordAuditFailure()
		metrics.RecordBulkItem(dto.BulkOutcomeFailed)
		metrics.RecordCacheOperation(true, time.Millisecond)
		metrics.ObserveDBQuery("pipeline_list", time.Millisecond)
	})
	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
