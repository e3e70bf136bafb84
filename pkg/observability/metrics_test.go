package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOperationMetrics(reg, "event")
	ctx := context.Background()

	m.RecordOperationAttempt(ctx, "SetAcceptance", "EventService")
	m.RecordOperationAttempt(ctx, "SetAcceptance", "EventService")
	m.RecordOperationSuccess(ctx, "SetAcceptance", "EventService")
	m.RecordOperationFailure(ctx, "SetAcceptance", "EventService")
	m.RecordOperationDuration(ctx, "SetAcceptance", "EventService", 15*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.attempts.WithLabelValues("EventService", "SetAcceptance")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.successes.WithLabelValues("EventService", "SetAcceptance")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("EventService", "SetAcceptance")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestNewOperationMetrics_ReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewOperationMetrics(reg, "slot")
	second := NewOperationMetrics(reg, "slot")

	first.RecordOperationAttempt(context.Background(), "AssignSelf", "EventService")
	second.RecordOperationAttempt(context.Background(), "AssignSelf", "EventService")

	assert.Equal(t, 2.0, testutil.ToFloat64(first.attempts.WithLabelValues("EventService", "AssignSelf")))
}

func TestNew_LoggerAndMetricsHandler(t *testing.T) {
	var buf bytes.Buffer
	obs, err := New(context.Background(), Config{ServiceName: "opsboard-test", Environment: "test", LogLevel: "debug", Output: &buf})
	require.NoError(t, err)

	obs.Logger.Debug("hello", "k", "v")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "opsboard-test", line["service"])
	assert.Equal(t, "test", line["environment"])

	NewOperationMetrics(obs.Registry, "event").RecordOperationAttempt(context.Background(), "GetEvent", "EventService")

	rec := httptest.NewRecorder()
	obs.MetricsHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "opsboard_event_operation_attempts_total"))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"":      "INFO",
		"debug": "DEBUG",
		"WARN":  "WARN",
		"error": "ERROR",
		"bogus": "INFO",
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in).String(), in)
	}
}
