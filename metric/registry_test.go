package metric

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistry_CoreMetricsRegistered(t *testing.T) {
	reg := NewMetricsRegistry()
	require.NotNil(t, reg.CoreMetrics())

	reg.Metrics.PipelineRuns.WithLabelValues("success").Inc()
	reg.Metrics.ObserveStep("parse_query", 12*time.Millisecond)

	families, err := reg.PrometheusRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["cohort_chatbot_pipeline_runs_total"])
	assert.True(t, names["cohort_chatbot_pipeline_step_duration_seconds"])
}

func TestRegister_RejectsDuplicates(t *testing.T) {
	reg := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_reloads_total",
		Help: "test counter",
	})
	require.NoError(t, reg.Register("catalog", "reloads", counter))

	other := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_reloads_other_total",
		Help: "test counter",
	})
	assert.Error(t, reg.Register("catalog", "reloads", other))

	assert.True(t, reg.Unregister("catalog", "reloads"))
	assert.False(t, reg.Unregister("catalog", "reloads"))
}

func TestHandler_ServesExposition(t *testing.T) {
	reg := NewMetricsRegistry()
	reg.Metrics.RequestsTotal.WithLabelValues("/api/query", "200").Inc()

	srv := httptest.NewServer(reg.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
