package metrics

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limaJavier/examscheduling/pkg/model"
)

func TestMetricsTraceSearch(t *testing.T) {
	//** Arrange
	metrics := New()
	input, err := model.ProcessRawInput(model.RawModelInput{
		Students: []model.RawStudent{{Iri: "s1", EnrolledIn: []string{"A", "B"}}, {Iri: "s2", EnrolledIn: []string{"A", "B"}}},
		Classes:  []model.RawClass{{Iri: "A", ExamDuration: 1}, {Iri: "B", ExamDuration: 1.5}},
		Rooms: []model.RawRoom{{Iri: "R1", Capacity: 2, Availability: []model.RawAvailability{
			{From: "2025-06-02T08:00:00", Until: "2025-06-02T09:30:00"},
			{From: "2025-06-02T10:00:00", Until: "2025-06-02T11:00:00"},
		}}},
	})
	require.NoError(t, err)

	//** Act
	_, _, backtracks, err := model.NewBacktrackingTimetabler(model.Options{Tracer: metrics}).Build(context.Background(), input)

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, float64(backtracks), testutil.ToFloat64(metrics.rollbacks))
	assert.Equal(t, float64(4), testutil.ToFloat64(metrics.commits))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.exhausted))
}

func TestMetricsExhaustedHasOneSeries(t *testing.T) {
	//** Arrange
	metrics := New()

	//** Act
	for i := range 50 {
		metrics.Exhausted(fmt.Sprintf("class_%03d", i), 1, i)
	}

	//** Assert
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.exhausted))
	assert.Equal(t, float64(50), testutil.ToFloat64(metrics.exhausted))
}

func TestMetricsHandler(t *testing.T) {
	//** Arrange
	metrics := New()
	metrics.ObserveRun(ResultScheduled, 20*time.Millisecond)
	metrics.ObserveHTTPRequest(http.MethodGet, "/healthz", http.StatusOK, time.Millisecond)

	//** Act
	recorder := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	//** Assert
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `scheduler_runs_total{result="scheduled"} 1`)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.runs.WithLabelValues(ResultScheduled)))
}

func TestNilMetricsHandler(t *testing.T) {
	var metrics *Metrics
	recorder := httptest.NewRecorder()

	metrics.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	metrics.ObserveRun(ResultFailed, time.Second)

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}
