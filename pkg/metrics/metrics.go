package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/limaJavier/examscheduling/pkg/model"
)

const (
	ResultScheduled     = "scheduled"
	ResultUnschedulable = "unschedulable"
	ResultCached        = "cached"
	ResultFailed        = "failed"
)

// Metrics encapsulates Prometheus instrumentation of the scheduler and its HTTP surface. It implements
// model.Tracer, so a single instance can observe every search the process runs.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	commits         prometheus.Counter
	rollbacks       prometheus.Counter
	exhausted       prometheus.Counter
	depth           prometheus.Histogram
	runs            *prometheus.CounterVec
	runDuration     prometheus.Histogram
	requestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	commits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_session_commits_total",
		Help: "Total number of sessions committed by the search",
	})

	rollbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_session_rollbacks_total",
		Help: "Total number of sessions rolled back by the search",
	})

	// Class identifiers come from requests, so they stay out of the labels
	exhausted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_exhausted_total",
		Help: "Total number of work items that ran out of candidates",
	})

	depth := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduler_commit_depth",
		Help:    "Search depth at which sessions are committed",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_runs_total",
		Help: "Total number of scheduling runs, by result",
	}, []string{"result"})

	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduler_run_duration_seconds",
		Help:    "Duration of scheduling runs in seconds",
		Buckets: prometheus.DefBuckets,
	})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	registry.MustRegister(commits, rollbacks, exhausted, depth, runs, runDuration, requestDuration)

	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		commits:         commits,
		rollbacks:       rollbacks,
		exhausted:       exhausted,
		depth:           depth,
		runs:            runs,
		runDuration:     runDuration,
		requestDuration: requestDuration,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

//** model.Tracer

func (m *Metrics) Commit(_ model.ExamSession, depth int) {
	m.commits.Inc()
	m.depth.Observe(float64(depth))
}

func (m *Metrics) Rollback(model.ExamSession, int) {
	m.rollbacks.Inc()
}

func (m *Metrics) Exhausted(string, int, int) {
	m.exhausted.Inc()
}

//** Runs and requests

func (m *Metrics) ObserveRun(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(result).Inc()
	m.runDuration.Observe(duration.Seconds())
}

func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, path, fmt.Sprintf("%d", status)).Observe(duration.Seconds())
}
