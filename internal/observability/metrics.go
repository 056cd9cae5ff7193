package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/octal-backend/internal/platform/envutil"
	"github.com/yungbote/octal-backend/internal/platform/logger"
)

// Metrics holds the service's Prometheus collectors. Every method is a no-op
// on a nil receiver so callers never need to check whether metrics are on.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	graphValidations  *prometheus.CounterVec
	attemptsSubmitted *prometheus.CounterVec
	inferenceConcepts *prometheus.HistogramVec
	eventsPublished   *prometheus.CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Enabled reads METRICS_ENABLED (default true).
func Enabled(log *logger.Logger) bool {
	return envutil.Bool("METRICS_ENABLED", true, log)
}

func Current() *Metrics {
	return instance
}

// Init builds the process-wide instance once. It returns nil when metrics are
// disabled.
func Init(log *logger.Logger) *Metrics {
	if !Enabled(log) {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics(prometheus.NewRegistry())
		if log != nil {
			log.Info("prometheus metrics initialized")
		}
	})
	return instance
}

// NewMetrics registers all collectors on reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "octal_http_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "octal_http_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method", "route", "status"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Name: "octal_http_inflight_requests",
			Help: "In-flight API requests.",
		}),
		graphValidations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "octal_graph_validations_total",
			Help: "Concept graph validations by outcome (ok or the failure kind).",
		}, []string{"outcome"}),
		attemptsSubmitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "octal_attempts_submitted_total",
			Help: "Submitted exercise attempts by correctness.",
		}, []string{"correct"}),
		inferenceConcepts: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "octal_inference_concepts",
			Help:    "Concepts per knowledge request by inferred state.",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}, []string{"state"}),
		eventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "octal_events_published_total",
			Help: "Realtime events published by event and status.",
		}, []string{"event", "status"}),
	}
}

// RegisterDB exports database/sql pool stats.
func (m *Metrics) RegisterDB(db *sql.DB, name string) {
	if m == nil || db == nil {
		return
	}
	_ = m.registry.Register(collectors.NewDBStatsCollector(db, name))
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveGraphValidation takes "ok" or a graphcheck failure kind.
func (m *Metrics) ObserveGraphValidation(outcome string) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.graphValidations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncAttemptSubmitted(correct bool) {
	if m == nil {
		return
	}
	m.attemptsSubmitted.WithLabelValues(strconv.FormatBool(correct)).Inc()
}

func (m *Metrics) ObserveInference(counts map[string]int) {
	if m == nil {
		return
	}
	for state, n := range counts {
		m.inferenceConcepts.WithLabelValues(state).Observe(float64(n))
	}
}

func (m *Metrics) IncEventPublished(event string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.eventsPublished.WithLabelValues(event, status).Inc()
}
