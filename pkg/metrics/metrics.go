// Package metrics provides Prometheus metrics for the sitter ranking backend.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stay mutation operations recorded by IncStayMutation.
const (
	OpAddStay    = "add"
	OpRemoveStay = "remove"
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets custom histogram buckets for latency metrics.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithPrometheusRegistry sets a custom Prometheus registry.
func WithPrometheusRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// Manager owns every collector the service exports. A nil *Manager is valid
// and records nothing.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	stayMutations   *prometheus.CounterVec
	rankRecomputes  prometheus.Counter
	recomputeTiming prometheus.Histogram
	jobsProcessed   *prometheus.CounterVec
	rankCacheErrors prometheus.Counter
}

// NewManager creates a metrics manager registered on the configured registry
// (prometheus.DefaultRegisterer unless overridden).
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pawrank",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route, method and status",
		},
		[]string{"route", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"route", "method"},
	)

	m.stayMutations = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: "sitters",
			Name:      "stay_mutations_total",
			Help:      "Stays added to or removed from sitters",
		},
		[]string{"op"},
	)

	m.rankRecomputes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "sitters",
		Name:      "rank_recomputes_total",
		Help:      "Sitter rank recomputations persisted",
	})

	m.recomputeTiming = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "sitters",
		Name:      "recompute_all_duration_seconds",
		Help:      "Duration of full rank recompute passes",
		Buckets:   m.histogramBuckets,
	})

	m.jobsProcessed = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: "jobs",
			Name:      "processed_total",
			Help:      "Background jobs processed by final status",
		},
		[]string{"job_type", "status"},
	)

	m.rankCacheErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "rank_cache",
		Name:      "errors_total",
		Help:      "Failed rank cache operations",
	})
}

// ObserveHTTPRequest records one served request.
func (m *Manager) ObserveHTTPRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (m *Manager) IncStayMutation(op string) {
	if m == nil {
		return
	}
	m.stayMutations.WithLabelValues(op).Inc()
}

func (m *Manager) IncRankRecompute() {
	if m == nil {
		return
	}
	m.rankRecomputes.Inc()
}

func (m *Manager) ObserveRecomputeAll(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.recomputeTiming.Observe(elapsed.Seconds())
}

func (m *Manager) IncJobProcessed(jobType, status string) {
	if m == nil {
		return
	}
	m.jobsProcessed.WithLabelValues(jobType, status).Inc()
}

func (m *Manager) IncRankCacheError() {
	if m == nil {
		return
	}
	m.rankCacheErrors.Inc()
}
