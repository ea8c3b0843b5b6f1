package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic and import runs.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	importDuration  *prometheus.HistogramVec
	importTotal     *prometheus.CounterVec
	importRows      *prometheus.CounterVec
	importRowErrors *prometheus.CounterVec
	historyLatency  prometheus.Observer

	requestCount uint64
	importCount  uint64
}

// MetricsSnapshot is a small in-process summary used by the health endpoint.
type MetricsSnapshot struct {
	RequestsTotal uint64    `json:"requestsTotal"`
	ImportsTotal  uint64    `json:"importsTotal"`
	Goroutines    int       `json:"goroutines"`
	GeneratedAt   time.Time `json:"generatedAt"`
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	importDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "import_duration_seconds",
		Help:    "Duration of CSV import runs",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"kind"})

	importTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "imports_total",
		Help: "Total import runs by outcome",
	}, []string{"kind", "outcome"})

	importRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "import_rows_total",
		Help: "Rows admitted to processing by import kind",
	}, []string{"kind"})

	importRowErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "import_row_errors_total",
		Help: "Row-level errors recorded during imports",
	}, []string{"kind"})

	historyLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "import_history_latency_seconds",
		Help:    "Latency of import history store operations",
		Buckets: prometheus.DefBuckets,
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, importDuration, importTotal, importRows, importRowErrors, historyLatency, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		importDuration:  importDuration,
		importTotal:     importTotal,
		importRows:      importRows,
		importRowErrors: importRowErrors,
		historyLatency:  historyLatency,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
}

// ObserveImport records one finished import run. outcome is one of
// "success", "invalid" or "failed".
func (m *MetricsService) ObserveImport(kind, outcome string, rows, rowErrors int, duration time.Duration) {
	if m == nil {
		return
	}
	m.importDuration.WithLabelValues(kind).Observe(duration.Seconds())
	m.importTotal.WithLabelValues(kind, outcome).Inc()
	if rows > 0 {
		m.importRows.WithLabelValues(kind).Add(float64(rows))
	}
	if rowErrors > 0 {
		m.importRowErrors.WithLabelValues(kind).Add(float64(rowErrors))
	}
	atomic.AddUint64(&m.importCount, 1)
}

// ObserveHistoryOperation tracks how long the history store took.
func (m *MetricsService) ObserveHistoryOperation(duration time.Duration) {
	if m == nil || m.historyLatency == nil {
		return
	}
	m.historyLatency.Observe(duration.Seconds())
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		RequestsTotal: atomic.LoadUint64(&m.requestCount),
		ImportsTotal:  atomic.LoadUint64(&m.importCount),
		Goroutines:    runtime.NumGoroutine(),
		GeneratedAt:   time.Now().UTC(),
	}
}
