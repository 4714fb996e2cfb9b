package metrics

import (
	"database/sql"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns every collector of the process. Handlers and stores receive it
// explicitly instead of touching package-level counters.
type Registry struct {
	reg *prometheus.Registry

	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	StoreOps        *prometheus.CounterVec
	Errors          *prometheus.CounterVec
	CleanupOutcomes *prometheus.CounterVec

	startedAt time.Time
	dbMu      sync.Mutex
	dbStats   map[string]func() sql.DBStats
}

// New builds a registry with the process collectors and the app metrics.
func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	r := &Registry{
		reg:       reg,
		startedAt: time.Now(),
		dbStats:   make(map[string]func() sql.DBStats),
	}

	r.HTTPRequests = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	r.HTTPDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)
	r.StoreOps = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s3_operations_total",
			Help: "Total number of object store operations",
		},
		[]string{"op", "result"},
	)
	r.Errors = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors returned to clients",
		},
		[]string{"kind"},
	)
	r.CleanupOutcomes = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisory_cleanups_total",
			Help: "Blob cleanups performed after the primary operation",
		},
		[]string{"outcome"},
	)
	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "uptime_seconds",
			Help: "Process uptime in seconds",
		},
		func() float64 { return time.Since(r.startedAt).Seconds() },
	)
	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "database_connections_active",
			Help: "Open connections across the relational pools",
		},
		r.openConnections,
	)

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// TrackDB adds a sql pool to database_connections_active.
func (r *Registry) TrackDB(name string, stats func() sql.DBStats) {
	if r == nil || stats == nil {
		return
	}
	r.dbMu.Lock()
	r.dbStats[name] = stats
	r.dbMu.Unlock()
}

func (r *Registry) openConnections() float64 {
	r.dbMu.Lock()
	defer r.dbMu.Unlock()
	total := 0
	for _, stats := range r.dbStats {
		total += stats().OpenConnections
	}
	return float64(total)
}

// Gatherer exposes the underlying registry, mostly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// ObserveStore counts one object store call.
func (r *Registry) ObserveStore(op string, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.StoreOps.WithLabelValues(op, result).Inc()
}

// ObserveError counts an error by kind (validation, not_found, conflict, dependency).
func (r *Registry) ObserveError(kind string) {
	if r == nil {
		return
	}
	r.Errors.WithLabelValues(kind).Inc()
}

// ObserveCleanup counts an advisory cleanup outcome.
func (r *Registry) ObserveCleanup(outcome string) {
	if r == nil {
		return
	}
	r.CleanupOutcomes.WithLabelValues(outcome).Inc()
}

var (
	defaultMu sync.Mutex
	Default   *Registry
)

// Init creates the process-wide registry once.
func Init() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if Default == nil {
		Default = New()
	}
	return Default
}

// Reset replaces the process-wide registry with a fresh one.
func Reset() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	Default = New()
	return Default
}
