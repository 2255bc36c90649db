// Package metrics exposes Prometheus instrumentation for ingestion.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all ingestion metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec
	UpstreamLatency  *prometheus.HistogramVec
	SyncRuns         *prometheus.CounterVec
	RecordsInserted  *prometheus.CounterVec
	SyncDuration     *prometheus.HistogramVec
	ExchangeRate     prometheus.Gauge

	registry *prometheus.Registry
}

// New creates a metrics instance backed by its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "listing_sync",
			Name:      "upstream_requests_total",
			Help:      "Total number of requests sent to upstream APIs",
		},
		[]string{"source", "outcome"},
	)

	m.UpstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "listing_sync",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	m.SyncRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "listing_sync",
			Name:      "sync_runs_total",
			Help:      "Total number of ingestion runs",
		},
		[]string{"collection", "mode", "result"},
	)

	m.RecordsInserted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "listing_sync",
			Name:      "records_inserted_total",
			Help:      "Total number of records inserted into the store",
		},
		[]string{"collection", "mode"},
	)

	m.SyncDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "listing_sync",
			Name:      "sync_duration_seconds",
			Help:      "Duration of ingestion runs",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"collection", "mode"},
	)

	m.ExchangeRate = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "listing_sync",
		Name:      "eur_exchange_rate",
		Help:      "Last loaded EUR/MDL official rate",
	})

	m.registry.MustRegister(
		m.UpstreamRequests,
		m.UpstreamLatency,
		m.SyncRuns,
		m.RecordsInserted,
		m.SyncDuration,
		m.ExchangeRate,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveUpstream records one upstream request.
func (m *Metrics) ObserveUpstream(source string, err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.UpstreamRequests.WithLabelValues(source, outcome).Inc()
	m.UpstreamLatency.WithLabelValues(source).Observe(d.Seconds())
}

// ObserveSync records one finished ingestion run.
func (m *Metrics) ObserveSync(collection, mode string, inserted int, err error, d time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.SyncRuns.WithLabelValues(collection, mode, result).Inc()
	m.SyncDuration.WithLabelValues(collection, mode).Observe(d.Seconds())
	if inserted > 0 {
		m.RecordsInserted.WithLabelValues(collection, mode).Add(float64(inserted))
	}
}

// SetExchangeRate records the current rate value.
func (m *Metrics) SetExchangeRate(v float64) {
	if m == nil {
		return
	}
	m.ExchangeRate.Set(v)
}

// Handler returns the HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
