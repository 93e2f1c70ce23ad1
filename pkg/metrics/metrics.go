// Package metrics defines the Prometheus metric collectors used by the
// service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

// New creates and registers the HTTP-facing Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
	)

	return m
}

// DomainFuncs supplies read callbacks over the aggregation state. The domain
// packages stay free of prometheus types; monotone callbacks are exported as
// counters, the rest as gauges.
type DomainFuncs struct {
	Identifiers    func() float64
	Pairs          func() float64
	Submissions    func() float64
	Increments     func() float64
	HourRotations  func() float64
	DayRotations   func() float64
	PersistsOK     func() float64
	PersistsFailed func() float64
	Dirty          func() float64
}

// RegisterDomain registers the aggregation-state metrics. Call it once at
// startup.
func RegisterDomain(f DomainFuncs) {
	prometheus.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "cooccurrence_identifiers_total",
			Help: "Number of distinct identifiers interned by the co-occurrence counter.",
		}, f.Identifiers),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "cooccurrence_pairs_total",
			Help: "Number of distinct identifier pairs with a recorded count.",
		}, f.Pairs),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "lists_submitted_total",
			Help: "Number of identifier lists submitted over HTTP or Kafka.",
		}, f.Submissions),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "counter_increments_total",
			Help: "Number of window counter increments applied.",
		}, f.Increments),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "counter_rotations_hour_total",
			Help: "Number of hour bucket rotations performed.",
		}, f.HourRotations),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "counter_rotations_day_total",
			Help: "Number of day bucket rotations performed.",
		}, f.DayRotations),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "counter_persists_success_total",
			Help: "Number of snapshot persists that reached disk.",
		}, f.PersistsOK),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "counter_persists_failure_total",
			Help: "Number of snapshot persists that failed.",
		}, f.PersistsFailed),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "counter_store_dirty",
			Help: "1 when the rotating counter store has mutations not yet persisted.",
		}, f.Dirty),
	)
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
