// Package metrics defines the Prometheus collectors of the cursor engine and
// the HTTP API, and exposes a scrape handler.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer: every recording method is a no-op.
type Metrics struct {
	ReadsTotal             *prometheus.CounterVec
	EntriesTotal           *prometheus.CounterVec
	ConflictRestartsTotal  *prometheus.CounterVec
	ConflictExhaustedTotal *prometheus.CounterVec
	FindsTotal             *prometheus.CounterVec
	FallbacksTotal         *prometheus.CounterVec
	HTTPRequestsTotal      *prometheus.CounterVec
	HTTPRequestDuration    *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg when it is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ReadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cursor_reads_total",
				Help: "Underlying read calls issued against a collection, by operation.",
			},
			[]string{"operation"},
		),
		EntriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cursor_entries_total",
				Help: "Entries delivered to callers, by operation.",
			},
			[]string{"operation"},
		),
		ConflictRestartsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cursor_conflict_restarts_total",
				Help: "Operations restarted after a structural change of the index.",
			},
			[]string{"operation"},
		),
		ConflictExhaustedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cursor_conflict_exhausted_total",
				Help: "Operations abandoned after too many conflict restarts.",
			},
			[]string{"operation"},
		),
		FindsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cursor_finds_total",
				Help: "Key positioning calls by outcome (found, not_found, error).",
			},
			[]string{"outcome"},
		),
		FallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cursor_lookup_fallbacks_total",
				Help: "Key lookups served by the two step path, by reason.",
			},
			[]string{"reason"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method and status.",
			},
			[]string{"method", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.ReadsTotal,
			m.EntriesTotal,
			m.ConflictRestartsTotal,
			m.ConflictExhaustedTotal,
			m.FindsTotal,
			m.FallbacksTotal,
			m.HTTPRequestsTotal,
			m.HTTPRequestDuration,
		)
	}

	return m
}

func (m *Metrics) Read(operation string) {
	if m == nil {
		return
	}
	m.ReadsTotal.WithLabelValues(operation).Inc()
}

func (m *Metrics) Entries(operation string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.EntriesTotal.WithLabelValues(operation).Add(float64(n))
}

func (m *Metrics) ConflictRestart(operation string) {
	if m == nil {
		return
	}
	m.ConflictRestartsTotal.WithLabelValues(operation).Inc()
}

func (m *Metrics) ConflictExhausted(operation string) {
	if m == nil {
		return
	}
	m.ConflictExhaustedTotal.WithLabelValues(operation).Inc()
}

func (m *Metrics) Find(outcome string) {
	if m == nil {
		return
	}
	m.FindsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Fallback(reason string) {
	if m == nil {
		return
	}
	m.FallbacksTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) Request(method string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method).Observe(seconds)
}

// Handler returns the scrape handler for the given gatherer. It never
// compresses: that is left to the api Compression interceptor.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{DisableCompression: true})
}
