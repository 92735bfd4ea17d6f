// Package metrics exposes Prometheus counters for classification requests
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/muliwe/go-fizzbuzz/internal/fizzbuzz"
)

// Config holds metrics configuration
type Config struct {
	Enabled   bool   // Serve /metrics
	Namespace string // Metric name prefix
	// Runtime adds Go runtime and process collectors to the registry
	Runtime bool
}

// DefaultConfig returns default metrics configuration
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		Namespace: "fizzbuzz",
		Runtime:   true,
	}
}

// Metrics owns a private registry so several servers can coexist in one process
type Metrics struct {
	registry *prometheus.Registry
	results  *prometheus.CounterVec
	invalid  prometheus.Counter
	latency  prometheus.Histogram
}

// New creates and registers the classification metrics
func New(cfg Config) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "classifications_total",
			Help:      "Number of classified numbers by FizzBuzz category",
		}, []string{"category"}),
		invalid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "invalid_requests_total",
			Help:      "Number of requests rejected because n was missing or not an integer",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "request_duration_seconds",
			Help:      "Time spent handling classification requests",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		}),
	}

	reg.MustRegister(m.results, m.invalid, m.latency)
	if cfg.Runtime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return m
}

// ObserveResult records a successful classification and how long it took
func (m *Metrics) ObserveResult(c fizzbuzz.Category, elapsed time.Duration) {
	m.results.WithLabelValues(string(c)).Inc()
	m.latency.Observe(elapsed.Seconds())
}

// ObserveInvalid records a rejected request
func (m *Metrics) ObserveInvalid() {
	m.invalid.Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
