// ABOUTME: Prometheus implementation of the pipeline metrics
// ABOUTME: Each instance owns its registry so tests and embedded clients stay isolated

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "linkparse"

// Prometheus implements interfaces.Metrics
type Prometheus struct {
	registry *prometheus.Registry

	strategies    *prometheus.CounterVec
	fetches       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
	parses        *prometheus.CounterVec
	revalidations *prometheus.CounterVec
}

// NewPrometheus creates the collectors on a fresh registry
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		strategies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "strategy_executions_total",
			Help:      "Extraction strategy runs by strategy and kind.",
		}, []string{"strategy", "kind"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_fetches_total",
			Help:      "Upstream fetch attempts by domain and outcome.",
		}, []string{"domain", "outcome"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_fetch_seconds",
			Help:      "Upstream fetch attempt latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		}, []string{"outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Parse cache lookups by outcome.",
		}, []string{"outcome"}),
		parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parses_total",
			Help:      "Completed parses by content type and fallback reason.",
		}, []string{"type", "reason"}),
		revalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revalidations_total",
			Help:      "Self-heal revalidations by outcome.",
		}, []string{"outcome"}),
	}

	p.registry.MustRegister(
		p.strategies,
		p.fetches,
		p.fetchDuration,
		p.cacheLookups,
		p.parses,
		p.revalidations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

func (p *Prometheus) StrategyExecuted(strategy string, kind string) {
	p.strategies.WithLabelValues(strategy, kind).Inc()
}

// UpstreamFetch records one attempt. Domains are unbounded, so latency is only split by outcome.
func (p *Prometheus) UpstreamFetch(domain string, outcome string, elapsed time.Duration) {
	p.fetches.WithLabelValues(domain, outcome).Inc()
	p.fetchDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (p *Prometheus) CacheLookup(outcome string) {
	p.cacheLookups.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) ParseCompleted(contentType string, reason string) {
	if reason == "" {
		reason = "none"
	}
	p.parses.WithLabelValues(contentType, reason).Inc()
}

func (p *Prometheus) Revalidation(outcome string) {
	p.revalidations.WithLabelValues(outcome).Inc()
}

// Registry exposes the underlying registry
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the exposition format
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// StrategyCount returns the counter for a strategy and kind
func (p *Prometheus) StrategyCount(strategy, kind string) prometheus.Counter {
	return p.strategies.WithLabelValues(strategy, kind)
}

// CacheLookupCount returns the counter for a cache lookup outcome
func (p *Prometheus) CacheLookupCount(outcome string) prometheus.Counter {
	return p.cacheLookups.WithLabelValues(outcome)
}
