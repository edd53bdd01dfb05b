// ABOUTME: Metrics contract for the parse pipeline
// ABOUTME: Lets core packages record counters without importing a metrics backend

package interfaces

import "time"

// Metrics records pipeline events
type Metrics interface {
	// StrategyExecuted counts one run of the named strategy
	StrategyExecuted(strategy string, kind string)

	// UpstreamFetch counts one network attempt against domain with its outcome
	UpstreamFetch(domain string, outcome string, elapsed time.Duration)

	// CacheLookup counts a cache lookup by outcome (hit, stale, miss)
	CacheLookup(outcome string)

	// ParseCompleted counts a finished parse by type and fallback reason
	ParseCompleted(contentType string, reason string)

	// Revalidation counts a self-heal outcome (replaced, kept, failed, dropped)
	Revalidation(outcome string)
}

// NopMetrics discards all measurements
type NopMetrics struct{}

func (NopMetrics) StrategyExecuted(string, string) {}

func (NopMetrics) UpstreamFetch(string, string, time.Duration) {}

func (NopMetrics) CacheLookup(string) {}

func (NopMetrics) ParseCompleted(string, string) {}

func (NopMetrics) Revalidation(string) {}
