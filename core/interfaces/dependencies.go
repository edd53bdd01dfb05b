// ABOUTME: Dependencies container provides dependency injection for core services
// ABOUTME: Defines the contract for dependencies required by the core business logic

package interfaces

// Dependencies holds all external dependencies required by the core business logic
type Dependencies struct {
	// Cache stores parse entries and hands out dedup leases
	Cache LeaseCache

	// Fetcher retrieves upstream documents through the SSRF guard
	Fetcher Fetcher

	// Logger provides structured logging
	Logger Logger

	// Metrics records pipeline counters. Nil means NopMetrics.
	Metrics Metrics
}
