// Package infrastructure provides concrete implementations of the interfaces
// defined in the core package.
//
// The infrastructure package is organized by technical concern:
//
// - cache/memory: in-process cache on patrickmn/go-cache
// - cache/redis: shared cache with SET NX leases
// - cache/sqlite: single-file cache with a lease table
// - http/standard: SSRF-guarded fetcher with retries, redirects and size caps
// - logger/structured: logrus logger with optional rotating file output
// - metrics: Prometheus counters and histograms
//
// # Cache Implementations
//
// Every backend stores opaque bytes with a TTL and supports leases:
//
//	cache := memory.NewMemoryCache()
//	ok, err := cache.AcquireLease(ctx, "lease:abc", 30*time.Second)
//	if ok {
//	    defer cache.ReleaseLease(ctx, "lease:abc")
//	}
//
// # Fetcher
//
//	fetcher := standard.NewFetcher(standard.DefaultConfig(), ssrf.New(),
//	    standard.WithThrottle(throttle.NewDomainThrottle(throttle.DefaultConfig())),
//	)
//	res, err := fetcher.Fetch(ctx, interfaces.FetchRequest{URL: "https://example.com/"})
//
// # Logger
//
//	logger, err := structured.New(structured.Config{Level: "info", Format: "json"})
//	logger.Info("Parse completed", map[string]interface{}{
//	    "domain":   "example.com",
//	    "strategy": "generic",
//	})
package infrastructure
