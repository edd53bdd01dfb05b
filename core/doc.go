// Package core contains the business logic for the Link Parse API.
// It is framework-agnostic and is used by both the HTTP server and the
// embeddable linkparse library.
//
// The core package is organized into several sub-packages:
//
// - domain: parse requests, results, cache entries and strategy descriptors
// - normalize: canonical URL form and cache key
// - ssrf: destination policy for every hop
// - throttle: per-domain concurrency and request rate
// - strategy: strategy registry, selector and extraction strategies
// - sanitize: HTML allow-list, link absolutisation and size caps
// - quality: confidence scoring and the webview gate
// - parser: the pipeline, request dedup, leases and self-healing
// - workers: bounded background revalidation pool
// - errors: typed errors
// - interfaces: contracts for cache, fetcher, logger and metrics
//
// # Usage Example
//
//	deps := interfaces.Dependencies{
//	    Cache:   memory.NewMemoryCache(),
//	    Fetcher: fetcher,
//	    Logger:  logger,
//	}
//
//	guard := ssrf.New()
//	registry := strategy.NewDefaultRegistry(fetcher, strategy.Options{Trafilatura: true})
//	service := parser.NewService(deps, registry, guard, parser.DefaultConfig())
//	defer service.Close()
//
//	result, err := service.Parse(ctx, domain.ParseRequest{URL: "https://example.com/post"})
package core
