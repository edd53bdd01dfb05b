// Package api provides the HTTP API layer for the Link Parse service.
// It uses the Huma framework to provide automatic OpenAPI documentation,
// request/response validation, and a clean handler interface.
//
// # Architecture
//
// The API package is structured as follows:
//
// - server.go: Huma API configuration and middleware chain
// - handlers/: HTTP request handlers (parse, cache invalidation, health)
// - dto/: Data Transfer Objects for requests and responses
// - middleware/: request ids, rate limiting, API keys, feature flags
//
// # Key Features
//
// 1. Automatic OpenAPI Generation
//
// - JSON spec available at /openapi.json
// - Interactive Swagger UI at /docs
//
// 2. Request Validation
//
//	type ParseRequest struct {
//	    URL       string `json:"url" required:"false" maxLength:"4096"`
//	    SkipCache bool   `json:"skip_cache,omitempty"`
//	}
//
// 3. Middleware
//
// - Request logging with X-Request-ID propagation
// - Rate limiting per client IP, switchable with FEATURE_RATE_LIMIT
// - Bearer API keys, disabled when none are configured
// - Prometheus exposition at /metrics
//
// # Usage Example
//
//	humaAPI, router := api.NewAPIWithMiddleware(api.APIConfig{
//	    Logger:     logger,
//	    RateLimit:  60,
//	    RateWindow: time.Minute,
//	    APIKeys:    []string{"secret"},
//	})
//
//	handlers.NewParseHandler(parseService, logger).RegisterRoutes(humaAPI)
//	http.ListenAndServe(":8000", router)
//
// # Error Handling
//
// Parse failures keep the client contract instead of RFC 7807 bodies:
//
//	{
//	    "success": false,
//	    "error": "url could not be fetched",
//	    "type": "webview",
//	    "fallback_reason": "fetch-error"
//	}
//
// Domain errors map to 400, 422, 503 (with Retry-After) and 504.
package api
