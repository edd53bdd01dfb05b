// ABOUTME: Huma API server configuration and setup
// ABOUTME: Provides OpenAPI documentation, middleware and the metrics endpoint

package api

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"linkparse-api/api/middleware"
	"linkparse-api/core/interfaces"
	"linkparse-api/pkg/featureflags"
)

const (
	Title   = "Link Parse API"
	Version = "1.0.0"
)

// APIConfig holds configuration for the API
type APIConfig struct {
	Logger     interfaces.Logger
	RateLimit  int           // requests per window
	RateWindow time.Duration // rate limit window

	// APIKeys gate every operation except health, docs and metrics. Empty disables auth.
	APIKeys []string

	// Flags is stored in every request context
	Flags featureflags.Manager

	// Metrics serves GET /metrics when set
	Metrics http.Handler
}

func newRouter() chi.Router {
	router := chi.NewRouter()

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	return router
}

func newHumaConfig() huma.Config {
	config := huma.DefaultConfig(Title, Version)
	config.Info.Description = "Turns arbitrary links into structured, sanitized content or a webview fallback"
	return config
}

// NewAPI creates and configures a new Huma API instance
func NewAPI() (huma.API, chi.Router) {
	router := newRouter()

	// The OpenAPI spec is automatically available at /openapi.json
	// The Swagger UI is automatically available at /docs
	api := humachi.New(router, newHumaConfig())

	return api, router
}

// NewAPIWithMiddleware creates a new API with middleware configured
func NewAPIWithMiddleware(cfg APIConfig) (huma.API, chi.Router) {
	if cfg.Logger == nil {
		cfg.Logger = interfaces.NopLogger{}
	}
	if cfg.Flags == nil {
		cfg.Flags = featureflags.NewStaticManager(featureflags.Defaults)
	}

	router := newRouter()
	router.Use(middleware.RequestLoggingMiddleware(cfg.Logger))
	router.Use(middleware.FeatureFlagMiddleware(cfg.Flags))

	if cfg.RateLimit > 0 && cfg.RateWindow > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
		router.Use(middleware.RateLimitMiddleware(limiter, func(r *http.Request) bool {
			return featureflags.IsEnabled(r.Context(), featureflags.RateLimitEnabled)
		}))
	}

	router.Use(middleware.APIKeyMiddleware(cfg.APIKeys, cfg.Logger))

	if cfg.Metrics != nil {
		metrics := cfg.Metrics
		router.Handle("/metrics", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !featureflags.IsEnabled(r.Context(), featureflags.MetricsEnabled) {
				http.NotFound(w, r)
				return
			}
			metrics.ServeHTTP(w, r)
		}))
	}

	api := humachi.New(router, newHumaConfig())

	return api, router
}
