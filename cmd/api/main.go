// ABOUTME: Main entry point for the Link Parse API server
// ABOUTME: Wires together all components and starts the HTTP server

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linkparse-api/api"
	"linkparse-api/api/handlers"
	"linkparse-api/core/interfaces"
	"linkparse-api/core/parser"
	"linkparse-api/core/ssrf"
	"linkparse-api/core/strategy"
	"linkparse-api/core/throttle"
	"linkparse-api/infrastructure/cache/memory"
	"linkparse-api/infrastructure/cache/redis"
	"linkparse-api/infrastructure/cache/sqlite"
	"linkparse-api/infrastructure/http/standard"
	"linkparse-api/infrastructure/logger/structured"
	"linkparse-api/infrastructure/metrics"
	"linkparse-api/pkg/config"
	"linkparse-api/pkg/featureflags"
)

func main() {
	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := structured.New(structured.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	logger.Info("Starting Link Parse API", map[string]interface{}{
		"port":           cfg.Server.Port,
		"cache_type":     cfg.Cache.Type,
		"request_budget": cfg.Server.RequestBudget.String(),
		"strategy_file":  cfg.Strategy.File,
	})

	flags := featureflags.NewEnvManager("FEATURE_")
	prom := metrics.NewPrometheus()

	cache, closeCache := newCache(cfg, logger)
	defer closeCache()

	guard := ssrf.New()

	throttleCfg := throttle.DefaultConfig()
	throttleCfg.Concurrency = cfg.Domain.Concurrency
	throttleCfg.QueueDepth = cfg.Domain.QueueDepth
	throttleCfg.RPS = cfg.Domain.RPS

	agents := standard.NewUserAgentTable()
	for host, tier := range cfg.Strategy.UserAgents {
		agents.Assign(host, tier)
	}

	fetchCfg := standard.DefaultConfig()
	fetchCfg.AttemptTimeout = cfg.Fetch.AttemptTimeout
	fetchCfg.Budget = cfg.Fetch.Budget
	fetchCfg.MaxBodyBytes = cfg.Fetch.MaxBodyBytes
	fetchCfg.MaxRedirects = cfg.Fetch.MaxRedirects
	fetchCfg.MaxRetries = uint64(cfg.Fetch.MaxRetries)

	fetcher := standard.NewFetcher(fetchCfg, guard,
		standard.WithThrottle(throttle.NewDomainThrottle(throttleCfg)),
		standard.WithUserAgents(agents),
		standard.WithLogger(logger),
		standard.WithMetrics(prom),
	)

	ctx := context.Background()
	registry := strategy.NewDefaultRegistry(fetcher, strategy.Options{
		Trafilatura:     flags.IsEnabled(ctx, featureflags.TrafilaturaFallback),
		ExtraSPADomains: cfg.Strategy.SPADomains,
	})
	logger.Info("Strategies registered", map[string]interface{}{
		"count": registry.Len(),
	})

	parserCfg := parser.DefaultConfig()
	parserCfg.RequestBudget = cfg.Server.RequestBudget
	parserCfg.HighConfidence = cfg.SelfHeal.HighConfidence
	parserCfg.MinRevalidateInterval = cfg.SelfHeal.MinInterval
	parserCfg.TTL = parser.TTLs{
		Success:    cfg.Cache.TTL.Success,
		Webview:    cfg.Cache.TTL.Webview,
		FetchError: cfg.Cache.TTL.FetchError,
	}
	parserCfg.Workers.MaxWorkers = cfg.SelfHeal.Workers
	parserCfg.Workers.QueueSize = cfg.SelfHeal.QueueSize

	deps := interfaces.Dependencies{
		Cache:   cache,
		Fetcher: fetcher,
		Logger:  logger,
		Metrics: prom,
	}
	parseService := parser.NewService(deps, registry, guard, parserCfg)
	defer parseService.Close()

	// Create API with middleware
	humaAPI, router := api.NewAPIWithMiddleware(api.APIConfig{
		Logger:     logger,
		RateLimit:  cfg.Server.RateLimit,
		RateWindow: cfg.Server.RateWindow,
		APIKeys:    cfg.Server.APIKeys,
		Flags:      flags,
		Metrics:    prom.Handler(),
	})

	// Create and register handlers
	handlers.NewParseHandler(parseService, logger).RegisterRoutes(humaAPI)
	handlers.NewHealthHandler(api.Version, registry.Len).RegisterRoutes(humaAPI)

	// Write timeout leaves headroom over the parse budget for encoding the response
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Server.RequestBudget + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("HTTP server starting", map[string]interface{}{
			"address": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", map[string]interface{}{
				"error": err.Error(),
			})
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	}

	logger.Info("Server stopped", nil)
}

// newCache builds the configured backend. Redis and SQLite failures fall back
// to memory so the service still answers, without cross-instance dedup.
func newCache(cfg *config.Config, logger interfaces.Logger) (interfaces.LeaseCache, func()) {
	nop := func() {}

	switch cfg.Cache.Type {
	case "redis":
		redisCache, err := redis.NewRedisCache(cfg.Cache.Redis)
		if err != nil {
			logger.Error("Failed to create Redis cache, falling back to memory", map[string]interface{}{
				"error": err.Error(),
			})
			return memory.NewMemoryCache(), nop
		}
		logger.Info("Using Redis cache", map[string]interface{}{
			"address": cfg.Cache.Redis.Address,
		})
		return redisCache, func() { _ = redisCache.Close() }

	case "sqlite":
		sqliteCache, err := sqlite.NewSQLiteCache(cfg.Cache.SQLite.Path, sqlite.WithLogger(logger))
		if err != nil {
			logger.Error("Failed to create SQLite cache, falling back to memory", map[string]interface{}{
				"error": err.Error(),
				"path":  cfg.Cache.SQLite.Path,
			})
			return memory.NewMemoryCache(), nop
		}
		logger.Info("Using SQLite cache", map[string]interface{}{
			"path": cfg.Cache.SQLite.Path,
		})
		return sqliteCache, func() { _ = sqliteCache.Close() }
	}

	logger.Info("Using memory cache", nil)
	return memory.NewMemoryCache(), nop
}

func init() {
	// Print banner
	fmt.Println(`
    __    _       __      ____                         ___    ____  ____
   / /   (_)___  / /__   / __ \____ ______________    /   |  / __ \/  _/
  / /   / / __ \/ //_/  / /_/ / __ '/ ___/ ___/ _ \  / /| | / /_/ // /
 / /___/ / / / / ,<    / ____/ /_/ / /  (__  )  __/ / ___ |/ ____// /
/_____/_/_/ /_/_/|_|  /_/    \__,_/_/  /____/\___/ /_/  |_/_/   /___/
	`)
}
