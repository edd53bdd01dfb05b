// ABOUTME: Configuration management for the application with environment variable support
// ABOUTME: Defines server, cache, fetch, throttling, logging and self-heal settings

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server contains HTTP server configuration
	Server ServerConfig

	// Cache contains cache configuration
	Cache CacheConfig

	// Fetch contains upstream fetch limits
	Fetch FetchConfig

	// Domain contains per-domain throttling
	Domain DomainConfig

	// Log contains logging configuration
	Log LogConfig

	// SelfHeal contains background revalidation settings
	SelfHeal SelfHealConfig

	// Strategy contains strategy overrides loaded from STRATEGY_FILE
	Strategy StrategyConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	// Port is the HTTP server port
	Port string

	// RateLimit is the number of requests allowed per client per RateWindow
	RateLimit int

	// RateWindow is the inbound rate limit window
	RateWindow time.Duration

	// APIKeys are the accepted bearer tokens. Empty disables auth.
	APIKeys []string

	// RequestBudget bounds a whole parse request
	RequestBudget time.Duration

	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration
}

// CacheConfig holds cache backend configuration
type CacheConfig struct {
	// Type specifies the cache backend (memory/redis/sqlite)
	Type string

	// Redis contains Redis-specific configuration
	Redis RedisConfig

	// SQLite contains SQLite-specific configuration
	SQLite SQLiteConfig

	// TTL holds the entry lifetimes by outcome
	TTL TTLConfig
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	// Address is the Redis server address
	Address string

	// Password is the Redis authentication password
	Password string

	// DB is the Redis database number
	DB int
}

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	// Path is the database file
	Path string
}

// TTLConfig holds cache lifetimes
type TTLConfig struct {
	Success    time.Duration
	Webview    time.Duration
	FetchError time.Duration
}

// FetchConfig holds upstream fetch limits
type FetchConfig struct {
	AttemptTimeout time.Duration
	Budget         time.Duration
	MaxBodyBytes   int64
	MaxRedirects   int
	MaxRetries     int
}

// DomainConfig holds per-domain throttling
type DomainConfig struct {
	Concurrency int
	QueueDepth  int
	RPS         float64
}

// LogConfig holds logging configuration
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string

	// Format is json or text
	Format string

	// File, when set, receives logs with rotation
	File string
}

// SelfHealConfig holds background revalidation settings
type SelfHealConfig struct {
	// HighConfidence is the score at or above which cached entries are served as-is
	HighConfidence float64

	// MinInterval is the minimum time between revalidations of one entry
	MinInterval time.Duration

	// Workers is the number of revalidation workers
	Workers int

	// QueueSize bounds pending revalidations
	QueueSize int
}

// StrategyConfig holds strategy overrides
type StrategyConfig struct {
	// File is the YAML file the overrides were read from
	File string `yaml:"-"`

	// SPADomains are extra hosts to short-circuit to the webview
	SPADomains []string `yaml:"spa_domains"`

	// UserAgents maps a domain to a user agent tier (default, browser, crawler)
	UserAgents map[string]string `yaml:"user_agents"`
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("PORT", "8000"),
			RateLimit:       getEnvAsIntOrDefault("RATE_LIMIT", 60),
			RateWindow:      getEnvAsDurationOrDefault("RATE_WINDOW", time.Minute),
			APIKeys:         getEnvAsListOrDefault("API_KEYS", nil),
			RequestBudget:   getEnvAsDurationOrDefault("REQUEST_BUDGET", 25*time.Second),
			ShutdownTimeout: getEnvAsDurationOrDefault("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Cache: CacheConfig{
			Type: getEnvOrDefault("CACHE_TYPE", "memory"),
			Redis: RedisConfig{
				Address:  getEnvOrDefault("REDIS_ADDRESS", "localhost:6379"),
				Password: getEnvOrDefault("REDIS_PASSWORD", ""),
				DB:       getEnvAsIntOrDefault("REDIS_DB", 0),
			},
			SQLite: SQLiteConfig{
				Path: getEnvOrDefault("SQLITE_PATH", "linkparse.db"),
			},
			TTL: TTLConfig{
				Success:    getEnvAsDurationOrDefault("CACHE_TTL_SUCCESS", 24*time.Hour),
				Webview:    getEnvAsDurationOrDefault("CACHE_TTL_WEBVIEW", time.Hour),
				FetchError: getEnvAsDurationOrDefault("CACHE_TTL_FETCH_ERROR", 10*time.Minute),
			},
		},
		Fetch: FetchConfig{
			AttemptTimeout: getEnvAsDurationOrDefault("FETCH_ATTEMPT_TIMEOUT", 8*time.Second),
			Budget:         getEnvAsDurationOrDefault("FETCH_BUDGET", 20*time.Second),
			MaxBodyBytes:   int64(getEnvAsIntOrDefault("MAX_BODY_BYTES", 5<<20)),
			MaxRedirects:   getEnvAsIntOrDefault("MAX_REDIRECTS", 5),
			MaxRetries:     getEnvAsIntOrDefault("FETCH_MAX_RETRIES", 2),
		},
		Domain: DomainConfig{
			Concurrency: getEnvAsIntOrDefault("DOMAIN_CONCURRENCY", 4),
			QueueDepth:  getEnvAsIntOrDefault("DOMAIN_QUEUE_DEPTH", 32),
			RPS:         getEnvAsFloatOrDefault("DOMAIN_RPS", 5),
		},
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
			File:   getEnvOrDefault("LOG_FILE", ""),
		},
		SelfHeal: SelfHealConfig{
			HighConfidence: getEnvAsFloatOrDefault("SELF_HEAL_HIGH_CONFIDENCE", 0.7),
			MinInterval:    getEnvAsDurationOrDefault("SELF_HEAL_MIN_INTERVAL", 10*time.Minute),
			Workers:        getEnvAsIntOrDefault("REVALIDATION_WORKERS", 2),
			QueueSize:      getEnvAsIntOrDefault("SELF_HEAL_QUEUE_SIZE", 100),
		},
	}

	if path := os.Getenv("STRATEGY_FILE"); path != "" {
		strategy, err := LoadStrategyFile(path)
		if err != nil {
			return nil, err
		}
		cfg.Strategy = *strategy
	}

	return cfg, nil
}

// LoadStrategyFile reads strategy overrides from a YAML file
func LoadStrategyFile(path string) (*StrategyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read strategy file: %w", err)
	}

	var sc StrategyConfig
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse strategy file %s: %w", path, err)
	}
	sc.File = path
	return &sc, nil
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault returns the environment variable as int or a default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvAsDurationOrDefault accepts Go durations ("30s") or whole seconds ("30")
func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvAsListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("port cannot be empty")
	}

	if c.Server.RateLimit < 1 || c.Server.RateWindow <= 0 {
		return errors.New("rate limit and window must be positive")
	}

	if c.Server.RequestBudget <= 0 {
		return errors.New("request budget must be positive")
	}

	switch c.Cache.Type {
	case "memory", "redis", "sqlite":
	default:
		return errors.New("cache type must be 'memory', 'redis' or 'sqlite'")
	}

	if c.Cache.Type == "redis" && c.Cache.Redis.Address == "" {
		return errors.New("redis address cannot be empty when using redis cache")
	}

	if c.Cache.Type == "sqlite" && c.Cache.SQLite.Path == "" {
		return errors.New("sqlite path cannot be empty when using sqlite cache")
	}

	if c.Fetch.AttemptTimeout <= 0 || c.Fetch.Budget < c.Fetch.AttemptTimeout {
		return errors.New("fetch budget must be at least one attempt timeout")
	}

	if c.Fetch.MaxBodyBytes < 1024 {
		return errors.New("max body bytes must be at least 1024")
	}

	if c.Fetch.MaxRedirects < 0 || c.Fetch.MaxRetries < 0 {
		return errors.New("max redirects and retries cannot be negative")
	}

	if c.Domain.Concurrency < 1 || c.Domain.QueueDepth < 0 || c.Domain.RPS <= 0 {
		return errors.New("domain concurrency and rps must be positive")
	}

	if c.SelfHeal.HighConfidence <= 0 || c.SelfHeal.HighConfidence > 1 {
		return errors.New("self-heal high confidence must be in (0, 1]")
	}

	if c.SelfHeal.Workers < 1 || c.SelfHeal.QueueSize < 1 {
		return errors.New("revalidation workers and queue size must be positive")
	}

	for domain, tier := range c.Strategy.UserAgents {
		switch tier {
		case "default", "browser", "crawler":
		default:
			return fmt.Errorf("unknown user agent tier %q for %s", tier, domain)
		}
	}

	return nil
}
