// ABOUTME: Default implementations for library dependencies
// ABOUTME: Provides factory functions for caches and loggers

package linkparse

import (
	"linkparse-api/core/interfaces"
	"linkparse-api/infrastructure/cache/memory"
	"linkparse-api/infrastructure/cache/redis"
	"linkparse-api/infrastructure/cache/sqlite"
	"linkparse-api/infrastructure/logger/structured"
	"linkparse-api/pkg/config"
)

// DefaultMemoryCache creates a default in-memory cache
func DefaultMemoryCache() interfaces.LeaseCache {
	return memory.NewMemoryCache()
}

// DefaultSQLiteCache creates a SQLite cache at filePath
func DefaultSQLiteCache(filePath string) (*sqlite.Client, error) {
	return sqlite.NewSQLiteCache(filePath)
}

// DefaultLogger creates a text logger on stdout at the given level
func DefaultLogger(level string) (interfaces.Logger, error) {
	return structured.New(structured.Config{Level: level, Format: "text"})
}

// QuietLogger creates a logger that discards all output
func QuietLogger() interfaces.Logger {
	return interfaces.NopLogger{}
}

// CacheOption represents cache configuration options
type CacheOption struct {
	Type CacheType

	// FilePath is the SQLite database file
	FilePath string

	// Redis addresses the Redis server
	Redis config.RedisConfig
}

// CacheType represents the type of cache
type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeSQLite CacheType = "sqlite"
	CacheTypeRedis  CacheType = "redis"
)

// WithCacheOption creates a cache based on the provided options.
// The client closes caches it created.
func WithCacheOption(opt CacheOption) Option {
	return func(c *Config) error {
		switch opt.Type {
		case CacheTypeMemory:
			c.Cache = DefaultMemoryCache()
		case CacheTypeSQLite:
			if opt.FilePath == "" {
				opt.FilePath = "linkparse.db"
			}
			cache, err := DefaultSQLiteCache(opt.FilePath)
			if err != nil {
				return NewError(ErrorTypeConfiguration, "open sqlite cache").WithCause(err)
			}
			c.Cache = cache
			c.closers = append(c.closers, cache.Close)
		case CacheTypeRedis:
			cache, err := redis.NewRedisCache(opt.Redis)
			if err != nil {
				return NewError(ErrorTypeConfiguration, "connect redis cache").WithCause(err)
			}
			c.Cache = cache
			c.closers = append(c.closers, cache.Close)
		default:
			return NewError(ErrorTypeConfiguration, "invalid cache type").
				WithContext("type", string(opt.Type))
		}
		return nil
	}
}

// WithQuietMode configures the client to suppress all log output
func WithQuietMode() Option {
	return func(c *Config) error {
		c.Logger = QuietLogger()
		return nil
	}
}
