// Package interfaces defines the core interfaces used throughout the application.
// These interfaces allow for dependency injection and make the code testable.
package interfaces

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Cache.Get when the key is absent or expired
var ErrCacheMiss = errors.New("key not found")

// Cache defines the interface for cache operations.
// Implementations can be Redis, SQLite, in-memory, or any other caching solution.
//
// Example usage:
//
//	// Store a parse entry
//	err := cache.Set(ctx, "parse:"+url.Key(), entryJSON, 24*time.Hour)
//
//	// Retrieve it
//	data, err := cache.Get(ctx, "parse:"+url.Key())
//	if errors.Is(err, interfaces.ErrCacheMiss) {
//		// not cached
//	}
type Cache interface {
	// Get retrieves a value from the cache by key.
	// Returns ErrCacheMiss if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with the given key and TTL.
	// If ttl is 0, the value should be stored indefinitely.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache by key.
	// Returns nil if the key doesn't exist.
	Delete(ctx context.Context, key string) error
}

// LeaseCache is a Cache that can also hand out short-lived exclusive leases.
// A lease marks a key as "being computed" so that concurrent callers, possibly
// on other instances, wait for the result instead of duplicating the work.
type LeaseCache interface {
	Cache

	// AcquireLease claims the lease for key if nobody holds it.
	// Returns true when the caller now owns the lease. The lease expires
	// on its own after ttl so a crashed holder never blocks the key forever.
	AcquireLease(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// ReleaseLease drops the lease for key. Releasing an absent lease is not an error.
	ReleaseLease(ctx context.Context, key string) error
}
