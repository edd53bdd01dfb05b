// ABOUTME: In-memory cache implementation backed by patrickmn/go-cache
// ABOUTME: Supports TTLs, periodic cleanup and Add-based leases for a single instance

package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"linkparse-api/core/interfaces"
)

// DefaultCleanupInterval is how often expired items are purged
const DefaultCleanupInterval = 10 * time.Minute

// MemoryCache implements interfaces.LeaseCache in process memory
type MemoryCache struct {
	items *gocache.Cache
}

// NewMemoryCache creates a new in-memory cache instance
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithCleanup(DefaultCleanupInterval)
}

// NewMemoryCacheWithCleanup creates a cache that purges expired items every interval
func NewMemoryCacheWithCleanup(interval time.Duration) *MemoryCache {
	return &MemoryCache{items: gocache.New(gocache.NoExpiration, interval)}
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value, ok := c.items.Get(key)
	if !ok {
		return nil, interfaces.ErrCacheMiss
	}
	stored, ok := value.([]byte)
	if !ok {
		return nil, interfaces.ErrCacheMiss
	}

	// Return a copy of the value
	result := make([]byte, len(stored))
	copy(result, stored)
	return result, nil
}

// Set stores a value in the cache with the given TTL. A zero TTL never expires.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	c.items.Set(key, valueCopy, expiration(ttl))
	return nil
}

// Delete removes a key from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.items.Delete(key)
	return nil
}

// AcquireLease claims key for ttl unless an unexpired lease exists
func (c *MemoryCache) AcquireLease(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return c.items.Add(key, []byte{1}, expiration(ttl)) == nil, nil
}

// ReleaseLease drops the lease for key
func (c *MemoryCache) ReleaseLease(ctx context.Context, key string) error {
	return c.Delete(ctx, key)
}

// Len returns the number of stored items, including expired ones not yet purged
func (c *MemoryCache) Len() int {
	return c.items.ItemCount()
}

// Flush removes every item
func (c *MemoryCache) Flush() {
	c.items.Flush()
}

func expiration(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return gocache.NoExpiration
	}
	return ttl
}
