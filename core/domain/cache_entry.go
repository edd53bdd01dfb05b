// ABOUTME: Cache entry model persisted per normalized URL
// ABOUTME: Tracks creation, last validation and hit count for self-healing

package domain

import "time"

// CacheEntry is the persisted form of a parse result
type CacheEntry struct {
	Key             string      `json:"key"`
	Result          ParseResult `json:"result"`
	CreatedAt       time.Time   `json:"created_at"`
	LastValidatedAt time.Time   `json:"last_validated_at"`
	ExpiresAt       time.Time   `json:"expires_at"`
	HitCount        int64       `json:"hit_count"`
}

// TTL returns the remaining lifetime of the entry relative to now
func (e *CacheEntry) TTL(now time.Time) time.Duration {
	if e.ExpiresAt.IsZero() {
		return 0
	}
	return e.ExpiresAt.Sub(now)
}

// Expired reports whether the entry outlived its TTL
func (e *CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// DueForValidation reports whether enough time passed since the last validation
func (e *CacheEntry) DueForValidation(now time.Time, minInterval time.Duration) bool {
	return now.Sub(e.LastValidatedAt) >= minInterval
}
