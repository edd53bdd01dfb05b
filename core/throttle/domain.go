// ABOUTME: Per-domain concurrency and rate limiting for upstream fetches
// ABOUTME: Queues up to a bound per domain and fails fast with Overloaded beyond it

package throttle

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"linkparse-api/core/errors"
)

const pruneThreshold = 4096

// Config holds the per-domain limits
type Config struct {
	// Concurrency is the number of in-flight fetches allowed per domain
	Concurrency int

	// QueueDepth is the number of callers allowed to wait for a slot per domain
	QueueDepth int

	// RPS is the sustained request rate per domain. Zero disables rate limiting.
	RPS float64

	// Burst is the token bucket size for RPS
	Burst int

	// RetryAfter is the hint returned with OverloadedError
	RetryAfter time.Duration
}

// DefaultConfig returns the default per-domain limits
func DefaultConfig() Config {
	return Config{
		Concurrency: 4,
		QueueDepth:  32,
		RPS:         5,
		Burst:       5,
		RetryAfter:  2 * time.Second,
	}
}

// DomainThrottle hands out per-domain fetch slots.
// Each domain gets its own semaphore and token bucket so a slow or hostile
// domain cannot starve others.
type DomainThrottle struct {
	cfg     Config
	mu      sync.Mutex
	domains map[string]*domainSlot
}

type domainSlot struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	waiting int64
	active  int64
}

// NewDomainThrottle creates a throttle, filling zero fields from DefaultConfig
func NewDomainThrottle(cfg Config) *DomainThrottle {
	def := DefaultConfig()
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.QueueDepth < 0 {
		cfg.QueueDepth = def.QueueDepth
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.RetryAfter <= 0 {
		cfg.RetryAfter = def.RetryAfter
	}
	return &DomainThrottle{
		cfg:     cfg,
		domains: make(map[string]*domainSlot),
	}
}

// Acquire blocks until a slot for domain is free and the rate allows a request.
// It returns OverloadedError immediately when the wait queue for domain is full,
// and the context error if ctx ends while waiting. The returned release func
// must be called exactly once.
func (t *DomainThrottle) Acquire(ctx context.Context, domain string) (func(), error) {
	slot := t.claim(domain)

	if !slot.sem.TryAcquire(1) {
		if atomic.AddInt64(&slot.waiting, 1) > int64(t.cfg.QueueDepth) {
			atomic.AddInt64(&slot.waiting, -1)
			atomic.AddInt64(&slot.active, -1)
			return nil, &errors.OverloadedError{Domain: domain, RetryAfter: t.cfg.RetryAfter}
		}
		err := slot.sem.Acquire(ctx, 1)
		atomic.AddInt64(&slot.waiting, -1)
		if err != nil {
			atomic.AddInt64(&slot.active, -1)
			return nil, err
		}
	}

	if slot.limiter != nil {
		if err := slot.limiter.Wait(ctx); err != nil {
			slot.sem.Release(1)
			atomic.AddInt64(&slot.active, -1)
			return nil, err
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			slot.sem.Release(1)
			atomic.AddInt64(&slot.active, -1)
		})
	}, nil
}

// Waiting returns the number of callers queued for domain
func (t *DomainThrottle) Waiting(domain string) int {
	t.mu.Lock()
	slot, ok := t.domains[domain]
	t.mu.Unlock()
	if !ok {
		return 0
	}
	return int(atomic.LoadInt64(&slot.waiting))
}

// claim returns the slot for domain with active already counted, so prune
// cannot drop it before the caller holds the semaphore
func (t *DomainThrottle) claim(domain string) *domainSlot {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot, ok := t.domains[domain]
	if !ok {
		if len(t.domains) >= pruneThreshold {
			t.prune()
		}
		slot = &domainSlot{sem: semaphore.NewWeighted(int64(t.cfg.Concurrency))}
		if t.cfg.RPS > 0 {
			slot.limiter = rate.NewLimiter(rate.Limit(t.cfg.RPS), t.cfg.Burst)
		}
		t.domains[domain] = slot
	}
	atomic.AddInt64(&slot.active, 1)
	return slot
}

// prune drops idle domains. Caller holds t.mu.
func (t *DomainThrottle) prune() {
	for domain, slot := range t.domains {
		if atomic.LoadInt64(&slot.active) == 0 {
			delete(t.domains, domain)
		}
	}
}
