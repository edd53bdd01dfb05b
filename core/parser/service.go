// ABOUTME: Parse service orchestrating normalization, caching, dedup and the extraction pipeline
// ABOUTME: Serves stale low-confidence entries while revalidating them in the background

package parser

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/url"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"linkparse-api/core/domain"
	"linkparse-api/core/errors"
	"linkparse-api/core/interfaces"
	"linkparse-api/core/normalize"
	"linkparse-api/core/quality"
	"linkparse-api/core/sanitize"
	"linkparse-api/core/strategy"
	"linkparse-api/core/workers"
	"linkparse-api/pkg/featureflags"
)

const (
	entryPrefix = "parse:"
	leasePrefix = "lease:"
)

// URLChecker vets a URL before any work is done for it
type URLChecker interface {
	CheckURL(ctx context.Context, u *url.URL) error
}

// TTLs are cache lifetimes by outcome
type TTLs struct {
	Success    time.Duration
	Webview    time.Duration
	FetchError time.Duration
}

// longest bounds how long anything about an entry is worth remembering
func (t TTLs) longest() time.Duration {
	d := max(t.Success, t.Webview, t.FetchError)
	if d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// Config tunes the service
type Config struct {
	// RequestBudget bounds the shared work for one URL
	RequestBudget time.Duration

	// HighConfidence is the score at or above which cached entries are final
	HighConfidence float64

	// MinRevalidateInterval spaces out revalidations of one entry
	MinRevalidateInterval time.Duration

	// LeaseTTL is how long a crashed lease holder can block a key
	LeaseTTL time.Duration

	// LeasePoll is how often waiters check for the lease holder's result
	LeasePoll time.Duration

	TTL     TTLs
	Workers workers.WorkerConfig
}

// DefaultConfig returns production defaults
func DefaultConfig() Config {
	return Config{
		RequestBudget:         25 * time.Second,
		HighConfidence:        0.7,
		MinRevalidateInterval: 10 * time.Minute,
		LeaseTTL:              30 * time.Second,
		LeasePoll:             100 * time.Millisecond,
		TTL: TTLs{
			Success:    24 * time.Hour,
			Webview:    time.Hour,
			FetchError: 10 * time.Minute,
		},
		Workers: workers.DefaultWorkerConfig(),
	}
}

// Service implements interfaces.ParseService
type Service struct {
	deps      interfaces.Dependencies
	registry  *strategy.Registry
	guard     URLChecker
	sanitizer *sanitize.Sanitizer
	scorer    *quality.Scorer
	config    Config
	worker    *workers.RevalidationWorker
	group     singleflight.Group
	now       func() time.Time

	// hits tallies cache hits per key (*int64) until the next write for that
	// key. Tallies expire with the longest entry TTL.
	hits *gocache.Cache
}

// Option configures a Service
type Option func(*Service)

// WithSanitizer replaces the default sanitizer
func WithSanitizer(s *sanitize.Sanitizer) Option {
	return func(svc *Service) {
		svc.sanitizer = s
	}
}

// WithScorer replaces the default scorer
func WithScorer(s *quality.Scorer) Option {
	return func(svc *Service) {
		svc.scorer = s
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(svc *Service) {
		svc.now = now
	}
}

// NewService wires the pipeline and starts the revalidation workers
func NewService(deps interfaces.Dependencies, registry *strategy.Registry, guard URLChecker, config Config, opts ...Option) *Service {
	if deps.Logger == nil {
		deps.Logger = interfaces.NopLogger{}
	}
	if deps.Metrics == nil {
		deps.Metrics = interfaces.NopMetrics{}
	}
	defaults := DefaultConfig()
	if config.RequestBudget <= 0 {
		config.RequestBudget = defaults.RequestBudget
	}
	if config.HighConfidence <= 0 {
		config.HighConfidence = defaults.HighConfidence
	}
	if config.LeaseTTL <= 0 {
		config.LeaseTTL = config.RequestBudget + 5*time.Second
	}
	if config.LeasePoll <= 0 {
		config.LeasePoll = defaults.LeasePoll
	}
	if config.TTL == (TTLs{}) {
		config.TTL = defaults.TTL
	}
	if config.Workers.JobTimeout <= 0 {
		config.Workers.JobTimeout = config.RequestBudget
	}

	s := &Service{
		deps:      deps,
		registry:  registry,
		guard:     guard,
		sanitizer: sanitize.New(),
		scorer:    quality.NewScorer(quality.DefaultWeights()),
		config:    config,
		now:       time.Now,
		hits:      gocache.New(config.TTL.longest(), 10*time.Minute),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.worker = workers.NewRevalidationWorker(s.revalidate, deps.Logger, config.Workers)
	_ = s.worker.Start()
	return s
}

// Close stops background revalidation
func (s *Service) Close() error {
	return s.worker.Stop()
}

// Parse returns the structured result for req.URL.
// Only rejected input and exhausted capacity surface as errors.
func (s *Service) Parse(ctx context.Context, req domain.ParseRequest) (*domain.ParseResult, error) {
	u, err := normalize.Normalize(req.URL)
	if err != nil {
		return nil, err
	}
	logger := s.logger(ctx)

	if err := s.guard.CheckURL(ctx, u.URL()); err != nil {
		if errors.IsSecurityRejected(err) {
			logger.Warn("Rejected URL", map[string]interface{}{
				"url":   u.String(),
				"error": err.Error(),
			})
			return nil, err
		}
		// resolution failures are retried by the fetcher and degrade there
		logger.Debug("URL pre-check failed", map[string]interface{}{
			"url":   u.String(),
			"error": err.Error(),
		})
	}

	key := entryPrefix + u.Key()
	useCache := s.deps.Cache != nil && featureflags.IsEnabled(ctx, featureflags.CacheEnabled)

	if useCache {
		if entry := s.lookup(ctx, key); entry != nil {
			if entry.Result.Confidence >= s.config.HighConfidence || !req.ForceRefresh {
				return s.serveCached(ctx, key, u, entry), nil
			}
		}
	}
	s.deps.Metrics.CacheLookup("miss")

	ch := s.group.DoChan(key, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.RequestBudget)
		defer cancel()
		return s.fill(shared, key, u, req.ForceRefresh, useCache)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		result := res.Val.(domain.ParseResult)
		return &result, nil
	case <-ctx.Done():
		return nil, &errors.TimeoutError{Operation: "parse " + u.String(), Budget: s.config.RequestBudget}
	}
}

// Invalidate drops the cached entry for rawURL
func (s *Service) Invalidate(ctx context.Context, rawURL string) error {
	u, err := normalize.Normalize(rawURL)
	if err != nil {
		return err
	}
	if s.deps.Cache == nil {
		return nil
	}
	if err := s.deps.Cache.Delete(ctx, entryPrefix+u.Key()); err != nil {
		return errors.WrapError(err, "invalidate "+u.String())
	}
	s.hits.Delete(entryPrefix + u.Key())
	s.logger(ctx).Info("Invalidated cache entry", map[string]interface{}{
		"url": u.String(),
	})
	return nil
}

func (s *Service) serveCached(ctx context.Context, key string, u domain.NormalizedURL, entry *domain.CacheEntry) *domain.ParseResult {
	now := s.now()
	result := entry.Result

	if entry.Result.Confidence >= s.config.HighConfidence {
		s.deps.Metrics.CacheLookup("hit")
	} else {
		s.deps.Metrics.CacheLookup("stale")
		if s.healable(entry) && featureflags.IsEnabled(ctx, featureflags.SelfHeal) && entry.DueForValidation(now, s.config.MinRevalidateInterval) {
			if err := s.worker.Submit(workers.RevalidationJob{Key: key, URL: u}); err != nil {
				s.deps.Metrics.Revalidation("dropped")
			}
		}
	}

	s.countHit(key)
	return &result
}

// healable reports whether re-running the pipeline could change the entry.
// SPA-bypass webviews are produced without fetching and never improve.
func (s *Service) healable(entry *domain.CacheEntry) bool {
	if entry.Result.Reason() != domain.ReasonJSRequired {
		return true
	}
	desc, ok := s.registry.Lookup(entry.Result.Strategy)
	return !ok || desc.Kind != domain.KindSPABypass
}

// fill runs the pipeline for a miss or a forced refresh under the cross-instance lease
func (s *Service) fill(ctx context.Context, key string, u domain.NormalizedURL, force, useCache bool) (domain.ParseResult, error) {
	if !useCache {
		result, _, err := s.run(ctx, u)
		return result, err
	}

	leaseKey := leasePrefix + u.Key()
	started := s.now()
	for {
		acquired, err := s.deps.Cache.AcquireLease(ctx, leaseKey, s.config.LeaseTTL)
		if err != nil {
			s.logger(ctx).Warn("Lease unavailable, parsing without it", map[string]interface{}{
				"url":   u.String(),
				"error": err.Error(),
			})
			break
		}
		if acquired {
			defer s.release(ctx, leaseKey)
			break
		}

		select {
		case <-ctx.Done():
			return domain.ParseResult{}, &errors.TimeoutError{Operation: "wait for " + u.String(), Budget: s.config.RequestBudget}
		case <-time.After(s.config.LeasePoll):
		}
		if entry := s.lookup(ctx, key); entry != nil && (!force || !entry.LastValidatedAt.Before(started)) {
			return entry.Result, nil
		}
	}

	if !force {
		if entry := s.lookup(ctx, key); entry != nil {
			return entry.Result, nil
		}
	}

	result, ttl, err := s.run(ctx, u)
	if err != nil {
		return domain.ParseResult{}, err
	}
	if ttl > 0 {
		s.store(ctx, key, result, ttl)
	}
	return result, nil
}

func (s *Service) release(ctx context.Context, leaseKey string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.deps.Cache.ReleaseLease(ctx, leaseKey); err != nil {
		s.logger(ctx).Warn("Failed to release lease", map[string]interface{}{
			"key":   leaseKey,
			"error": err.Error(),
		})
	}
}

// lookup returns the stored entry or nil. Corrupt entries are deleted.
func (s *Service) lookup(ctx context.Context, key string) *domain.CacheEntry {
	data, err := s.deps.Cache.Get(ctx, key)
	if err != nil {
		if !stderrors.Is(err, interfaces.ErrCacheMiss) {
			s.logger(ctx).Warn("Cache read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
			return nil
		}
		s.hits.Delete(key)
		return nil
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil || !entry.Result.Type.Valid() {
		s.logger(ctx).Warn("Dropping corrupt cache entry", map[string]interface{}{
			"key": key,
		})
		_ = s.deps.Cache.Delete(ctx, key)
		s.hits.Delete(key)
		return nil
	}
	if entry.Expired(s.now()) {
		s.hits.Delete(key)
		return nil
	}
	return &entry
}

// store writes result unless the store holds a strictly better one
func (s *Service) store(ctx context.Context, key string, result domain.ParseResult, ttl time.Duration) {
	now := s.now()
	entry := domain.CacheEntry{
		Key:             key,
		Result:          result,
		CreatedAt:       now,
		LastValidatedAt: now,
		ExpiresAt:       now.Add(ttl),
	}

	if existing := s.lookup(ctx, key); existing != nil {
		if existing.Result.Confidence > result.Confidence {
			existing.LastValidatedAt = now
			s.write(ctx, existing, existing.TTL(now))
			return
		}
		entry.HitCount = existing.HitCount
	}
	s.write(ctx, &entry, ttl)
}

func (s *Service) write(ctx context.Context, entry *domain.CacheEntry, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	entry.HitCount += s.drainHits(entry.Key)
	data, err := json.Marshal(entry)
	if err != nil {
		s.logger(ctx).Error("Failed to encode cache entry", map[string]interface{}{
			"key":   entry.Key,
			"error": err.Error(),
		})
		return
	}
	if err := s.deps.Cache.Set(ctx, entry.Key, data, ttl); err != nil {
		s.logger(ctx).Warn("Cache write failed", map[string]interface{}{
			"key":   entry.Key,
			"error": err.Error(),
		})
	}
}

func (s *Service) countHit(key string) {
	if v, ok := s.hits.Get(key); ok {
		atomic.AddInt64(v.(*int64), 1)
		return
	}
	n := int64(1)
	if err := s.hits.Add(key, &n, gocache.DefaultExpiration); err != nil {
		// another hit created the tally first
		s.countHit(key)
	}
}

// drainHits returns and resets the hit tally for key
func (s *Service) drainHits(key string) int64 {
	v, ok := s.hits.Get(key)
	if !ok {
		return 0
	}
	s.hits.Delete(key)
	return atomic.LoadInt64(v.(*int64))
}

func (s *Service) logger(ctx context.Context) interfaces.Logger {
	if id := interfaces.RequestIDFromContext(ctx); id != "" {
		return requestLogger{Logger: s.deps.Logger, requestID: id}
	}
	return s.deps.Logger
}

// requestLogger adds request_id to every entry
type requestLogger struct {
	interfaces.Logger
	requestID string
}

func (l requestLogger) with(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["request_id"] = l.requestID
	return out
}

func (l requestLogger) Debug(msg string, fields map[string]interface{}) {
	l.Logger.Debug(msg, l.with(fields))
}

func (l requestLogger) Info(msg string, fields map[string]interface{}) {
	l.Logger.Info(msg, l.with(fields))
}

func (l requestLogger) Warn(msg string, fields map[string]interface{}) {
	l.Logger.Warn(msg, l.with(fields))
}

func (l requestLogger) Error(msg string, fields map[string]interface{}) {
	l.Logger.Error(msg, l.with(fields))
}
