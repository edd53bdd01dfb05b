package parser

import (
	"context"
	"net"
	"net/url"
	"sync/atomic"
	"time"

	"linkparse-api/core/domain"
	"linkparse-api/core/errors"
	"linkparse-api/core/interfaces"
	"linkparse-api/core/ssrf"
	"linkparse-api/core/workers"
)

// mockFetcher is a mock implementation of the Fetcher interface
type mockFetcher struct {
	fetchFunc func(ctx context.Context, req interfaces.FetchRequest) (*interfaces.FetchResult, error)
	calls     int64
}

func (m *mockFetcher) Fetch(ctx context.Context, req interfaces.FetchRequest) (*interfaces.FetchResult, error) {
	atomic.AddInt64(&m.calls, 1)
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, req)
	}
	return nil, &errors.FetchError{URL: req.URL, StatusCode: 404}
}

func (m *mockFetcher) Calls() int {
	return int(atomic.LoadInt64(&m.calls))
}

// mockCache is a mock implementation of the LeaseCache interface.
// Unset functions delegate to next.
type mockCache struct {
	next interfaces.LeaseCache

	getFunc     func(ctx context.Context, key string) ([]byte, error)
	setFunc     func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	deleteFunc  func(ctx context.Context, key string) error
	acquireFunc func(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, key)
	}
	return m.next.Get(ctx, key)
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFunc != nil {
		return m.setFunc(ctx, key, value, ttl)
	}
	return m.next.Set(ctx, key, value, ttl)
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, key)
	}
	return m.next.Delete(ctx, key)
}

func (m *mockCache) AcquireLease(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if m.acquireFunc != nil {
		return m.acquireFunc(ctx, key, ttl)
	}
	return m.next.AcquireLease(ctx, key, ttl)
}

func (m *mockCache) ReleaseLease(ctx context.Context, key string) error {
	return m.next.ReleaseLease(ctx, key)
}

// literalGuard rejects non-public IP literals and never resolves names
type literalGuard struct{}

func (literalGuard) CheckURL(_ context.Context, u *url.URL) error {
	if ip := net.ParseIP(u.Hostname()); ip != nil && ssrf.IsBlockedIP(ip) {
		return &errors.SecurityRejectedError{Host: u.Hostname(), Detail: "blocked"}
	}
	return nil
}

func workerJob(key string, u domain.NormalizedURL) workers.RevalidationJob {
	return workers.RevalidationJob{Key: key, URL: u}
}
