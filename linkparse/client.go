// ABOUTME: Main client for the linkparse library providing link parsing without HTTP
// ABOUTME: Wires the SSRF guard, fetcher, strategy registry and cache-backed parse service

package linkparse

import (
	"context"
	"sync"

	"linkparse-api/core/domain"
	"linkparse-api/core/interfaces"
	"linkparse-api/core/normalize"
	"linkparse-api/core/parser"
	"linkparse-api/core/ssrf"
	"linkparse-api/core/strategy"
	"linkparse-api/core/throttle"
	"linkparse-api/infrastructure/http/standard"
)

// Client is the main entry point for the linkparse library
type Client struct {
	service  *parser.Service
	registry *strategy.Registry
	config   Config

	mu     sync.Mutex
	closed bool
}

// NewClient creates a new client with the given options
func NewClient(options ...Option) (*Client, error) {
	config := defaultConfig()

	for _, opt := range options {
		if err := opt(&config); err != nil {
			config.close()
			return nil, err
		}
	}

	if err := validateConfig(&config); err != nil {
		config.close()
		return nil, err
	}

	var guardOpts []ssrf.Option
	if config.Resolver != nil {
		guardOpts = append(guardOpts, ssrf.WithResolver(config.Resolver))
	}
	if len(config.AllowedNets) > 0 {
		guardOpts = append(guardOpts, ssrf.WithAllowedNets(config.AllowedNets...))
	}
	guard := ssrf.New(guardOpts...)

	agents := standard.NewUserAgentTable()
	for host, tier := range config.UserAgents {
		if !agents.Assign(host, tier) {
			config.close()
			return nil, NewError(ErrorTypeConfiguration, "unknown user agent tier").
				WithContext("domain", host).
				WithContext("tier", tier)
		}
	}

	fetcher := standard.NewFetcher(config.Fetch, guard,
		standard.WithThrottle(throttle.NewDomainThrottle(config.Throttle)),
		standard.WithUserAgents(agents),
		standard.WithLogger(config.Logger),
		standard.WithMetrics(config.Metrics),
	)

	registry := strategy.NewDefaultRegistry(fetcher, config.Strategy)

	deps := interfaces.Dependencies{
		Cache:   config.Cache,
		Fetcher: fetcher,
		Logger:  config.Logger,
		Metrics: config.Metrics,
	}

	return &Client{
		service:  parser.NewService(deps, registry, guard, config.Parser),
		registry: registry,
		config:   config,
	}, nil
}

// Parse turns rawURL into a Result. Pipeline failures come back as webview
// results; only rejected input and exhausted capacity return an error.
func (c *Client) Parse(ctx context.Context, rawURL string, opts ...ParseOption) (*Result, error) {
	if c.isClosed() {
		return nil, ErrClientClosed
	}

	var options ParseOptions
	for _, opt := range opts {
		opt(&options)
	}

	result, err := c.service.Parse(ctx, domain.ParseRequest{
		URL:          rawURL,
		ForceRefresh: options.ForceRefresh,
	})
	if err != nil {
		return nil, wrapError(err)
	}
	return domainResultToPublic(result), nil
}

// Invalidate drops the cached result for rawURL
func (c *Client) Invalidate(ctx context.Context, rawURL string) error {
	if c.isClosed() {
		return ErrClientClosed
	}
	return wrapError(c.service.Invalidate(ctx, rawURL))
}

// Normalize returns the canonical form used as the cache identity of rawURL
func Normalize(rawURL string) (string, error) {
	u, err := normalize.Normalize(rawURL)
	if err != nil {
		return "", wrapError(err)
	}
	return u.String(), nil
}

// Strategies lists registered strategy names in selection order
func (c *Client) Strategies() []string {
	descs := c.registry.Descriptors()
	names := make([]string, len(descs))
	for i, d := range descs {
		names[i] = d.Name
	}
	return names
}

// Close stops background revalidation and releases the cache
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	err := c.service.Close()
	if cerr := c.config.close(); err == nil {
		err = cerr
	}
	return err
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// validateConfig validates the client configuration
func validateConfig(config *Config) error {
	if config.Cache == nil {
		return NewError(ErrorTypeConfiguration, "cache is required")
	}

	if config.Logger == nil {
		return NewError(ErrorTypeConfiguration, "logger is required")
	}

	return nil
}
