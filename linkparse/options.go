// ABOUTME: Configuration options for the linkparse library client
// ABOUTME: Provides functional options for dependencies, limits and per-call behaviour

package linkparse

import (
	"net"

	"linkparse-api/core/interfaces"
	"linkparse-api/core/parser"
	"linkparse-api/core/ssrf"
	"linkparse-api/core/strategy"
	"linkparse-api/core/throttle"
	"linkparse-api/infrastructure/http/standard"
)

// Config holds the configuration for the client
type Config struct {
	Cache   interfaces.LeaseCache
	Logger  interfaces.Logger
	Metrics interfaces.Metrics

	Fetch    standard.Config
	Throttle throttle.Config
	Parser   parser.Config
	Strategy strategy.Options

	// UserAgents maps a domain to a user agent tier (default, browser, crawler)
	UserAgents map[string]string

	// AllowedNets are ranges the SSRF guard lets through, for private deployments
	AllowedNets []*net.IPNet

	Resolver ssrf.Resolver

	closers []func() error
}

func (c *Config) close() error {
	var first error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}

// Option is a functional option for configuring the client
type Option func(*Config) error

// WithCache sets a custom cache implementation
func WithCache(cache interfaces.LeaseCache) Option {
	return func(c *Config) error {
		c.Cache = cache
		return nil
	}
}

// WithLogger sets a custom logger
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// WithMetrics records pipeline counters into m
func WithMetrics(m interfaces.Metrics) Option {
	return func(c *Config) error {
		c.Metrics = m
		return nil
	}
}

// WithFetchConfig sets upstream fetch limits
func WithFetchConfig(cfg standard.Config) Option {
	return func(c *Config) error {
		c.Fetch = cfg
		return nil
	}
}

// WithThrottleConfig sets per-domain concurrency limits
func WithThrottleConfig(cfg throttle.Config) Option {
	return func(c *Config) error {
		c.Throttle = cfg
		return nil
	}
}

// WithParserConfig sets cache lifetimes, budgets and self-heal settings
func WithParserConfig(cfg parser.Config) Option {
	return func(c *Config) error {
		c.Parser = cfg
		return nil
	}
}

// WithSPADomains adds hosts that always fall back to a webview
func WithSPADomains(hosts ...string) Option {
	return func(c *Config) error {
		c.Strategy.ExtraSPADomains = append(c.Strategy.ExtraSPADomains, hosts...)
		return nil
	}
}

// WithTrafilatura enables or disables the secondary article extractor
func WithTrafilatura(enabled bool) Option {
	return func(c *Config) error {
		c.Strategy.Trafilatura = enabled
		return nil
	}
}

// WithUserAgentTier assigns a user agent tier to a domain
func WithUserAgentTier(domain, tier string) Option {
	return func(c *Config) error {
		if c.UserAgents == nil {
			c.UserAgents = make(map[string]string)
		}
		c.UserAgents[domain] = tier
		return nil
	}
}

// WithAllowedCIDRs lets the SSRF guard through to the given ranges.
// A bare address allows that single host.
func WithAllowedCIDRs(cidrs ...string) Option {
	return func(c *Config) error {
		nets, err := ssrf.ParseCIDRs(cidrs...)
		if err != nil {
			return NewError(ErrorTypeConfiguration, "invalid allowed CIDR").WithCause(err)
		}
		c.AllowedNets = append(c.AllowedNets, nets...)
		return nil
	}
}

// WithResolver replaces the DNS resolver used by the SSRF guard
func WithResolver(r ssrf.Resolver) Option {
	return func(c *Config) error {
		c.Resolver = r
		return nil
	}
}

// ParseOption is a functional option for a single Parse call
type ParseOption func(*ParseOptions)

// ParseOptions holds per-call options
type ParseOptions struct {
	ForceRefresh bool
}

// WithForceRefresh bypasses the cache read for low-confidence entries
func WithForceRefresh() ParseOption {
	return func(o *ParseOptions) {
		o.ForceRefresh = true
	}
}

// defaultConfig returns the default client configuration
func defaultConfig() Config {
	return Config{
		Cache:    DefaultMemoryCache(),
		Logger:   QuietLogger(),
		Metrics:  interfaces.NopMetrics{},
		Fetch:    standard.DefaultConfig(),
		Throttle: throttle.DefaultConfig(),
		Parser:   parser.DefaultConfig(),
		Strategy: strategy.Options{Trafilatura: true},
	}
}
