// ABOUTME: Guarded HTTP fetcher with retry, redirect, size and time limits
// ABOUTME: Every connection and redirect hop passes the SSRF guard before any bytes are sent

package standard

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/net/html/charset"

	"linkparse-api/core/domain"
	"linkparse-api/core/errors"
	"linkparse-api/core/interfaces"
	"linkparse-api/core/ssrf"
	"linkparse-api/core/throttle"
)

const defaultAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

var errTooManyRedirects = stderrors.New("too many redirects")

// Config holds fetch limits
type Config struct {
	// AttemptTimeout bounds a single request including the body read
	AttemptTimeout time.Duration

	// Budget bounds the whole fetch across retries
	Budget time.Duration

	// MaxRedirects is the longest redirect chain followed
	MaxRedirects int

	// MaxBodyBytes caps the response body
	MaxBodyBytes int64

	// MaxRetries is the number of retries after the first attempt
	MaxRetries uint64

	// InitialBackoff is the first retry delay
	InitialBackoff time.Duration
}

// DefaultConfig returns the default fetch limits
func DefaultConfig() Config {
	return Config{
		AttemptTimeout: 8 * time.Second,
		Budget:         20 * time.Second,
		MaxRedirects:   5,
		MaxBodyBytes:   5 << 20,
		MaxRetries:     2,
		InitialBackoff: 250 * time.Millisecond,
	}
}

// Fetcher implements interfaces.Fetcher on net/http
type Fetcher struct {
	client   *http.Client
	guard    *ssrf.Guard
	throttle *throttle.DomainThrottle
	agents   *UserAgentTable
	cfg      Config
	logger   interfaces.Logger
	metrics  interfaces.Metrics
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithThrottle enables per-domain concurrency limiting
func WithThrottle(t *throttle.DomainThrottle) Option {
	return func(f *Fetcher) { f.throttle = t }
}

// WithUserAgents replaces the user-agent tier table
func WithUserAgents(t *UserAgentTable) Option {
	return func(f *Fetcher) { f.agents = t }
}

// WithLogger sets the logger
func WithLogger(l interfaces.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// WithMetrics sets the metrics recorder
func WithMetrics(m interfaces.Metrics) Option {
	return func(f *Fetcher) { f.metrics = m }
}

// NewFetcher creates a fetcher whose transport dials only through guard
func NewFetcher(cfg Config, guard *ssrf.Guard, opts ...Option) *Fetcher {
	def := DefaultConfig()
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = def.AttemptTimeout
	}
	if cfg.Budget <= 0 {
		cfg.Budget = def.Budget
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = def.MaxRedirects
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}

	f := &Fetcher{
		guard:   guard,
		agents:  NewUserAgentTable(),
		cfg:     cfg,
		logger:  interfaces.NopLogger{},
		metrics: interfaces.NopMetrics{},
	}
	for _, opt := range opts {
		opt(f)
	}

	transport := &http.Transport{
		// No proxy: a proxy would connect on our behalf and bypass the guard.
		Proxy:                 nil,
		DialContext:           guard.DialContext,
		ForceAttemptHTTP2:     true,
		TLSHandshakeTimeout:   cfg.AttemptTimeout,
		ResponseHeaderTimeout: cfg.AttemptTimeout,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
	}

	f.client = &http.Client{
		Transport:     transport,
		CheckRedirect: f.checkRedirect,
	}
	return f
}

type redirectChainKey struct{}

type redirectChain struct {
	hops []string
}

// checkRedirect sends every hop back through the guard
func (f *Fetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) > f.cfg.MaxRedirects {
		return fmt.Errorf("stopped after %d hops: %w", f.cfg.MaxRedirects, errTooManyRedirects)
	}
	if chain, ok := req.Context().Value(redirectChainKey{}).(*redirectChain); ok {
		chain.hops = append(chain.hops, req.URL.String())
	}
	if err := f.guard.CheckURL(req.Context(), req.URL); err != nil {
		return err
	}
	return nil
}

// Fetch performs a guarded GET with retries for transient failures
func (f *Fetcher) Fetch(ctx context.Context, req interfaces.FetchRequest) (*interfaces.FetchResult, error) {
	target, err := url.Parse(req.URL)
	if err != nil || target.Host == "" {
		return nil, &errors.InvalidURLError{URL: req.URL, Reason: "url does not parse"}
	}

	if err := f.guard.CheckURL(ctx, target); err != nil {
		f.logger.Warn("Fetch blocked by guard", map[string]interface{}{
			"host":  target.Hostname(),
			"error": err.Error(),
		})
		return nil, err
	}

	host := target.Hostname()
	if f.throttle != nil {
		release, err := f.throttle.Acquire(ctx, host)
		if err != nil {
			if errors.IsOverloaded(err) {
				f.metrics.UpstreamFetch(host, "overloaded", 0)
				return nil, err
			}
			return nil, &errors.TimeoutError{Operation: "waiting for fetch slot", Budget: f.cfg.Budget}
		}
		defer release()
	}

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Budget)
	defer cancel()

	tier := f.agents.TierFor(host)
	attempt := domain.FetchAttempt{UserAgentTier: tier.Name}
	start := time.Now()

	hint := &retryAfterBackOff{}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.cfg.InitialBackoff
	b.MaxElapsedTime = f.cfg.Budget
	hint.BackOff = backoff.WithMaxRetries(b, f.cfg.MaxRetries)
	policy := backoff.WithContext(hint, ctx)

	var result *interfaces.FetchResult
	op := func() error {
		attempt.Attempts++
		res, retryAfter, err := f.do(ctx, target, req.Accept, tier, &attempt)
		if err == nil {
			result = res
			return nil
		}
		if !isRetryable(err) {
			return backoff.Permanent(err)
		}
		if retryAfter > 0 {
			if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < retryAfter {
				return backoff.Permanent(err)
			}
			hint.next = retryAfter
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		f.logger.Debug("Retrying upstream fetch", map[string]interface{}{
			"host":    host,
			"attempt": attempt.Attempts,
			"wait":    wait.String(),
			"error":   err.Error(),
		})
	}

	err = backoff.RetryNotify(op, policy, notify)
	attempt.Elapsed = time.Since(start)

	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
			err = &errors.TimeoutError{Operation: "fetch " + host, Budget: f.cfg.Budget}
		}
		f.logger.Warn("Upstream fetch failed", map[string]interface{}{
			"url":        target.String(),
			"attempts":   attempt.Attempts,
			"status":     attempt.StatusCode,
			"elapsed_ms": attempt.Elapsed.Milliseconds(),
			"error":      err.Error(),
		})
		return nil, err
	}

	result.Attempt = attempt
	f.logger.Debug("Upstream fetch completed", map[string]interface{}{
		"url":        target.String(),
		"final_url":  result.FinalURL,
		"status":     result.StatusCode,
		"bytes":      attempt.BytesRead,
		"redirects":  len(attempt.RedirectChain),
		"tier":       tier.Name,
		"elapsed_ms": attempt.Elapsed.Milliseconds(),
	})
	return result, nil
}

// do performs one attempt. The returned duration is a server supplied Retry-After hint.
func (f *Fetcher) do(ctx context.Context, target *url.URL, accept string, tier Tier, attempt *domain.FetchAttempt) (*interfaces.FetchResult, time.Duration, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.cfg.AttemptTimeout)
	defer cancel()

	chain := &redirectChain{}
	attemptCtx = context.WithValue(attemptCtx, redirectChainKey{}, chain)

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, 0, &errors.InvalidURLError{URL: target.String(), Reason: err.Error()}
	}
	if accept == "" {
		accept = defaultAccept
	}
	httpReq.Header.Set("Accept", accept)
	httpReq.Header.Set("User-Agent", tier.UserAgent)
	for k, v := range tier.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := f.client.Do(httpReq)
	attempt.RedirectChain = chain.hops
	if err != nil {
		f.metrics.UpstreamFetch(target.Hostname(), "transport_error", time.Since(start))
		return nil, 0, classifyTransportError(target.String(), err)
	}
	defer resp.Body.Close()

	attempt.StatusCode = resp.StatusCode
	f.metrics.UpstreamFetch(target.Hostname(), strconv.Itoa(resp.StatusCode), time.Since(start))

	finalURL := resp.Request.URL.String()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, parseRetryAfter(resp.Header.Get("Retry-After")), &errors.FetchError{URL: finalURL, StatusCode: resp.StatusCode}
	}

	rawType := resp.Header.Get("Content-Type")
	mediaType := ""
	if rawType != "" {
		if mt, _, err := mime.ParseMediaType(rawType); err == nil {
			mediaType = strings.ToLower(mt)
		}
	}
	if mediaType != "" && !IsDocumentType(mediaType) {
		return nil, 0, errors.NewUnsupportedContentTypeError(finalURL, mediaType)
	}

	if resp.ContentLength > f.cfg.MaxBodyBytes {
		return nil, 0, &errors.TooLargeError{URL: finalURL, Limit: f.cfg.MaxBodyBytes}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes+1))
	attempt.BytesRead = int64(len(body))
	if err != nil {
		return nil, 0, classifyTransportError(finalURL, err)
	}
	if int64(len(body)) > f.cfg.MaxBodyBytes {
		return nil, 0, &errors.TooLargeError{URL: finalURL, Limit: f.cfg.MaxBodyBytes}
	}

	if mediaType == "" {
		mediaType, _, _ = mime.ParseMediaType(http.DetectContentType(body))
		if !IsDocumentType(mediaType) {
			return nil, 0, errors.NewUnsupportedContentTypeError(finalURL, mediaType)
		}
	}

	if isMarkup(mediaType) {
		body = decodeCharset(body, rawType)
	}

	return &interfaces.FetchResult{
		FinalURL:    finalURL,
		StatusCode:  resp.StatusCode,
		ContentType: mediaType,
		Body:        body,
		Header:      resp.Header,
	}, 0, nil
}

// IsDocumentType reports whether mediaType is something the strategies can parse
func IsDocumentType(mediaType string) bool {
	switch {
	case strings.HasPrefix(mediaType, "text/"):
		return true
	case mediaType == "application/xhtml+xml",
		mediaType == "application/xml",
		mediaType == "application/json",
		mediaType == "application/javascript":
		return true
	case strings.HasPrefix(mediaType, "application/") &&
		(strings.HasSuffix(mediaType, "+json") || strings.HasSuffix(mediaType, "+xml")):
		return true
	}
	return false
}

func isMarkup(mediaType string) bool {
	return mediaType == "text/html" || mediaType == "application/xhtml+xml" ||
		strings.HasSuffix(mediaType, "xml")
}

// decodeCharset converts body to UTF-8 using the header charset or a meta prescan
func decodeCharset(body []byte, contentType string) []byte {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return body
	}
	return decoded
}

// isRetryable reports whether err is transient
func isRetryable(err error) bool {
	if errors.IsSecurityRejected(err) || errors.IsTooLarge(err) ||
		errors.IsUnsupportedContentType(err) || errors.IsInvalidURL(err) {
		return false
	}
	var fetchErr *errors.FetchError
	if !stderrors.As(err, &fetchErr) {
		return false
	}
	switch fetchErr.StatusCode {
	case 0:
		return !stderrors.Is(err, errTooManyRedirects)
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// classifyTransportError unwraps guard rejections from url.Error
func classifyTransportError(target string, err error) error {
	if errors.IsSecurityRejected(err) {
		var rejected *errors.SecurityRejectedError
		stderrors.As(err, &rejected)
		return rejected
	}
	return &errors.FetchError{URL: target, Cause: err}
}

// parseRetryAfter reads a Retry-After header in seconds or HTTP-date form
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// retryAfterBackOff stretches the next delay to honour a server Retry-After
type retryAfterBackOff struct {
	backoff.BackOff
	next time.Duration
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	d := b.BackOff.NextBackOff()
	if d == backoff.Stop {
		return d
	}
	if b.next > d {
		d = b.next
	}
	b.next = 0
	return d
}
