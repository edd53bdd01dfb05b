// ABOUTME: Extraction strategy contract and the draft result strategies produce
// ABOUTME: Drafts carry raw content plus signals the quality scorer consumes

package strategy

import (
	"context"

	"linkparse-api/core/domain"
)

// Signals are facts about the source page the scorer weighs
type Signals struct {
	// HasTitle is true when the title came from the page rather than the URL
	HasTitle bool

	// HasStructuredData is true for Open Graph, JSON-LD, feed or platform API data
	HasStructuredData bool

	// Platform is true when a first-party API produced the draft
	Platform bool

	// BlockedFingerprint is true when the page is a bot challenge or captcha
	BlockedFingerprint bool

	// PaywallFingerprint is true when the page declares or shows a paywall
	PaywallFingerprint bool

	// JSRequired is true when the page renders its content with JavaScript
	JSRequired bool
}

// Draft is an unsanitized, unscored extraction result
type Draft struct {
	// Result carries title, type, raw content HTML, cover, domain and final URL
	Result domain.ParseResult

	// TextLength is the length of the readable text in runes
	TextLength int

	// Signals feed the quality scorer
	Signals Signals
}

// Strategy extracts a Draft for a URL
type Strategy interface {
	// Name identifies the strategy in logs and metrics
	Name() string

	// Kind reports how the strategy obtains content
	Kind() domain.StrategyKind

	// Extract produces a draft. Upstream failures are returned as typed
	// errors from core/errors and are degraded by the caller.
	Extract(ctx context.Context, u domain.NormalizedURL) (*Draft, error)
}

// Func adapts a function to the Strategy interface
type Func struct {
	StrategyName string
	StrategyKind domain.StrategyKind
	Fn           func(ctx context.Context, u domain.NormalizedURL) (*Draft, error)
}

func (f Func) Name() string { return f.StrategyName }

func (f Func) Kind() domain.StrategyKind { return f.StrategyKind }

func (f Func) Extract(ctx context.Context, u domain.NormalizedURL) (*Draft, error) {
	return f.Fn(ctx, u)
}
