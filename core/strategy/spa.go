// ABOUTME: SPA bypass strategy for platforms that only render with JavaScript
// ABOUTME: Produces a webview result without touching the network

package strategy

import (
	"context"
	"time"

	"linkparse-api/core/domain"
)

// SPABypass short-circuits known JavaScript-only platforms to the webview
type SPABypass struct {
	name string
	now  func() time.Time
}

// NewSPABypass creates a bypass strategy for one platform
func NewSPABypass(name string) *SPABypass {
	return &SPABypass{name: name, now: time.Now}
}

func (s *SPABypass) Name() string { return s.name }

func (s *SPABypass) Kind() domain.StrategyKind { return domain.KindSPABypass }

// Extract never fetches
func (s *SPABypass) Extract(_ context.Context, u domain.NormalizedURL) (*Draft, error) {
	return &Draft{
		Result:  domain.NewWebviewResult(u, domain.ReasonJSRequired, s.now()),
		Signals: Signals{JSRequired: true},
	}, nil
}
