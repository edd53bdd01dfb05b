// ABOUTME: Confidence scoring for extracted drafts
// ABOUTME: Downgrades low-confidence results to the webview fallback with a reason

package quality

import (
	"math"

	"linkparse-api/core/domain"
	"linkparse-api/core/strategy"
)

// Weights are the tunable scoring constants
type Weights struct {
	Title          float64
	Text           float64
	StructuredData float64
	NotBlocked     float64

	// FullTextLength earns the whole text weight, PartialTextLength starts partial credit
	FullTextLength    int
	PartialTextLength int

	// PlatformFloor is the minimum score of a titled platform API result
	PlatformFloor float64

	// Threshold is the score below which results become webviews
	Threshold float64
}

// DefaultWeights returns the production weights
func DefaultWeights() Weights {
	return Weights{
		Title:             0.30,
		Text:              0.30,
		StructuredData:    0.20,
		NotBlocked:        0.20,
		FullTextLength:    500,
		PartialTextLength: 200,
		PlatformFloor:     0.8,
		Threshold:         0.3,
	}
}

// Scorer assigns confidence and enforces the webview gate
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer
func NewScorer(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// Score turns a draft into a final result. A result with confidence below the
// threshold is always a webview with a fallback reason.
func (s *Scorer) Score(d *strategy.Draft) domain.ParseResult {
	result := d.Result

	if result.IsWebview() {
		result.Confidence = 0
		result.ContentHTML = nil
		if result.FallbackReason == nil {
			result.FallbackReason = reasonFor(d.Signals).Ptr()
		}
		return result
	}

	result.Confidence = s.confidence(d)

	switch {
	case result.Confidence < s.weights.Threshold:
		result.Webview(reasonFor(d.Signals))
	case d.Signals.JSRequired && d.TextLength < s.weights.PartialTextLength:
		result.Webview(domain.ReasonJSRequired)
	case result.Type == domain.TypeArticle && result.ContentHTML == nil:
		result.Webview(domain.ReasonLowConfidence)
	default:
		result.FallbackReason = nil
	}
	return result
}

func (s *Scorer) confidence(d *strategy.Draft) float64 {
	w := s.weights
	sig := d.Signals

	if sig.BlockedFingerprint {
		return 0
	}

	score := w.NotBlocked
	if sig.HasTitle {
		score += w.Title
	}
	if sig.HasStructuredData {
		score += w.StructuredData
	}
	switch {
	case d.TextLength >= w.FullTextLength:
		score += w.Text
	case d.TextLength > w.PartialTextLength && w.FullTextLength > w.PartialTextLength:
		score += w.Text * float64(d.TextLength-w.PartialTextLength) / float64(w.FullTextLength-w.PartialTextLength)
	}
	if sig.Platform && sig.HasTitle && score < w.PlatformFloor {
		score = w.PlatformFloor
	}
	if sig.PaywallFingerprint && d.TextLength < w.FullTextLength {
		score = math.Min(score, w.Threshold-0.01)
	}

	return math.Round(math.Min(score, 1)*1000) / 1000
}

func reasonFor(sig strategy.Signals) domain.FallbackReason {
	switch {
	case sig.BlockedFingerprint:
		return domain.ReasonBotProtected
	case sig.PaywallFingerprint:
		return domain.ReasonPaywalled
	case sig.JSRequired:
		return domain.ReasonJSRequired
	}
	return domain.ReasonLowConfidence
}
