package quality

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"linkparse-api/core/domain"
	"linkparse-api/core/strategy"
)

func draft(textLength int, sig strategy.Signals) *strategy.Draft {
	return &strategy.Draft{
		Result: domain.ParseResult{
			Title:       "Title",
			Type:        domain.TypeArticle,
			ContentHTML: domain.StringPtr("<p>body</p>"),
			Domain:      "example.com",
		},
		TextLength: textLength,
		Signals:    sig,
	}
}

func TestScore_FullArticle(t *testing.T) {
	s := NewScorer(DefaultWeights())
	result := s.Score(draft(2000, strategy.Signals{HasTitle: true, HasStructuredData: true}))

	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, domain.TypeArticle, result.Type)
	assert.Nil(t, result.FallbackReason)
	assert.NotNil(t, result.ContentHTML)
}

func TestScore_PartialTextCredit(t *testing.T) {
	s := NewScorer(DefaultWeights())
	result := s.Score(draft(350, strategy.Signals{HasTitle: true}))

	// 0.2 not blocked + 0.3 title + 0.3 * 150/300
	assert.InDelta(t, 0.65, result.Confidence, 0.001)
	assert.Equal(t, domain.TypeArticle, result.Type)
}

func TestScore_BlockedIsZeroAndBotProtected(t *testing.T) {
	s := NewScorer(DefaultWeights())
	result := s.Score(draft(5000, strategy.Signals{HasTitle: true, HasStructuredData: true, BlockedFingerprint: true}))

	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, domain.TypeWebview, result.Type)
	assert.Equal(t, domain.ReasonBotProtected, result.Reason())
	assert.Nil(t, result.ContentHTML)
}

func TestScore_TruncatedPaywall(t *testing.T) {
	s := NewScorer(DefaultWeights())
	result := s.Score(draft(150, strategy.Signals{HasTitle: true, HasStructuredData: true, PaywallFingerprint: true}))

	assert.Less(t, result.Confidence, 0.3)
	assert.Equal(t, domain.TypeWebview, result.Type)
	assert.Equal(t, domain.ReasonPaywalled, result.Reason())
}

func TestScore_LowConfidence(t *testing.T) {
	s := NewScorer(DefaultWeights())
	result := s.Score(draft(10, strategy.Signals{}))

	assert.InDelta(t, 0.2, result.Confidence, 0.001)
	assert.Equal(t, domain.ReasonLowConfidence, result.Reason())
}

func TestScore_PlatformFloor(t *testing.T) {
	s := NewScorer(DefaultWeights())
	d := draft(20, strategy.Signals{HasTitle: true, Platform: true})
	d.Result.Type = domain.TypeVideo

	result := s.Score(d)
	assert.Equal(t, 0.8, result.Confidence)
	assert.Equal(t, domain.TypeVideo, result.Type)
}

func TestScore_JavaScriptShell(t *testing.T) {
	s := NewScorer(DefaultWeights())
	result := s.Score(draft(40, strategy.Signals{HasTitle: true, HasStructuredData: true, JSRequired: true}))

	assert.Equal(t, domain.TypeWebview, result.Type)
	assert.Equal(t, domain.ReasonJSRequired, result.Reason())
}

func TestScore_ArticleWithoutContent(t *testing.T) {
	s := NewScorer(DefaultWeights())
	d := draft(0, strategy.Signals{HasTitle: true, HasStructuredData: true})
	d.Result.ContentHTML = nil

	result := s.Score(d)
	assert.Equal(t, domain.TypeWebview, result.Type)
	assert.Equal(t, domain.ReasonLowConfidence, result.Reason())
}

func TestScore_PreservesStrategyWebview(t *testing.T) {
	s := NewScorer(DefaultWeights())
	webview := domain.NewWebviewResult(domain.NormalizedURL{}, domain.ReasonJSRequired, time.Now())
	result := s.Score(&strategy.Draft{Result: webview, Signals: strategy.Signals{JSRequired: true}})

	assert.Equal(t, domain.TypeWebview, result.Type)
	assert.Equal(t, domain.ReasonJSRequired, result.Reason())
	assert.Equal(t, 0.0, result.Confidence)
}

func TestScore_GateInvariant(t *testing.T) {
	s := NewScorer(DefaultWeights())
	rng := rand.New(rand.NewSource(7))
	types := []domain.ContentType{domain.TypeArticle, domain.TypeVideo, domain.TypeImage, domain.TypeProduct}

	for i := 0; i < 2000; i++ {
		d := draft(rng.Intn(1500), strategy.Signals{
			HasTitle:           rng.Intn(2) == 0,
			HasStructuredData:  rng.Intn(2) == 0,
			Platform:           rng.Intn(4) == 0,
			BlockedFingerprint: rng.Intn(5) == 0,
			PaywallFingerprint: rng.Intn(5) == 0,
			JSRequired:         rng.Intn(5) == 0,
		})
		d.Result.Type = types[rng.Intn(len(types))]
		if rng.Intn(6) == 0 {
			d.Result.ContentHTML = nil
		}

		result := s.Score(d)
		assert.True(t, result.Confidence >= 0 && result.Confidence <= 1)
		if result.Confidence < 0.3 {
			assert.Equal(t, domain.TypeWebview, result.Type)
			assert.NotNil(t, result.FallbackReason)
		}
		if result.IsWebview() {
			assert.Nil(t, result.ContentHTML)
			assert.NotNil(t, result.FallbackReason)
		}
		if result.Type == domain.TypeArticle {
			assert.NotNil(t, result.ContentHTML)
		}
	}
}
