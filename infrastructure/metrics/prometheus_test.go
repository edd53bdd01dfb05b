package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkparse-api/core/interfaces"
)

var _ interfaces.Metrics = (*Prometheus)(nil)

func TestPrometheus_Counters(t *testing.T) {
	p := NewPrometheus()

	p.StrategyExecuted("generic", "generic-readability")
	p.StrategyExecuted("generic", "generic-readability")
	p.StrategyExecuted("twitter", "spa-bypass")
	p.CacheLookup("hit")
	p.UpstreamFetch("example.com", "ok", 120*time.Millisecond)
	p.ParseCompleted("article", "")
	p.Revalidation("kept")

	assert.Equal(t, 2.0, testutil.ToFloat64(p.StrategyCount("generic", "generic-readability")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.StrategyCount("twitter", "spa-bypass")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.CacheLookupCount("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.parses.WithLabelValues("article", "none")))
}

func TestPrometheus_RegistriesAreIsolated(t *testing.T) {
	a := NewPrometheus()
	b := NewPrometheus()

	a.CacheLookup("miss")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.CacheLookupCount("miss")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.CacheLookupCount("miss")))
}

func TestPrometheus_Handler(t *testing.T) {
	p := NewPrometheus()
	p.UpstreamFetch("example.com", "404", 10*time.Millisecond)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `linkparse_upstream_fetches_total{domain="example.com",outcome="404"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
