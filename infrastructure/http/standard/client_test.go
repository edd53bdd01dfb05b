package standard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkparse-api/core/errors"
	"linkparse-api/core/interfaces"
	"linkparse-api/core/ssrf"
	"linkparse-api/core/throttle"
)

func newTestFetcher(opts ...Option) *Fetcher {
	cfg := DefaultConfig()
	cfg.InitialBackoff = 5 * time.Millisecond
	cfg.MaxBodyBytes = 1 << 16
	loopback, _ := ssrf.ParseCIDRs("127.0.0.0/8", "::1/128")
	return NewFetcher(cfg, ssrf.New(ssrf.WithAllowedNets(loopback...)), opts...)
}

func fetch(t *testing.T, f *Fetcher, url string) (*interfaces.FetchResult, error) {
	t.Helper()
	return f.Fetch(context.Background(), interfaces.FetchRequest{URL: url})
}

func TestFetcher_Success(t *testing.T) {
	var capturedUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><head><title>Hello</title></head><body>hi</body></html>"))
	}))
	defer server.Close()

	res, err := fetch(t, newTestFetcher(), server.URL+"/post")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/html", res.ContentType)
	assert.Contains(t, string(res.Body), "<title>Hello</title>")
	assert.Equal(t, server.URL+"/post", res.FinalURL)
	assert.Equal(t, 1, res.Attempt.Attempts)
	assert.Equal(t, TierDefault.UserAgent, capturedUserAgent)
}

func TestFetcher_NotFoundIsNotRetried(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := fetch(t, newTestFetcher(), server.URL)

	require.Error(t, err)
	assert.True(t, errors.IsFetch(err))
	assert.Equal(t, http.StatusNotFound, errors.StatusCode(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestFetcher_RetriesTransientStatus(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<p>ok</p>"))
	}))
	defer server.Close()

	res, err := fetch(t, newTestFetcher(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Attempt.Attempts)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestFetcher_GivesUpAfterMaxRetries(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := fetch(t, newTestFetcher(), server.URL)

	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, errors.StatusCode(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestFetcher_TooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(strings.Repeat("a", 1<<17)))
	}))
	defer server.Close()

	_, err := fetch(t, newTestFetcher(), server.URL)

	assert.True(t, errors.IsTooLarge(err))
}

func TestFetcher_UnsupportedContentType(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer server.Close()

	_, err := fetch(t, newTestFetcher(), server.URL+"/photo.png")

	require.Error(t, err)
	assert.True(t, errors.IsUnsupportedContentType(err))
	assert.Equal(t, errors.MediaImage, errors.MediaTypeOf(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestFetcher_SniffedMediaClass(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
		w.Write([]byte("%PDF-1.7\n1 0 obj\n<< /Type /Catalog >>\nendobj\n"))
	}))
	defer server.Close()

	_, err := fetch(t, newTestFetcher(), server.URL+"/report")

	require.Error(t, err)
	var unsupported *errors.UnsupportedContentTypeError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "application/pdf", unsupported.ContentType)
	assert.Equal(t, errors.MediaPDF, unsupported.MediaType)
}

func TestFetcher_RedirectToPrivateAddressIsRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://169.254.169.254/latest/meta-data/", http.StatusFound)
	}))
	defer server.Close()

	_, err := fetch(t, newTestFetcher(), server.URL)

	require.Error(t, err)
	assert.True(t, errors.IsSecurityRejected(err))
}

func TestFetcher_RedirectToNonHTTPSchemeIsRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "file:///etc/passwd")
		w.WriteHeader(http.StatusMovedPermanently)
	}))
	defer server.Close()

	_, err := fetch(t, newTestFetcher(), server.URL)

	require.Error(t, err)
	assert.True(t, errors.IsSecurityRejected(err))
}

func TestFetcher_RedirectChainIsCapped(t *testing.T) {
	var hits int32
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		http.Redirect(w, r, server.URL+"/hop/"+string(rune('a'+n)), http.StatusFound)
	}))
	defer server.Close()

	_, err := fetch(t, newTestFetcher(), server.URL)

	require.Error(t, err)
	assert.True(t, errors.IsFetch(err))
	assert.Equal(t, int32(6), atomic.LoadInt32(&hits), "original request plus five redirects, no retries")
}

func TestFetcher_RecordsRedirectChain(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<p>done</p>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	res, err := fetch(t, newTestFetcher(), server.URL+"/start")
	require.NoError(t, err)

	assert.Equal(t, server.URL+"/final", res.FinalURL)
	assert.Equal(t, []string{server.URL + "/final"}, res.Attempt.RedirectChain)
}

func TestFetcher_LoopbackRejectedWithoutNetwork(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	f := NewFetcher(DefaultConfig(), ssrf.New())
	_, err := fetch(t, f, server.URL)

	require.Error(t, err)
	assert.True(t, errors.IsSecurityRejected(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestFetcher_BrowserTierHeaders(t *testing.T) {
	var captured http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Header.Clone()
		w.Header().Set("Content-Type", "text/html")
	}))
	defer server.Close()

	agents := NewUserAgentTable()
	require.True(t, agents.Assign("127.0.0.1", "browser"))

	_, err := fetch(t, newTestFetcher(WithUserAgents(agents)), server.URL)
	require.NoError(t, err)

	assert.Equal(t, TierBrowser.UserAgent, captured.Get("User-Agent"))
	assert.Equal(t, "navigate", captured.Get("Sec-Fetch-Mode"))
}

func TestFetcher_DecodesLegacyCharset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=windows-1252")
		w.Write([]byte("<p>caf\xe9</p>"))
	}))
	defer server.Close()

	res, err := fetch(t, newTestFetcher(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "<p>café</p>", string(res.Body))
}

func TestFetcher_OverloadedDomainFailsFast(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
	}))
	defer server.Close()

	th := throttle.NewDomainThrottle(throttle.Config{Concurrency: 1, QueueDepth: 0})
	release, err := th.Acquire(context.Background(), "127.0.0.1")
	require.NoError(t, err)
	defer release()

	_, err = fetch(t, newTestFetcher(WithThrottle(th)), server.URL)

	assert.True(t, errors.IsOverloaded(err))
}

func TestIsDocumentType(t *testing.T) {
	for _, mt := range []string{"text/html", "text/plain", "application/json", "application/rss+xml", "application/ld+json", "application/xml"} {
		assert.True(t, IsDocumentType(mt), mt)
	}
	for _, mt := range []string{"image/png", "video/mp4", "audio/mpeg", "application/pdf", "application/octet-stream"} {
		assert.False(t, IsDocumentType(mt), mt)
	}
}

func TestUserAgentTable_TierFor(t *testing.T) {
	agents := NewUserAgentTable()

	assert.Equal(t, "browser", agents.TierFor("www.nytimes.com").Name)
	assert.Equal(t, "crawler", agents.TierFor("smile.amazon.com").Name)
	assert.Equal(t, "default", agents.TierFor("example.org").Name)
	assert.False(t, agents.Assign("example.org", "nonexistent"))
}
