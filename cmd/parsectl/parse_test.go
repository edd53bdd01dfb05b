package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func pageServer(t *testing.T) *httptest.Server {
	t.Helper()
	body := strings.Repeat("<p>The command line client prints the same result the server would return for this page.</p>", 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>CLI page</title></head><body><article><h1>CLI page</h1>` + body + `</article></body></html>`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestParseCommand_JSON(t *testing.T) {
	srv := pageServer(t)

	out, err := run(t, "parse", "--allow-cidr", "127.0.0.0/8", srv.URL)
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "article", result["type"])
	assert.Equal(t, "CLI page", result["title"])
}

func TestParseCommand_Markdown(t *testing.T) {
	srv := pageServer(t)

	out, err := run(t, "parse", "--allow-cidr", "127.0.0.0/8", "--markdown", srv.URL)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# CLI page\n"))
	assert.Contains(t, out, "The command line client prints")
}

func TestParseCommand_BlockedByDefault(t *testing.T) {
	srv := pageServer(t)

	_, err := run(t, "parse", srv.URL)
	assert.Error(t, err)
}

func TestParseCommand_InvalidAllowCIDR(t *testing.T) {
	srv := pageServer(t)

	_, err := run(t, "parse", "--allow-cidr", "not-a-range", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid allowed CIDR")

	out, err := run(t, "parse", "--allow-cidr", "127.0.0.1", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, `"type": "article"`)
}

func TestParseCommand_RequiresURL(t *testing.T) {
	_, err := run(t, "parse")
	assert.Error(t, err)
}

func TestNormalizeCommand(t *testing.T) {
	out, err := run(t, "normalize", "HTTP://Example.com:80/a?utm_campaign=x#top")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/a\n", out)

	_, err = run(t, "normalize", "ftp://example.com")
	assert.Error(t, err)
}

func TestStrategiesCommand(t *testing.T) {
	out, err := run(t, "strategies", "--spa-domain", "dash.example.com")
	require.NoError(t, err)

	names := strings.Fields(out)
	assert.GreaterOrEqual(t, len(names), 20)
	assert.Contains(t, names, "spa-configured")
}

func TestRootCommand_UnknownCache(t *testing.T) {
	_, err := run(t, "strategies", "--cache", "memcached")
	assert.Error(t, err)
}
