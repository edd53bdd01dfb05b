package sanitize

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestSanitize_StripsScriptsAndHandlers(t *testing.T) {
	s := New()
	out := s.Sanitize(`<p onclick="steal()">Hello <script>alert(1)</script><b>world</b></p><style>p{}</style>`, nil)

	assert.NotContains(t, out, "script")
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "alert")
	assert.Contains(t, out, "<b>world</b>")
}

func TestSanitize_RewritesRelativeLinks(t *testing.T) {
	s := New()
	base := mustURL(t, "https://blog.example.com/posts/one")

	out := s.Sanitize(`<p><a href="/about">About</a> <a href="#notes">Notes</a></p>`+
		`<img src="img/a.png" srcset="img/a.png 1x, /img/a@2x.png 2x" alt="a">`, base)

	assert.Contains(t, out, `href="https://blog.example.com/about"`)
	assert.Contains(t, out, `href="#notes"`)
	assert.Contains(t, out, `src="https://blog.example.com/posts/img/a.png"`)
	assert.Contains(t, out, "https://blog.example.com/img/a@2x.png 2x")
}

func TestSanitize_DropsJavaScriptURLs(t *testing.T) {
	out := New().Sanitize(`<a href="javascript:alert(1)">x</a>`, mustURL(t, "https://example.com/"))
	assert.NotContains(t, out, "javascript:")
}

func TestSanitize_IframeAllowlist(t *testing.T) {
	s := New()
	out := s.Sanitize(`<iframe src="https://www.youtube.com/embed/abc" width="560" height="315"></iframe>`+
		`<iframe src="https://evil.example.com/embed/abc"></iframe>`+
		`<iframe src="http://player.vimeo.com/video/1"></iframe>`, nil)

	assert.Contains(t, out, `src="https://www.youtube.com/embed/abc"`)
	assert.NotContains(t, out, "evil.example.com")
	assert.NotContains(t, out, "player.vimeo.com")
}

func TestSanitize_CapsNodes(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 100; i++ {
		b.WriteString("<p>para</p>")
	}

	out := New(WithMaxNodes(20)).Sanitize(b.String(), nil)
	assert.Equal(t, 10, strings.Count(out, "<p>"))
}

func TestSanitize_Empty(t *testing.T) {
	assert.Equal(t, "", New().Sanitize("   ", nil))
}

func TestPlainText(t *testing.T) {
	out := PlainText("<h1>Title</h1>\n\n<p>Fish &amp; <i>chips</i> <script>x</script></p>")
	assert.True(t, strings.HasPrefix(out, "<p>"))
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "Fish &amp; chips")
	assert.NotContains(t, out, "<i>")
}
