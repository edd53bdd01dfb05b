// ABOUTME: HTML sanitizer for extracted content
// ABOUTME: Allowlist policy, absolute link rewriting, node cap and a plain-text fallback

package sanitize

import (
	"bytes"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	plaintext "github.com/kennygrant/sanitize"
	"github.com/microcosm-cc/bluemonday"
	nethtml "golang.org/x/net/html"
)

// DefaultMaxNodes bounds the size of sanitized output
const DefaultMaxNodes = 5000

// DefaultIframeHosts are the embed players allowed through
var DefaultIframeHosts = []string{
	"www.youtube.com/embed/",
	"youtube.com/embed/",
	"www.youtube-nocookie.com/embed/",
	"player.vimeo.com/video/",
	"open.spotify.com/embed/",
	"w.soundcloud.com/player/",
}

var dimension = regexp.MustCompile(`^[0-9]{1,4}(%|px)?$`)

// Sanitizer cleans untrusted HTML
type Sanitizer struct {
	policy      *bluemonday.Policy
	maxNodes    int
	iframeHosts []string
}

// Option configures a Sanitizer
type Option func(*Sanitizer)

// WithMaxNodes caps the number of nodes kept
func WithMaxNodes(n int) Option {
	return func(s *Sanitizer) {
		if n > 0 {
			s.maxNodes = n
		}
	}
}

// WithIframeHosts replaces the iframe allowlist. Entries are host plus path prefix.
func WithIframeHosts(prefixes ...string) Option {
	return func(s *Sanitizer) {
		s.iframeHosts = prefixes
	}
}

// New creates a sanitizer with the UGC policy plus embeds
func New(opts ...Option) *Sanitizer {
	s := &Sanitizer{
		policy:      newPolicy(),
		maxNodes:    DefaultMaxNodes,
		iframeHosts: DefaultIframeHosts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("figure", "figcaption", "picture", "video", "audio", "source", "iframe")
	p.AllowAttrs("srcset", "sizes").OnElements("img", "source")
	p.AllowAttrs("src", "type", "media").OnElements("source")
	p.AllowAttrs("src", "poster", "controls", "preload").OnElements("video", "audio")
	p.AllowAttrs("src", "title", "allow", "allowfullscreen").OnElements("iframe")
	p.AllowAttrs("width", "height").Matching(dimension).OnElements("iframe", "video")
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Sanitize returns a safe version of content with links resolved against base.
// It never fails: when the markup cannot be processed the text is returned as
// escaped paragraphs.
func (s *Sanitizer) Sanitize(content string, base *url.URL) (out string) {
	if strings.TrimSpace(content) == "" {
		return ""
	}

	defer func() {
		if r := recover(); r != nil {
			out = PlainText(content)
		}
	}()

	prepared, err := s.prepare(content, base)
	if err != nil {
		return PlainText(content)
	}
	return strings.TrimSpace(s.policy.Sanitize(prepared))
}

// prepare rewrites links, drops unknown iframes and applies the node cap
func (s *Sanitizer) prepare(content string, base *url.URL) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parse content: %w", err)
	}

	doc.Find("iframe").Each(func(_ int, sel *goquery.Selection) {
		src := absolute(base, sel.AttrOr("src", ""))
		if !s.iframeAllowed(src) {
			sel.Remove()
			return
		}
		sel.SetAttr("src", src)
	})

	if base != nil {
		for _, attr := range []string{"href", "src", "poster"} {
			doc.Find("[" + attr + "]").Each(func(_ int, sel *goquery.Selection) {
				if v, ok := sel.Attr(attr); ok {
					sel.SetAttr(attr, absolute(base, v))
				}
			})
		}
		doc.Find("[srcset]").Each(func(_ int, sel *goquery.Selection) {
			sel.SetAttr("srcset", absoluteSrcset(base, sel.AttrOr("srcset", "")))
		})
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		return "", fmt.Errorf("content has no body")
	}
	capNodes(body.Nodes[0], s.maxNodes)

	var buf bytes.Buffer
	for c := body.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		if err := nethtml.Render(&buf, c); err != nil {
			return "", fmt.Errorf("render content: %w", err)
		}
	}
	return buf.String(), nil
}

func (s *Sanitizer) iframeAllowed(src string) bool {
	u, err := url.Parse(src)
	if err != nil || u.Scheme != "https" {
		return false
	}
	target := strings.ToLower(u.Host) + u.Path
	for _, prefix := range s.iframeHosts {
		if strings.HasPrefix(target, prefix) {
			return true
		}
	}
	return false
}

// capNodes keeps the first max nodes below root in document order and drops the rest
func capNodes(root *nethtml.Node, max int) {
	count := 0
	var drop []*nethtml.Node
	var walk func(n *nethtml.Node)
	walk = func(n *nethtml.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if count >= max {
				drop = append(drop, c)
				continue
			}
			count++
			walk(c)
		}
	}
	walk(root)
	for _, n := range drop {
		n.Parent.RemoveChild(n)
	}
}

func absolute(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || base == nil || strings.HasPrefix(ref, "#") {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}

func absoluteSrcset(base *url.URL, srcset string) string {
	candidates := strings.Split(srcset, ",")
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		fields := strings.Fields(c)
		if len(fields) == 0 {
			continue
		}
		fields[0] = absolute(base, fields[0])
		out = append(out, strings.Join(fields, " "))
	}
	return strings.Join(out, ", ")
}

var blockClosers = strings.NewReplacer(
	"</h1>", "</p>", "</h2>", "</p>", "</h3>", "</p>", "</h4>", "</p>",
	"</li>", "</p>", "</div>", "</p>", "</blockquote>", "</p>", "</pre>", "</p>",
)

// PlainText strips all markup and returns the text as escaped paragraphs
func PlainText(content string) string {
	text := html.UnescapeString(plaintext.HTML(blockClosers.Replace(content)))

	var b strings.Builder
	for _, para := range strings.Split(text, "\n") {
		para = strings.Join(strings.Fields(para), " ")
		if para == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(para))
		b.WriteString("</p>")
	}
	return b.String()
}
