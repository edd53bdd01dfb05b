// ABOUTME: HTML page analysis shared by the generic and typed strategies
// ABOUTME: Runs readability with a trafilatura fallback and detects JavaScript-only shells

package strategy

import (
	"bytes"
	"net/url"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"

	"linkparse-api/core/domain"
	"linkparse-api/core/errors"
	"linkparse-api/core/interfaces"
)

const (
	// below this many runes readability output is retried with trafilatura
	minReadableText = 500

	// below this many runes a script-heavy page is treated as a JavaScript shell
	spaTextThreshold = 200
)

// mountPoints are the empty root elements client-side frameworks render into
var mountPoints = []string{"#root", "#app", "#__next", "#__nuxt", "#___gatsby", "[data-reactroot]", "app-root"}

// PageAnalyzer turns a fetched HTML document into a Draft
type PageAnalyzer struct {
	// Trafilatura enables the trafilatura fallback for short readability output
	Trafilatura bool
}

// Analyze extracts title, body, cover, type and signals from an HTML response
func (a PageAnalyzer) Analyze(res *interfaces.FetchResult, u domain.NormalizedURL) (*Draft, error) {
	base, err := url.Parse(res.FinalURL)
	if err != nil || base.Host == "" {
		base = u.URL()
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		return nil, &errors.FetchError{URL: res.FinalURL, Cause: errors.WrapError(err, "parse html")}
	}
	raw := string(res.Body)

	meta := ExtractMetadata(doc, raw, base)

	var contentHTML, readTitle, readImage string
	textLength := 0
	if article, err := readability.FromReader(bytes.NewReader(res.Body), base); err == nil {
		contentHTML = article.Content
		readTitle = strings.TrimSpace(article.Title)
		readImage = article.Image
		textLength = utf8.RuneCountInString(strings.TrimSpace(article.TextContent))
	}

	if a.Trafilatura && textLength < minReadableText {
		if content, text, title := extractWithTrafilatura(res.Body, base); utf8.RuneCountInString(text) > textLength {
			contentHTML = content
			textLength = utf8.RuneCountInString(text)
			if readTitle == "" {
				readTitle = title
			}
		}
	}

	title := firstNonEmpty(meta.Title, readTitle, meta.DocTitle)
	cover := meta.Image
	if cover == "" {
		cover = resolve(base, readImage)
	}

	contentType, declared := meta.ContentType()
	if !declared {
		contentType = domain.TypeArticle
	}

	signals := Signals{
		HasTitle:           title != "" && !IsGenericTitle(title, meta.SiteName, u),
		HasStructuredData:  meta.HasOpenGraph || meta.HasJSONLD,
		BlockedFingerprint: IsBlocked(raw),
		PaywallFingerprint: meta.NotFree || IsPaywalled(raw),
	}
	signals.JSRequired = textLength < spaTextThreshold && looksLikeJavaScriptShell(doc, raw)

	if title == "" {
		title = u.Domain()
	}
	if textLength == 0 {
		contentHTML = ""
	}

	return &Draft{
		Result: domain.ParseResult{
			Title:         title,
			Type:          contentType,
			ContentHTML:   domain.StringPtr(contentHTML),
			CoverImageURL: domain.StringPtr(cover),
			Domain:        u.Domain(),
			URL:           res.FinalURL,
		},
		TextLength: textLength,
		Signals:    signals,
	}, nil
}

// extractWithTrafilatura returns content HTML, plain text and title
func extractWithTrafilatura(body []byte, base *url.URL) (string, string, string) {
	result, err := trafilatura.Extract(bytes.NewReader(body), trafilatura.Options{
		OriginalURL:    base,
		EnableFallback: true,
	})
	if err != nil || result == nil || result.ContentNode == nil {
		return "", "", ""
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, result.ContentNode); err != nil {
		return "", "", ""
	}
	return buf.String(), result.ContentText, strings.TrimSpace(result.Metadata.Title)
}

// looksLikeJavaScriptShell reports whether the page body is rendered client-side
func looksLikeJavaScriptShell(doc *goquery.Document, raw string) bool {
	body := doc.Find("body")
	bodyText := strings.TrimSpace(body.Clone().Find("script, style, noscript, template").Remove().End().Text())

	scriptBytes := 0
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		scriptBytes += len(s.Text())
		if _, ok := s.Attr("src"); ok {
			scriptBytes += 1024
		}
	})

	if len(bodyText) < spaTextThreshold && scriptBytes > 4*max(len(bodyText), 1) {
		return true
	}
	for _, sel := range mountPoints {
		if mount := doc.Find(sel).First(); mount.Length() > 0 && strings.TrimSpace(mount.Text()) == "" && len(bodyText) < spaTextThreshold {
			return true
		}
	}
	return len(bodyText) < spaTextThreshold && MentionsJavaScript(raw)
}

// titleSeparators split "Page | Site" style titles
var titleSeparators = []string{" | ", " - ", " – ", " — ", " :: ", " · ", " : "}

// IsGenericTitle reports whether title carries no information beyond the URL
// or the site name. "Site | Site" repeats count as generic.
func IsGenericTitle(title, siteName string, u domain.NormalizedURL) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	switch t {
	case "", "home", "index", "untitled", "untitled document", "loading", "loading...",
		"just a moment...", "access denied", "attention required! | cloudflare",
		"403 forbidden", "404 not found", "page not found", "error", "sign in", "log in", "login":
		return true
	}

	host := strings.ToLower(u.Host())
	names := []string{host, strings.TrimPrefix(host, "www."), strings.ToLower(u.String())}
	if site := strings.ToLower(strings.TrimSpace(siteName)); site != "" {
		names = append(names, site)
	}

	parts := []string{t}
	for _, sep := range titleSeparators {
		var next []string
		for _, p := range parts {
			next = append(next, strings.Split(p, sep)...)
		}
		parts = next
	}
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" && !slices.Contains(names, p) {
			return false
		}
	}
	return true
}
