// ABOUTME: Generic readability strategy used when no specialised strategy matches
// ABOUTME: Handles HTML pages, syndication feeds and plain text documents

package strategy

import (
	"context"
	"html"
	"strings"
	"unicode/utf8"

	"linkparse-api/core/domain"
	"linkparse-api/core/interfaces"
)

// Generic fetches the page and runs readability over it
type Generic struct {
	fetcher  interfaces.Fetcher
	analyzer PageAnalyzer
}

// NewGeneric creates the fallback strategy
func NewGeneric(fetcher interfaces.Fetcher, trafilatura bool) *Generic {
	return &Generic{
		fetcher:  fetcher,
		analyzer: PageAnalyzer{Trafilatura: trafilatura},
	}
}

func (g *Generic) Name() string { return "generic" }

func (g *Generic) Kind() domain.StrategyKind { return domain.KindGenericReadability }

// Extract fetches u and dispatches on the response media type
func (g *Generic) Extract(ctx context.Context, u domain.NormalizedURL) (*Draft, error) {
	res, err := g.fetcher.Fetch(ctx, interfaces.FetchRequest{URL: u.String()})
	if err != nil {
		return nil, err
	}
	return g.FromResponse(res, u)
}

// FromResponse builds a draft from an already fetched document
func (g *Generic) FromResponse(res *interfaces.FetchResult, u domain.NormalizedURL) (*Draft, error) {
	switch {
	case IsFeed(res):
		return FeedDraft(res, u)
	case res.ContentType == "text/plain":
		return plainTextDraft(res, u), nil
	case strings.Contains(res.ContentType, "json"):
		return &Draft{Result: domain.ParseResult{
			Title:  u.Domain(),
			Type:   domain.TypeArticle,
			Domain: u.Domain(),
			URL:    res.FinalURL,
		}}, nil
	}
	return g.analyzer.Analyze(res, u)
}

func plainTextDraft(res *interfaces.FetchResult, u domain.NormalizedURL) *Draft {
	text := strings.TrimSpace(string(res.Body))

	var b strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		if para = strings.TrimSpace(para); para != "" {
			b.WriteString("<p>")
			b.WriteString(html.EscapeString(para))
			b.WriteString("</p>")
		}
	}

	title := u.Domain()
	hasTitle := false
	if first, _, _ := strings.Cut(text, "\n"); first != "" && utf8.RuneCountInString(first) <= 120 {
		title = strings.TrimSpace(first)
		hasTitle = true
	}

	return &Draft{
		Result: domain.ParseResult{
			Title:       title,
			Type:        domain.TypeArticle,
			ContentHTML: domain.StringPtr(b.String()),
			Domain:      u.Domain(),
			URL:         res.FinalURL,
		},
		TextLength: utf8.RuneCountInString(text),
		Signals:    Signals{HasTitle: hasTitle},
	}
}
