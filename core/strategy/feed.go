// ABOUTME: RSS, Atom and podcast feed handling
// ABOUTME: Podcast feeds become audio, other feeds an article listing the newest entries

package strategy

import (
	"bytes"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/kennygrant/sanitize"
	"github.com/mmcdole/gofeed"

	"linkparse-api/core/domain"
	"linkparse-api/core/errors"
	"linkparse-api/core/interfaces"
)

const maxFeedEntries = 10

// IsFeed reports whether a response is an RSS or Atom document
func IsFeed(res *interfaces.FetchResult) bool {
	ct := res.ContentType
	if strings.Contains(ct, "rss") || strings.Contains(ct, "atom") {
		return true
	}
	if !strings.Contains(ct, "xml") {
		return false
	}
	head := res.Body
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(head, []byte("<rss")) || bytes.Contains(head, []byte("<feed")) || bytes.Contains(head, []byte("<rdf:RDF"))
}

// FeedDraft parses a feed into a draft
func FeedDraft(res *interfaces.FetchResult, u domain.NormalizedURL) (*Draft, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(res.Body))
	if err != nil {
		return nil, &errors.FetchError{URL: res.FinalURL, Cause: errors.WrapError(err, "parse feed")}
	}

	contentType := domain.TypeArticle
	if isPodcast(feed) {
		contentType = domain.TypeAudio
	}

	cover := ""
	if feed.Image != nil {
		cover = feed.Image.URL
	}
	if cover == "" && feed.ITunesExt != nil {
		cover = feed.ITunesExt.Image
	}

	var b strings.Builder
	textLength := 0
	if desc := textOf(feed.Description); desc != "" {
		b.WriteString("<p>" + html.EscapeString(desc) + "</p>")
		textLength += utf8.RuneCountInString(desc)
	}
	b.WriteString("<ul>")
	for i, item := range feed.Items {
		if i == maxFeedEntries {
			break
		}
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		b.WriteString(`<li><a href="` + html.EscapeString(item.Link) + `">` + html.EscapeString(title) + "</a>")
		if summary := textOf(item.Description); summary != "" {
			b.WriteString("<p>" + html.EscapeString(summary) + "</p>")
			textLength += utf8.RuneCountInString(summary)
		}
		b.WriteString("</li>")
		textLength += utf8.RuneCountInString(title)
	}
	b.WriteString("</ul>")

	title := strings.TrimSpace(feed.Title)
	hasTitle := title != ""
	if !hasTitle {
		title = u.Domain()
	}

	return &Draft{
		Result: domain.ParseResult{
			Title:         title,
			Type:          contentType,
			ContentHTML:   domain.StringPtr(b.String()),
			CoverImageURL: domain.StringPtr(cover),
			Domain:        u.Domain(),
			URL:           res.FinalURL,
		},
		TextLength: textLength,
		Signals: Signals{
			HasTitle:          hasTitle,
			HasStructuredData: true,
		},
	}, nil
}

func isPodcast(feed *gofeed.Feed) bool {
	if feed.ITunesExt != nil {
		return true
	}
	for _, item := range feed.Items {
		for _, enc := range item.Enclosures {
			if strings.HasPrefix(enc.Type, "audio/") {
				return true
			}
		}
	}
	return false
}

// textOf strips markup from feed text, leaving it unescaped
func textOf(s string) string {
	return strings.TrimSpace(html.UnescapeString(sanitize.HTML(s)))
}
