// ABOUTME: Public types for the linkparse library API
// ABOUTME: Provides user-friendly types that wrap internal domain models

package linkparse

import (
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"linkparse-api/core/domain"
)

// Result is a parsed link
type Result struct {
	Title          string    `json:"title"`
	Type           string    `json:"type"`
	Domain         string    `json:"domain"`
	ContentHTML    string    `json:"content_html,omitempty"`
	CoverImage     string    `json:"cover_image,omitempty"`
	Confidence     float64   `json:"confidence"`
	FallbackReason string    `json:"fallback_reason,omitempty"`
	FetchedAt      time.Time `json:"fetched_at"`
	URL            string    `json:"url"`
	Strategy       string    `json:"strategy,omitempty"`
}

// IsWebview reports whether the original page should be shown instead
func (r *Result) IsWebview() bool {
	return r.Type == string(domain.TypeWebview)
}

// Markdown renders ContentHTML as Markdown. Webview results render as an empty string.
func (r *Result) Markdown() (string, error) {
	if r.ContentHTML == "" {
		return "", nil
	}
	converter := md.NewConverter("", true, nil)
	out, err := converter.ConvertString(r.ContentHTML)
	if err != nil {
		return "", NewError(ErrorTypeInternal, "render markdown").WithCause(err)
	}
	return out, nil
}

func domainResultToPublic(r *domain.ParseResult) *Result {
	out := &Result{
		Title:          r.Title,
		Type:           string(r.Type),
		Domain:         r.Domain,
		Confidence:     r.Confidence,
		FallbackReason: string(r.Reason()),
		FetchedAt:      r.FetchedAt,
		URL:            r.URL,
		Strategy:       r.Strategy,
	}
	if r.ContentHTML != nil {
		out.ContentHTML = *r.ContentHTML
	}
	if r.CoverImageURL != nil {
		out.CoverImage = *r.CoverImageURL
	}
	return out
}
