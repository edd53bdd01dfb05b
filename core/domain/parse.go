// ABOUTME: Domain models for link parsing requests and results
// ABOUTME: Defines content types, fallback reasons and the structured parse result

package domain

import "time"

// ContentType classifies what a parsed link points at
type ContentType string

const (
	TypeArticle ContentType = "article"
	TypeVideo   ContentType = "video"
	TypeAudio   ContentType = "audio"
	TypeImage   ContentType = "image"
	TypeCode    ContentType = "code"
	TypeDesign  ContentType = "design"
	TypeProduct ContentType = "product"
	TypeWebview ContentType = "webview"
)

// Valid reports whether t is one of the known content types
func (t ContentType) Valid() bool {
	switch t {
	case TypeArticle, TypeVideo, TypeAudio, TypeImage, TypeCode, TypeDesign, TypeProduct, TypeWebview:
		return true
	}
	return false
}

// FallbackReason explains why a result must be shown in a webview
type FallbackReason string

const (
	ReasonBotProtected  FallbackReason = "bot-protected"
	ReasonJSRequired    FallbackReason = "js-required"
	ReasonPaywalled     FallbackReason = "paywalled"
	ReasonLowConfidence FallbackReason = "low-confidence"
	ReasonFetchError    FallbackReason = "fetch-error"
)

// Ptr returns a pointer to a copy of r
func (r FallbackReason) Ptr() *FallbackReason {
	return &r
}

// ParseRequest is a single request to parse a link
type ParseRequest struct {
	URL          string
	ForceRefresh bool
}

// ParseResult is the normalized, structured representation of a link
type ParseResult struct {
	Title          string          `json:"title"`
	Type           ContentType     `json:"type"`
	ContentHTML    *string         `json:"content_html"`
	CoverImageURL  *string         `json:"cover_image"`
	Domain         string          `json:"domain"`
	Confidence     float64         `json:"confidence"`
	FallbackReason *FallbackReason `json:"fallback_reason,omitempty"`
	FetchedAt      time.Time       `json:"fetched_at"`

	// URL is the final URL after redirects
	URL string `json:"url"`
	// Strategy names the extraction strategy that produced the result
	Strategy string `json:"strategy,omitempty"`
}

// IsWebview reports whether the client should open the original page
func (r *ParseResult) IsWebview() bool {
	return r.Type == TypeWebview
}

// Reason returns the fallback reason or an empty string
func (r *ParseResult) Reason() FallbackReason {
	if r.FallbackReason == nil {
		return ""
	}
	return *r.FallbackReason
}

// Webview turns the result into a webview fallback, dropping any body
func (r *ParseResult) Webview(reason FallbackReason) {
	r.Type = TypeWebview
	r.ContentHTML = nil
	r.FallbackReason = reason.Ptr()
}

// NewWebviewResult builds a webview fallback for a URL that could not be parsed
func NewWebviewResult(u NormalizedURL, reason FallbackReason, now time.Time) ParseResult {
	return ParseResult{
		Title:          u.Domain(),
		Type:           TypeWebview,
		Domain:         u.Domain(),
		Confidence:     0,
		FallbackReason: reason.Ptr(),
		FetchedAt:      now.UTC(),
		URL:            u.String(),
	}
}

// StringPtr returns nil for an empty string and a pointer otherwise
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
