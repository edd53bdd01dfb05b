// ABOUTME: Response DTOs for the parse endpoint
// ABOUTME: ParseFailure doubles as the error type handlers return to huma

package responses

import (
	"net/http"
	"strconv"
	"time"
)

// ParseResponse is the success body of POST /parse
type ParseResponse struct {
	Success        bool      `json:"success" doc:"Always true for a parsed result"`
	Title          string    `json:"title" doc:"Page title, or the domain for webview results"`
	Type           string    `json:"type" enum:"article,video,audio,image,code,design,product,webview" doc:"Content type"`
	Domain         string    `json:"domain" doc:"Host without www"`
	ContentHTML    *string   `json:"content_html" nullable:"true" doc:"Sanitized body markup"`
	CoverImage     *string   `json:"cover_image" nullable:"true" doc:"Absolute cover image URL"`
	Confidence     float64   `json:"confidence" minimum:"0" maximum:"1" doc:"Extraction quality score"`
	FallbackReason string    `json:"fallback_reason,omitempty" enum:"bot-protected,js-required,paywalled,low-confidence,fetch-error" doc:"Why the client should open a webview"`
	FetchedAt      time.Time `json:"fetched_at" doc:"When the page was fetched"`
	URL            string    `json:"url,omitempty" doc:"Final URL after redirects"`
	Strategy       string    `json:"strategy,omitempty" doc:"Extraction strategy that produced the result"`
}

// ParseFailure is the failure body. It still names a type so the client can
// always fall back to a webview.
type ParseFailure struct {
	Success        bool   `json:"success"`
	Message        string `json:"error"`
	Type           string `json:"type"`
	FallbackReason string `json:"fallback_reason"`

	status     int
	retryAfter time.Duration
}

// NewParseFailure builds a failure with the given HTTP status
func NewParseFailure(status int, message string) *ParseFailure {
	return &ParseFailure{
		Message:        message,
		Type:           "webview",
		FallbackReason: "fetch-error",
		status:         status,
	}
}

// WithRetryAfter sets the Retry-After header sent with the failure
func (f *ParseFailure) WithRetryAfter(d time.Duration) *ParseFailure {
	f.retryAfter = d
	return f
}

func (f *ParseFailure) Error() string {
	return f.Message
}

// GetStatus implements huma.StatusError
func (f *ParseFailure) GetStatus() int {
	return f.status
}

// GetHeaders implements huma.HeadersError
func (f *ParseFailure) GetHeaders() http.Header {
	if f.retryAfter <= 0 {
		return nil
	}
	secs := int((f.retryAfter + time.Second - 1) / time.Second)
	return http.Header{"Retry-After": []string{strconv.Itoa(secs)}}
}

// InvalidateResponse is the body of DELETE /cache
type InvalidateResponse struct {
	Success bool `json:"success"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status     string `json:"status" example:"ok"`
	Version    string `json:"version" example:"1.0.0"`
	Strategies int    `json:"strategies" doc:"Number of registered extraction strategies"`
}
