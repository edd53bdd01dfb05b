package interfaces

import (
	"context"
	"net/http"

	"linkparse-api/core/domain"
)

// FetchRequest describes a single upstream GET
type FetchRequest struct {
	// URL is the absolute URL to fetch
	URL string

	// Accept overrides the default Accept header. JSON platform APIs set this.
	Accept string
}

// FetchResult is a fully read upstream response
type FetchResult struct {
	// FinalURL is the URL after following redirects
	FinalURL string

	// StatusCode is the final HTTP status
	StatusCode int

	// ContentType is the media type without parameters, lowercased
	ContentType string

	// Body holds the decoded (UTF-8) response body
	Body []byte

	// Header holds the final response headers
	Header http.Header

	// Attempt records redirects, bytes read and timing
	Attempt domain.FetchAttempt
}

// Fetcher defines the interface for retrieving upstream documents.
// Implementations must enforce the SSRF guard on every hop, cap body size,
// bound time and retry only transient failures.
//
// Errors are typed (see core/errors): FetchError, TooLargeError,
// UnsupportedContentTypeError, SecurityRejectedError, TimeoutError and
// OverloadedError.
type Fetcher interface {
	// Fetch performs a guarded GET and returns the fully read body.
	Fetch(ctx context.Context, req FetchRequest) (*FetchResult, error)
}
