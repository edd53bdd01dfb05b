// ABOUTME: Request DTOs for the parse and cache endpoints
// ABOUTME: Converts wire requests into domain parse requests

package requests

import "linkparse-api/core/domain"

// ParseRequest is the body of POST /parse
type ParseRequest struct {
	// URL is validated by the service so that malformed input gets the failure body
	URL string `json:"url" required:"false" maxLength:"4096" example:"https://example.com/article" doc:"Absolute http(s) URL to parse"`

	SkipCache bool `json:"skip_cache,omitempty" doc:"Bypass the cache read for low-confidence entries; the result is still cached"`
}

// ToDomain converts the request into a domain.ParseRequest
func (r ParseRequest) ToDomain() domain.ParseRequest {
	return domain.ParseRequest{
		URL:          r.URL,
		ForceRefresh: r.SkipCache,
	}
}

// InvalidateRequest is the body of DELETE /cache
type InvalidateRequest struct {
	URL string `json:"url" required:"false" maxLength:"4096" example:"https://example.com/article" doc:"URL whose cached result should be dropped"`
}
