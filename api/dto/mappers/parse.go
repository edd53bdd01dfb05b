// ABOUTME: Maps domain parse results to API response DTOs
// ABOUTME: Acts as the response composer for the HTTP layer

package mappers

import (
	"linkparse-api/api/dto/responses"
	"linkparse-api/core/domain"
)

// ToParseResponse converts a domain result into the success body
func ToParseResponse(r *domain.ParseResult) responses.ParseResponse {
	if r == nil {
		return responses.ParseResponse{}
	}
	return responses.ParseResponse{
		Success:        true,
		Title:          r.Title,
		Type:           string(r.Type),
		Domain:         r.Domain,
		ContentHTML:    r.ContentHTML,
		CoverImage:     r.CoverImageURL,
		Confidence:     r.Confidence,
		FallbackReason: string(r.Reason()),
		FetchedAt:      r.FetchedAt,
		URL:            r.URL,
		Strategy:       r.Strategy,
	}
}
