// ABOUTME: Parse handler for the Huma API
// ABOUTME: Exposes link parsing and cache invalidation over HTTP

package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"linkparse-api/api/dto/mappers"
	"linkparse-api/api/dto/requests"
	"linkparse-api/api/dto/responses"
	"linkparse-api/core/interfaces"
)

// ParseHandler handles link parsing requests
type ParseHandler struct {
	parseService interfaces.ParseService
	logger       interfaces.Logger
}

// NewParseHandler creates a new parse handler
func NewParseHandler(parseService interfaces.ParseService, logger interfaces.Logger) *ParseHandler {
	if logger == nil {
		logger = interfaces.NopLogger{}
	}
	return &ParseHandler{
		parseService: parseService,
		logger:       logger,
	}
}

// RegisterRoutes registers all parse-related routes
func (h *ParseHandler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "parseURL",
		Method:      http.MethodPost,
		Path:        "/parse",
		Summary:     "Parse a link",
		Description: "Fetches a URL and returns its title, type, sanitized content and cover image, or a webview fallback",
		Tags:        []string{"Parse"},
		Errors:      []int{http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
	}, h.Parse)

	huma.Register(api, huma.Operation{
		OperationID: "invalidateCache",
		Method:      http.MethodDelete,
		Path:        "/cache",
		Summary:     "Invalidate a cached result",
		Description: "Drops the cached parse result for a URL so the next request fetches it again",
		Tags:        []string{"Parse"},
		Errors:      []int{http.StatusBadRequest},
	}, h.Invalidate)
}

// ParseInput defines the input for the Parse operation
type ParseInput struct {
	Body requests.ParseRequest
}

// ParseOutput defines the output for the Parse operation
type ParseOutput struct {
	Body responses.ParseResponse
}

// Parse handles POST /parse
func (h *ParseHandler) Parse(ctx context.Context, input *ParseInput) (*ParseOutput, error) {
	result, err := h.parseService.Parse(ctx, input.Body.ToDomain())
	if err != nil {
		h.logger.Info("Parse rejected", map[string]interface{}{
			"request_id": interfaces.RequestIDFromContext(ctx),
			"error":      err.Error(),
		})
		return nil, toFailure(err)
	}

	return &ParseOutput{
		Body: mappers.ToParseResponse(result),
	}, nil
}

// InvalidateInput defines the input for the Invalidate operation
type InvalidateInput struct {
	Body requests.InvalidateRequest
}

// InvalidateOutput defines the output for the Invalidate operation
type InvalidateOutput struct {
	Body responses.InvalidateResponse
}

// Invalidate handles DELETE /cache
func (h *ParseHandler) Invalidate(ctx context.Context, input *InvalidateInput) (*InvalidateOutput, error) {
	if err := h.parseService.Invalidate(ctx, input.Body.URL); err != nil {
		return nil, toFailure(err)
	}
	return &InvalidateOutput{Body: responses.InvalidateResponse{Success: true}}, nil
}
