// ABOUTME: Health handler for liveness checks
// ABOUTME: Reports version and the number of registered strategies

package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"linkparse-api/api/dto/responses"
)

// HealthHandler serves GET /health
type HealthHandler struct {
	version    string
	strategies func() int
}

// NewHealthHandler creates a health handler. strategies may be nil.
func NewHealthHandler(version string, strategies func() int) *HealthHandler {
	return &HealthHandler{version: version, strategies: strategies}
}

// RegisterRoutes registers the health route
func (h *HealthHandler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Liveness check",
		Tags:        []string{"Health"},
	}, h.Health)
}

// HealthOutput defines the output for the Health operation
type HealthOutput struct {
	Body responses.HealthResponse
}

// Health handles GET /health
func (h *HealthHandler) Health(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	resp := responses.HealthResponse{Status: "ok", Version: h.version}
	if h.strategies != nil {
		resp.Strategies = h.strategies()
	}
	return &HealthOutput{Body: resp}, nil
}
