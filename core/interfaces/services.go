// ABOUTME: Service interfaces for the core business logic
// ABOUTME: Defines contracts for services used throughout the application

package interfaces

import (
	"context"

	"linkparse-api/core/domain"
)

// ParseService turns a raw URL into a structured parse result.
//
// Parse returns an error only for rejected input (InvalidURLError,
// SecurityRejectedError) and for capacity exhaustion (OverloadedError).
// Every other failure degrades into a webview result.
type ParseService interface {
	Parse(ctx context.Context, req domain.ParseRequest) (*domain.ParseResult, error)

	// Invalidate drops the cached entry for rawURL
	Invalidate(ctx context.Context, rawURL string) error
}
