// ABOUTME: Structured-metadata strategy for sites whose content type is known by domain
// ABOUTME: Reuses page analysis and pins the result type

package strategy

import (
	"context"

	"linkparse-api/core/domain"
)

// Typed analyzes the page like Generic but reports a fixed content type
type Typed struct {
	name string
	typ  domain.ContentType
	page *Generic
}

// NewTyped creates a strategy that labels its results with typ
func NewTyped(name string, typ domain.ContentType, page *Generic) *Typed {
	return &Typed{name: name, typ: typ, page: page}
}

func (s *Typed) Name() string { return s.name }

func (s *Typed) Kind() domain.StrategyKind { return domain.KindStructuredMetadata }

// Extract runs page analysis and pins the type. A declared video or audio
// type on the page itself wins over the domain default.
func (s *Typed) Extract(ctx context.Context, u domain.NormalizedURL) (*Draft, error) {
	draft, err := s.page.Extract(ctx, u)
	if err != nil {
		return nil, err
	}
	if draft.Result.Type == domain.TypeVideo || draft.Result.Type == domain.TypeAudio {
		return draft, nil
	}
	draft.Result.Type = s.typ
	return draft, nil
}
