// ABOUTME: Extraction pipeline: strategy selection, sanitization and scoring
// ABOUTME: Also hosts the background revalidation that heals low-confidence entries

package parser

import (
	"context"
	"net/url"
	"path"
	"strings"
	"time"

	"linkparse-api/core/domain"
	"linkparse-api/core/errors"
	"linkparse-api/core/workers"
)

// run extracts, sanitizes and scores u. The returned TTL is zero when the
// result must not be cached.
func (s *Service) run(ctx context.Context, u domain.NormalizedURL) (domain.ParseResult, time.Duration, error) {
	logger := s.logger(ctx)
	desc, impl := s.registry.Select(u)
	s.deps.Metrics.StrategyExecuted(desc.Name, string(desc.Kind))

	started := s.now()
	draft, err := impl.Extract(ctx, u)
	if err != nil {
		switch {
		case errors.IsOverloaded(err), errors.IsSecurityRejected(err):
			return domain.ParseResult{}, 0, err
		}

		result := domain.NewWebviewResult(u, domain.ReasonFetchError, s.now())
		result.Strategy = desc.Name
		s.deps.Metrics.ParseCompleted(string(result.Type), string(result.Reason()))

		fields := map[string]interface{}{
			"url":      u.String(),
			"strategy": desc.Name,
			"error":    err.Error(),
		}
		if errors.IsTimeout(err) || ctx.Err() != nil {
			logger.Warn("Extraction timed out", fields)
			return result, 0, nil
		}
		if media := errors.MediaTypeOf(err); media != "" {
			// direct media is cached for the webview TTL
			if name := mediaTitle(u); name != "" {
				result.Title = name
			}
			fields["media_type"] = media
			logger.Info("Direct media link, falling back to webview", fields)
			return result, s.config.TTL.Webview, nil
		}
		if status := errors.StatusCode(err); status > 0 {
			fields["status"] = status
		}
		logger.Info("Extraction failed, falling back to webview", fields)
		return result, s.config.TTL.FetchError, nil
	}

	if draft.Result.ContentHTML != nil {
		base := u.URL()
		if draft.Result.URL != "" {
			if final, err := url.Parse(draft.Result.URL); err == nil && final.IsAbs() {
				base = final
			}
		}
		clean := s.sanitizer.Sanitize(*draft.Result.ContentHTML, base)
		draft.Result.ContentHTML = domain.StringPtr(clean)
	}

	result := s.scorer.Score(draft)
	result.Strategy = desc.Name
	result.FetchedAt = s.now().UTC()
	if result.URL == "" {
		result.URL = u.String()
	}
	if result.Domain == "" {
		result.Domain = u.Domain()
	}
	if result.Title == "" {
		result.Title = result.Domain
	}

	s.deps.Metrics.ParseCompleted(string(result.Type), string(result.Reason()))
	logger.Debug("Parsed URL", map[string]interface{}{
		"url":        u.String(),
		"strategy":   desc.Name,
		"type":       string(result.Type),
		"confidence": result.Confidence,
		"elapsed":    s.now().Sub(started).String(),
	})

	ttl := s.config.TTL.Success
	if result.IsWebview() {
		ttl = s.config.TTL.Webview
	}
	return result, ttl, nil
}

// mediaTitle returns the file name of a direct media link
func mediaTitle(u domain.NormalizedURL) string {
	name := path.Base(u.URL().Path)
	if name == "." || name == "/" {
		return ""
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return strings.TrimSpace(name)
}

// revalidate re-runs the pipeline for a stale entry and keeps whichever
// result scores higher
func (s *Service) revalidate(ctx context.Context, job workers.RevalidationJob) {
	leaseKey := leasePrefix + job.URL.Key()
	acquired, err := s.deps.Cache.AcquireLease(ctx, leaseKey, s.config.LeaseTTL)
	if err != nil || !acquired {
		// a foreground request or another instance is already on it
		return
	}
	defer s.release(ctx, leaseKey)

	current := s.lookup(ctx, job.Key)
	if current == nil {
		return
	}
	now := s.now()
	if !current.DueForValidation(now, s.config.MinRevalidateInterval) {
		return
	}

	result, ttl, err := s.run(ctx, job.URL)
	if err != nil || (result.IsWebview() && result.Reason() == domain.ReasonFetchError) {
		s.deps.Metrics.Revalidation("failed")
		current.LastValidatedAt = now
		s.write(ctx, current, current.TTL(now))
		return
	}

	if result.Confidence > current.Result.Confidence && ttl > 0 {
		s.deps.Metrics.Revalidation("replaced")
		s.logger(ctx).Info("Replaced low-confidence entry", map[string]interface{}{
			"url":            job.URL.String(),
			"old_confidence": current.Result.Confidence,
			"new_confidence": result.Confidence,
		})
		replacement := domain.CacheEntry{
			Key:             job.Key,
			Result:          result,
			CreatedAt:       current.CreatedAt,
			LastValidatedAt: now,
			ExpiresAt:       now.Add(ttl),
			HitCount:        current.HitCount,
		}
		s.write(ctx, &replacement, ttl)
		return
	}

	s.deps.Metrics.Revalidation("kept")
	current.LastValidatedAt = now
	s.write(ctx, current, current.TTL(now))
}
