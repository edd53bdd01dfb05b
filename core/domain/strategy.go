// ABOUTME: Strategy and fetch bookkeeping types shared across the pipeline
// ABOUTME: Defines strategy kinds and the ephemeral per-fetch attempt record

package domain

import "time"

// StrategyKind groups extraction strategies by how they obtain content
type StrategyKind string

const (
	KindPlatformAPI        StrategyKind = "platform-api"
	KindStructuredMetadata StrategyKind = "structured-metadata"
	KindGenericReadability StrategyKind = "generic-readability"
	KindSPABypass          StrategyKind = "spa-bypass"
)

// FetchAttempt records what happened while fetching a URL
type FetchAttempt struct {
	StatusCode    int
	RedirectChain []string
	BytesRead     int64
	Elapsed       time.Duration
	Attempts      int
	UserAgentTier string
}
