package ads

import "context"

// SearchProvider fetches result pages and can rotate to a fresh credential
// when the active one runs out of quota.
type SearchProvider interface {
	SearchPage(ctx context.Context, req SearchRequest) (SearchPage, error)
	// RotateCredential reports whether a different credential is now active.
	RotateCredential() bool
}

// StatsProvider fetches engagement statistics for a single video.
type StatsProvider interface {
	VideoStats(ctx context.Context, videoID string) (EngagementStats, error)
}

// Classifier decides whether an item is an ad. Implementations are pure.
type Classifier interface {
	Classify(item ContentItem) Classification
}

// Enricher gathers per-item enrichment. Stage failures surface as nil fields
// of the result, never as an error.
type Enricher interface {
	Enrich(ctx context.Context, item ContentItem, cls Classification) Enrichment
}

// Store persists ads, their features and per-cycle statistics.
type Store interface {
	// UpsertAd inserts or refreshes the record, keyed by video id. created
	// reports whether the video was seen for the first time.
	UpsertAd(ctx context.Context, rec AdRecord) (created bool, err error)
	SaveAudioFeatures(ctx context.Context, videoID string, f AudioFeatures) error
	SaveVisualFeatures(ctx context.Context, videoID string, f VisualFeatures) error
	RecordCycleStats(ctx context.Context, stats CycleStats) error
	RecentAds(ctx context.Context, limit int) ([]AdRecord, error)
	Close() error
}
