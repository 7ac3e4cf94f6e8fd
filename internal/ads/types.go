// Package ads holds the pipeline's core types and the interfaces its stages
// are wired through. Implementations live in sibling packages.
package ads

import (
	"fmt"
	"time"
)

// ContentItem is one discovered video, as reported by the search provider.
type ContentItem struct {
	VideoID      string
	Title        string
	Description  string
	ChannelID    string
	ChannelTitle string
	PublishedAt  time.Time
	ThumbnailURL string
}

// URL returns the canonical watch page for the item.
func (c ContentItem) URL() string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", c.VideoID)
}

// Classification is the classifier's verdict for one item.
type Classification struct {
	VideoID    string
	IsAd       bool
	Confidence float64
	Score      int
	Category   string
	// Matched records keyword provenance as "field:keyword" entries.
	Matched []string
}

// EngagementStats carries the provider's view counters for one video.
type EngagementStats struct {
	Views           int64
	Likes           int64
	Comments        int64
	DurationSeconds int64
	EngagementRate  float64
}

// Rate computes (likes+comments)/views. Zero views yields zero, not NaN.
func Rate(likes, comments, views int64) float64 {
	if views <= 0 {
		return 0
	}
	return float64(likes+comments) / float64(views)
}

// AudioFeatures are the derived audio descriptors for one video.
type AudioFeatures struct {
	Tempo             float64
	Energy            float64
	SpectralCentroid  float64
	SpectralRolloff   float64
	SpectralBandwidth float64
	ZeroCrossingRate  float64
	SpeechRatio       float64
	DurationSeconds   float64
}

// VisualFeatures are the derived thumbnail descriptors for one video.
type VisualFeatures struct {
	DominantColors []string
	TextDensity    float64
	Brightness     float64
}

// Enrichment is what the enrichment stages could produce for one item. Any
// field may be nil when its stage failed or was skipped.
type Enrichment struct {
	Stats  *EngagementStats
	Audio  *AudioFeatures
	Visual *VisualFeatures
}

// AdRecord is the persisted form of a classified item with whatever
// enrichment succeeded.
type AdRecord struct {
	Item           ContentItem
	Classification Classification
	Stats          *EngagementStats
	Audio          *AudioFeatures
	Visual         *VisualFeatures
	FirstSeen      time.Time
	LastSeen       time.Time
}

// CycleStats summarizes one crawl cycle for persistence and status reporting.
type CycleStats struct {
	RunID        string
	ItemsChecked int
	AdsFound     int
	CallsMade    int
	Errors       int
	Duration     time.Duration
	FinishedAt   time.Time
}

// QuerySpec describes one logical search the crawler runs per cycle.
type QuerySpec struct {
	Query           string
	ChannelID       string
	PublishedAfter  time.Time
	PublishedBefore time.Time
	Order           string
	// MaxResults bounds distinct items per query; 0 means no bound beyond
	// the page cap.
	MaxResults int64
}

// SearchRequest is one page request against the provider.
type SearchRequest struct {
	QuerySpec
	PageToken string
	PageSize  int64
}

// SearchPage is one page of provider results.
type SearchPage struct {
	Items         []ContentItem
	NextPageToken string
}
