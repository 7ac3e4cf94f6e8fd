// Package youtube adapts the YouTube Data API v3 to the pipeline's search
// and statistics interfaces. All calls go through the shared rate limiter
// and the credential pool; quota rejections are mapped to
// ads.ErrQuotaExceeded so callers can trigger rotation.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/mpopa/adscout/internal/ads"
	"github.com/mpopa/adscout/internal/credentials"
	"github.com/mpopa/adscout/internal/ratelimit"
)

// maxPageSize is the provider's hard cap per search page.
const maxPageSize = 50

// Client implements ads.SearchProvider and ads.StatsProvider against the
// live API. The service handle is rebuilt after every credential rotation.
type Client struct {
	pool    *credentials.Pool
	limiter *ratelimit.Limiter
	logger  *zap.Logger
	calls   atomic.Int64

	mu  sync.Mutex
	svc *yt.Service
}

// New builds a Client bound to the given credential pool and rate limiter.
func New(ctx context.Context, pool *credentials.Pool, limiter *ratelimit.Limiter, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{pool: pool, limiter: limiter, logger: logger}
	svc, err := newService(ctx, pool.Current())
	if err != nil {
		return nil, err
	}
	c.svc = svc
	return c, nil
}

func newService(ctx context.Context, key string) (*yt.Service, error) {
	svc, err := yt.NewService(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return svc, nil
}

func (c *Client) service() *yt.Service {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.svc
}

// RotateCredential advances the pool and re-establishes the service handle.
// It reports whether the active credential changed.
func (c *Client) RotateCredential() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.pool.Rotate() {
		return false
	}
	ads.TotalRotations.Inc()
	svc, err := newService(context.Background(), c.pool.Current())
	if err != nil {
		c.logger.Error("rebuild service after rotation failed", zap.Error(err))
		return false
	}
	c.svc = svc
	c.logger.Info("rotated provider credential", zap.Int("index", c.pool.Index()))
	return true
}

// Calls reports the total API calls issued over the client's lifetime.
func (c *Client) Calls() int64 {
	return c.calls.Load()
}

// CredentialIndex exposes the active credential slot for status reporting.
func (c *Client) CredentialIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pool.Index()
}

// SearchPage issues one search.list call and maps the response page.
func (c *Client) SearchPage(ctx context.Context, req ads.SearchRequest) (ads.SearchPage, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return ads.SearchPage{}, err
	}

	call := c.service().Search.List([]string{"snippet"}).Type("video").Context(ctx)
	if req.Query != "" {
		call = call.Q(req.Query)
	}
	if req.ChannelID != "" {
		call = call.ChannelId(req.ChannelID)
	}
	if !req.PublishedAfter.IsZero() {
		call = call.PublishedAfter(req.PublishedAfter.UTC().Format(time.RFC3339))
	}
	if !req.PublishedBefore.IsZero() {
		call = call.PublishedBefore(req.PublishedBefore.UTC().Format(time.RFC3339))
	}
	order := req.Order
	if order == "" {
		order = "date"
	}
	call = call.Order(order)

	size := req.PageSize
	if size <= 0 || size > maxPageSize {
		size = maxPageSize
	}
	call = call.MaxResults(size)
	if req.PageToken != "" {
		call = call.PageToken(req.PageToken)
	}

	resp, err := call.Do()
	c.calls.Add(1)
	ads.TotalAPICalls.Inc()
	if err != nil {
		return ads.SearchPage{}, mapError(err)
	}

	page := ads.SearchPage{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		published, _ := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		page.Items = append(page.Items, ads.ContentItem{
			VideoID:      item.Id.VideoId,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			ChannelID:    item.Snippet.ChannelId,
			ChannelTitle: item.Snippet.ChannelTitle,
			PublishedAt:  published,
			ThumbnailURL: thumbnailURL(item.Snippet.Thumbnails),
		})
	}
	return page, nil
}

// VideoStats issues one videos.list call for statistics and duration. A
// quota rejection triggers one rotate-and-retry before giving up.
func (c *Client) VideoStats(ctx context.Context, videoID string) (ads.EngagementStats, error) {
	stats, err := c.videoStatsOnce(ctx, videoID)
	if errors.Is(err, ads.ErrQuotaExceeded) && c.RotateCredential() {
		stats, err = c.videoStatsOnce(ctx, videoID)
	}
	return stats, err
}

func (c *Client) videoStatsOnce(ctx context.Context, videoID string) (ads.EngagementStats, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return ads.EngagementStats{}, err
	}

	resp, err := c.service().Videos.
		List([]string{"statistics", "contentDetails"}).
		Id(videoID).
		Context(ctx).
		Do()
	c.calls.Add(1)
	ads.TotalAPICalls.Inc()
	if err != nil {
		return ads.EngagementStats{}, mapError(err)
	}
	if len(resp.Items) == 0 {
		return ads.EngagementStats{}, fmt.Errorf("stats for %s: %w", videoID, ads.ErrNotFound)
	}

	item := resp.Items[0]
	var stats ads.EngagementStats
	if item.Statistics != nil {
		stats.Views = int64(item.Statistics.ViewCount)
		stats.Likes = int64(item.Statistics.LikeCount)
		stats.Comments = int64(item.Statistics.CommentCount)
	}
	if item.ContentDetails != nil {
		stats.DurationSeconds = ParseISODuration(item.ContentDetails.Duration)
	}
	stats.EngagementRate = ads.Rate(stats.Likes, stats.Comments, stats.Views)
	return stats, nil
}

// thumbnailURL picks the medium thumbnail, falling back to high and default.
func thumbnailURL(t *yt.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	switch {
	case t.Medium != nil && t.Medium.Url != "":
		return t.Medium.Url
	case t.High != nil && t.High.Url != "":
		return t.High.Url
	case t.Default != nil && t.Default.Url != "":
		return t.Default.Url
	}
	return ""
}

// quotaReasons are the googleapi rejection reasons recoverable by rotation.
var quotaReasons = map[string]bool{
	"quotaExceeded":         true,
	"dailyLimitExceeded":    true,
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
}

// mapError translates provider errors into the pipeline's taxonomy.
func mapError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == 403 || gerr.Code == 429 {
			for _, item := range gerr.Errors {
				if quotaReasons[item.Reason] {
					return fmt.Errorf("%w: %s", ads.ErrQuotaExceeded, item.Reason)
				}
			}
			if gerr.Code == 429 {
				return fmt.Errorf("%w: too many requests", ads.ErrQuotaExceeded)
			}
		}
		return fmt.Errorf("provider call failed (%d): %w", gerr.Code, err)
	}
	return fmt.Errorf("provider call failed: %w", err)
}
