package enrich

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mpopa/adscout/internal/ads"
	"github.com/mpopa/adscout/internal/vision"
)

// ThumbnailExtractor fetches a video's thumbnail and derives visual features.
type ThumbnailExtractor struct {
	client *http.Client
	logger *zap.Logger
}

// NewThumbnailExtractor builds an extractor with a bounded HTTP client.
func NewThumbnailExtractor(logger *zap.Logger) *ThumbnailExtractor {
	return &ThumbnailExtractor{
		client: &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

// Features downloads the best available thumbnail and analyzes it. When the
// search result carried no thumbnail URL the high-resolution default is tried
// first, then the always-present hq variant.
func (t *ThumbnailExtractor) Features(ctx context.Context, item ads.ContentItem) (*ads.VisualFeatures, error) {
	urls := candidateURLs(item)

	var lastErr error
	for _, url := range urls {
		img, err := t.fetch(ctx, url)
		if err != nil {
			t.logger.Debug("thumbnail fetch failed",
				zap.String("video_id", item.VideoID),
				zap.String("url", url),
				zap.Error(err))
			lastErr = err
			continue
		}
		f, err := vision.Analyze(img)
		if err != nil {
			return nil, fmt.Errorf("analyze thumbnail %s: %w", item.VideoID, err)
		}
		return &ads.VisualFeatures{
			DominantColors: f.DominantColors,
			TextDensity:    f.TextDensity,
			Brightness:     f.Brightness,
		}, nil
	}
	return nil, fmt.Errorf("fetch thumbnail %s: %w", item.VideoID, lastErr)
}

func candidateURLs(item ads.ContentItem) []string {
	if item.ThumbnailURL != "" {
		return []string{item.ThumbnailURL}
	}
	return []string{
		fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", item.VideoID),
		fmt.Sprintf("https://img.youtube.com/vi/%s/hqdefault.jpg", item.VideoID),
	}
}

func (t *ThumbnailExtractor) fetch(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode image from %s: %w", url, err)
	}
	return img, nil
}
