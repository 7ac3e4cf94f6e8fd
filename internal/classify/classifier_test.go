package classify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mpopa/adscout/internal/ads"
)

// policies mirrors the threshold/normalizer pairs seen in deployed crawlers.
var policies = []struct {
	name       string
	threshold  int
	normalizer float64
}{
	{"lenient", 3, 10},
	{"strict", 4, 15},
}

func TestClassifyIsDeterministic(t *testing.T) {
	t.Parallel()

	c := Default()
	item := ads.ContentItem{
		VideoID:      "v1",
		Title:        "Huge SALE this weekend — official commercial",
		Description:  "Limited time offer, buy now!",
		ChannelTitle: "MegaShop Official",
	}

	first := c.Classify(item)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, c.Classify(item))
	}
	require.True(t, first.IsAd)
	require.NotEmpty(t, first.Matched)
}

func TestClassifyThresholdBoundaries(t *testing.T) {
	t.Parallel()

	for _, policy := range policies {
		policy := policy
		t.Run(policy.name, func(t *testing.T) {
			t.Parallel()
			c := New(DefaultTaxonomy(), policy.threshold, policy.normalizer)

			tests := []struct {
				name  string
				item  ads.ContentItem
				score int
			}{
				// One description keyword: score 2.
				{"below", ads.ContentItem{Description: "our new sponsored series"}, 2},
				// One title keyword: score 3.
				{"title hit", ads.ContentItem{Title: "new commercial out today"}, 3},
				// Title + description keyword: score 5.
				{"title and desc", ads.ContentItem{
					Title:       "new commercial out today",
					Description: "a sponsored series",
				}, 5},
				// Nothing ad-like at all: score 0.
				{"clean", ads.ContentItem{Title: "cat plays piano", Description: "so cute"}, 0},
			}

			for _, tt := range tests {
				got := c.Classify(tt.item)
				require.Equal(t, tt.score, got.Score, "%s: score", tt.name)
				require.Equal(t, tt.score >= policy.threshold, got.IsAd,
					"%s: is_ad must be score >= threshold", tt.name)
				require.GreaterOrEqual(t, got.Confidence, 0.0)
				require.LessOrEqual(t, got.Confidence, 1.0)
				require.InDelta(t, min(float64(tt.score)/policy.normalizer, 1.0), got.Confidence, 1e-9)
			}
		})
	}
}

func TestClassifyNikeScenario(t *testing.T) {
	t.Parallel()

	c := Default()
	got := c.Classify(ads.ContentItem{
		VideoID: "nike-1",
		Title:   "Official Nike Ad — Buy Now",
	})

	require.True(t, got.IsAd)
	require.Equal(t, "fashion", got.Category)
	require.GreaterOrEqual(t, got.Score, 3)
	require.Contains(t, got.Matched, "title:ad")
	require.Contains(t, got.Matched, "title:buy now")
}

func TestClassifyConfidenceSaturatesAtOne(t *testing.T) {
	t.Parallel()

	c := New(DefaultTaxonomy(), 3, 10)
	got := c.Classify(ads.ContentItem{
		Title:       "advertisement commercial sponsored ad promo promotion sale offer deal",
		Description: "buy now order now limited time special offer discount",
	})
	require.Equal(t, 1.0, got.Confidence)
	require.True(t, got.IsAd)
}

func TestClassifyWordBoundaries(t *testing.T) {
	t.Parallel()

	c := Default()

	// "ad" must not match inside "road" or "Madrid".
	got := c.Classify(ads.ContentItem{Title: "road trip through Madrid"})
	require.False(t, got.IsAd)
	require.Zero(t, got.Score)

	// But a standalone "ad" token does match.
	got = c.Classify(ads.ContentItem{Title: "best ad of the year"})
	require.Equal(t, 3, got.Score)
}

func TestCategoryFirstMatchWins(t *testing.T) {
	t.Parallel()

	c := Default()

	// Both automotive ("bmw") and technology ("app") keywords present;
	// automotive is first in the enumeration order.
	got := c.Classify(ads.ContentItem{
		Title:       "commercial: the new BMW app",
		Description: "sponsored",
	})
	require.Equal(t, "automotive", got.Category)

	// No category keyword: falls back to "other".
	got = c.Classify(ads.ContentItem{Title: "commercial break"})
	require.Equal(t, CategoryOther, got.Category)
}

func TestClassifyChannelBrandIndicator(t *testing.T) {
	t.Parallel()

	c := Default()
	got := c.Classify(ads.ContentItem{
		Title:        "nothing suspicious here",
		ChannelTitle: "Acme Corp Official Shop",
	})
	// corp + official + shop at channel weight 1 each.
	require.Equal(t, 3, got.Score)
	require.Contains(t, got.Matched, "channel:official")
	require.Contains(t, got.Matched, "channel:corp")
	require.Contains(t, got.Matched, "channel:shop")
}
