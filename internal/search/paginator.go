// Package search turns one logical query into a deduplicated, bounded
// sequence of content items fetched page by page from the provider.
package search

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mpopa/adscout/internal/ads"
)

// DefaultPageCap bounds pagination when no cap is configured.
const DefaultPageCap = 10

// Paginator issues page requests for a query and deduplicates results by
// item id within the run. Cross-query deduplication is left to the store's
// uniqueness constraint.
type Paginator struct {
	provider ads.SearchProvider
	pageCap  int
	logger   *zap.Logger
}

// New constructs a Paginator over the given provider.
func New(provider ads.SearchProvider, pageCap int, logger *zap.Logger) *Paginator {
	if pageCap <= 0 {
		pageCap = DefaultPageCap
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Paginator{provider: provider, pageCap: pageCap, logger: logger}
}

// Collect runs the query to completion and returns the distinct items seen.
// The returned slice is valid even when err is non-nil: a provider failure
// mid-run keeps the pages already fetched.
func (p *Paginator) Collect(ctx context.Context, spec ads.QuerySpec) ([]ads.ContentItem, error) {
	var items []ads.ContentItem
	seen := make(map[string]struct{})
	token := ""

	for pageNum := 0; pageNum < p.pageCap; pageNum++ {
		if err := ctx.Err(); err != nil {
			return items, err
		}

		req := ads.SearchRequest{QuerySpec: spec, PageToken: token}
		page, err := p.fetchPage(ctx, req)
		if err != nil {
			p.logger.Warn("page fetch failed, keeping partial results",
				zap.String("query", spec.Query),
				zap.Int("page", pageNum),
				zap.Int("items", len(items)),
				zap.Error(err),
			)
			return items, err
		}

		for _, item := range page.Items {
			if _, dup := seen[item.VideoID]; dup {
				continue
			}
			seen[item.VideoID] = struct{}{}
			items = append(items, item)
			if spec.MaxResults > 0 && int64(len(items)) >= spec.MaxResults {
				return items, nil
			}
		}

		token = page.NextPageToken
		if token == "" {
			break
		}
	}
	return items, nil
}

// fetchPage issues one page request, rotating the credential and retrying
// the same page once on a quota rejection.
func (p *Paginator) fetchPage(ctx context.Context, req ads.SearchRequest) (ads.SearchPage, error) {
	page, err := p.provider.SearchPage(ctx, req)
	if err == nil || !errors.Is(err, ads.ErrQuotaExceeded) {
		return page, err
	}

	p.logger.Warn("quota rejection, rotating credential", zap.Error(err))
	if !p.provider.RotateCredential() {
		return ads.SearchPage{}, err
	}
	return p.provider.SearchPage(ctx, req)
}
