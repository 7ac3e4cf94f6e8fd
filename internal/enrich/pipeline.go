// Package enrich augments classified ads with engagement, audio and visual
// features. Stages fail independently: a dead thumbnail never blocks the
// engagement numbers.
package enrich

import (
	"context"

	"go.uber.org/zap"

	"github.com/mpopa/adscout/internal/ads"
)

// AudioFeaturer derives audio features for an item.
type AudioFeaturer interface {
	Features(ctx context.Context, item ads.ContentItem) (*ads.AudioFeatures, error)
}

// VisualFeaturer derives visual features for an item.
type VisualFeaturer interface {
	Features(ctx context.Context, item ads.ContentItem) (*ads.VisualFeatures, error)
}

// Pipeline runs the enrichment stages for one classified item.
type Pipeline struct {
	stats     ads.StatsProvider
	audio     AudioFeaturer
	visual    VisualFeaturer
	audioGate float64
	logger    *zap.Logger
}

// New builds a pipeline. audio and visual may be nil to disable a stage;
// audioGate is the minimum classification confidence that justifies the cost
// of downloading the audio track.
func New(stats ads.StatsProvider, audio AudioFeaturer, visual VisualFeaturer, audioGate float64, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		stats:     stats,
		audio:     audio,
		visual:    visual,
		audioGate: audioGate,
		logger:    logger,
	}
}

// Enrich gathers whatever each stage can produce. Missing pieces stay nil in
// the result; failures are counted and logged, never returned.
func (p *Pipeline) Enrich(ctx context.Context, item ads.ContentItem, cls ads.Classification) ads.Enrichment {
	var e ads.Enrichment

	if stats, err := p.stats.VideoStats(ctx, item.VideoID); err != nil {
		p.stageFailed("stats", item.VideoID, err)
	} else {
		e.Stats = &stats
	}
	if ctx.Err() != nil {
		return e
	}

	if p.audio != nil {
		if cls.Confidence >= p.audioGate {
			if f, err := p.audio.Features(ctx, item); err != nil {
				p.stageFailed("audio", item.VideoID, err)
			} else {
				e.Audio = f
			}
		} else {
			p.logger.Debug("audio stage skipped",
				zap.String("video_id", item.VideoID),
				zap.Float64("confidence", cls.Confidence),
				zap.Float64("gate", p.audioGate))
		}
	}
	if ctx.Err() != nil {
		return e
	}

	if p.visual != nil {
		if f, err := p.visual.Features(ctx, item); err != nil {
			p.stageFailed("visual", item.VideoID, err)
		} else {
			e.Visual = f
		}
	}

	return e
}

func (p *Pipeline) stageFailed(stage, videoID string, err error) {
	ads.EnrichmentFailures.WithLabelValues(stage).Inc()
	p.logger.Warn("enrichment stage failed",
		zap.String("stage", stage),
		zap.String("video_id", videoID),
		zap.Error(err))
}
