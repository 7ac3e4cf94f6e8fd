package enrich

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mpopa/adscout/internal/ads"
)

type fakeStats struct {
	stats  ads.EngagementStats
	err    error
	calls  int
	onCall func()
}

func (f *fakeStats) VideoStats(_ context.Context, _ string) (ads.EngagementStats, error) {
	f.calls++
	if f.onCall != nil {
		f.onCall()
	}
	return f.stats, f.err
}

type fakeAudio struct {
	features *ads.AudioFeatures
	err      error
	calls    int
}

func (f *fakeAudio) Features(_ context.Context, _ ads.ContentItem) (*ads.AudioFeatures, error) {
	f.calls++
	return f.features, f.err
}

type fakeVisual struct {
	features *ads.VisualFeatures
	err      error
	calls    int
}

func (f *fakeVisual) Features(_ context.Context, _ ads.ContentItem) (*ads.VisualFeatures, error) {
	f.calls++
	return f.features, f.err
}

var testItem = ads.ContentItem{VideoID: "vid-1", Title: "New Car Commercial"}

func TestEnrichAllStages(t *testing.T) {
	stats := &fakeStats{stats: ads.EngagementStats{Views: 1000, Likes: 50}}
	audio := &fakeAudio{features: &ads.AudioFeatures{Tempo: 120}}
	visual := &fakeVisual{features: &ads.VisualFeatures{Brightness: 0.4}}

	p := New(stats, audio, visual, 0.6, zap.NewNop())
	e := p.Enrich(context.Background(), testItem, ads.Classification{Confidence: 0.9})

	require.NotNil(t, e.Stats)
	require.Equal(t, int64(1000), e.Stats.Views)
	require.NotNil(t, e.Audio)
	require.NotNil(t, e.Visual)
	require.Equal(t, 1, stats.calls)
	require.Equal(t, 1, audio.calls)
	require.Equal(t, 1, visual.calls)
}

func TestEnrichStageFailuresAreIsolated(t *testing.T) {
	stats := &fakeStats{err: errors.New("stats down")}
	audio := &fakeAudio{err: errors.New("download failed")}
	visual := &fakeVisual{features: &ads.VisualFeatures{Brightness: 0.4}}

	p := New(stats, audio, visual, 0.6, zap.NewNop())
	e := p.Enrich(context.Background(), testItem, ads.Classification{Confidence: 0.9})

	require.Nil(t, e.Stats)
	require.Nil(t, e.Audio)
	require.NotNil(t, e.Visual)
}

func TestEnrichAudioConfidenceGate(t *testing.T) {
	audio := &fakeAudio{features: &ads.AudioFeatures{Tempo: 120}}
	p := New(&fakeStats{}, audio, &fakeVisual{features: &ads.VisualFeatures{}}, 0.6, zap.NewNop())

	e := p.Enrich(context.Background(), testItem, ads.Classification{Confidence: 0.5})
	require.Nil(t, e.Audio)
	require.Zero(t, audio.calls)

	e = p.Enrich(context.Background(), testItem, ads.Classification{Confidence: 0.6})
	require.NotNil(t, e.Audio)
	require.Equal(t, 1, audio.calls)
}

func TestEnrichDisabledStages(t *testing.T) {
	p := New(&fakeStats{stats: ads.EngagementStats{Views: 7}}, nil, nil, 0.6, zap.NewNop())
	e := p.Enrich(context.Background(), testItem, ads.Classification{Confidence: 1})

	require.NotNil(t, e.Stats)
	require.Nil(t, e.Audio)
	require.Nil(t, e.Visual)
}

func TestEnrichStopsAfterCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stats := &fakeStats{stats: ads.EngagementStats{Views: 7}, onCall: cancel}
	audio := &fakeAudio{features: &ads.AudioFeatures{}}
	visual := &fakeVisual{features: &ads.VisualFeatures{}}

	p := New(stats, audio, visual, 0, zap.NewNop())
	e := p.Enrich(ctx, testItem, ads.Classification{Confidence: 1})

	require.NotNil(t, e.Stats)
	require.Zero(t, audio.calls)
	require.Zero(t, visual.calls)
	require.Nil(t, e.Audio)
	require.Nil(t, e.Visual)
}
