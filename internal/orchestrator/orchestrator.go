// Package orchestrator drives the crawl loop: search, classify, enrich and
// persist, cycle after cycle, until the context is cancelled.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mpopa/adscout/internal/ads"
)

// maxDescriptionRunes bounds the description text persisted per ad.
const maxDescriptionRunes = 1000

// State is the orchestrator lifecycle phase, exposed in status snapshots.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateStopping State = "stopping"
	StateStopped  State = "stopped"
)

// Searcher runs one query to completion. Implemented by search.Paginator.
type Searcher interface {
	Collect(ctx context.Context, spec ads.QuerySpec) ([]ads.ContentItem, error)
}

// ProviderInfo exposes provider-side counters for cycle stats and snapshots.
// Implemented by the API client; nil disables both readings.
type ProviderInfo interface {
	Calls() int64
	CredentialIndex() int
}

// Options are the loop's tunables.
type Options struct {
	Queries           []string
	PollInterval      time.Duration
	QueryPause        time.Duration
	MaxResults        int
	LookbackDays      int
	Order             string
	MaxWorkers        int
	Provider          ProviderInfo
	SnapshotPath      string
	SnapshotInterval  time.Duration
	SnapshotRecentAds int
}

// Orchestrator owns the crawl loop and the status snapshot writer.
type Orchestrator struct {
	search     Searcher
	classifier ads.Classifier
	enricher   ads.Enricher
	store      ads.Store
	opts       Options
	logger     *zap.Logger

	state     atomic.Value
	startedAt time.Time

	mu        sync.Mutex
	totals    totals
	lastCycle ads.CycleStats
}

type totals struct {
	ItemsChecked int
	AdsFound     int
	Errors       int
	Cycles       int
}

// New wires an orchestrator. MaxWorkers below one is raised to one.
func New(search Searcher, classifier ads.Classifier, enricher ads.Enricher, store ads.Store, opts Options, logger *zap.Logger) *Orchestrator {
	if opts.MaxWorkers < 1 {
		opts.MaxWorkers = 1
	}
	if opts.SnapshotRecentAds <= 0 {
		opts.SnapshotRecentAds = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		search:     search,
		classifier: classifier,
		enricher:   enricher,
		store:      store,
		opts:       opts,
		logger:     logger,
	}
	o.state.Store(StateIdle)
	return o
}

// State reports the current lifecycle phase.
func (o *Orchestrator) State() State {
	return o.state.Load().(State)
}

// Run executes crawl cycles until ctx is cancelled, then records a final
// snapshot and returns. The returned error is always nil today; the
// signature leaves room for fatal store failures.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.startedAt = time.Now().UTC()
	o.state.Store(StateRunning)
	o.logger.Info("crawler started",
		zap.Int("queries", len(o.opts.Queries)),
		zap.Duration("poll_interval", o.opts.PollInterval))

	var wg sync.WaitGroup
	if o.opts.SnapshotPath != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.snapshotLoop(ctx)
		}()
	}

	for {
		stats := o.runCycle(ctx)
		o.finishCycle(stats)

		if !sleepCtx(ctx, o.opts.PollInterval) {
			break
		}
	}

	o.state.Store(StateStopping)
	o.logger.Info("crawler stopping")
	wg.Wait()
	if o.opts.SnapshotPath != "" {
		o.writeSnapshot()
	}
	o.state.Store(StateStopped)
	o.logger.Info("crawler stopped")
	return nil
}

// runCycle walks every configured query once.
func (o *Orchestrator) runCycle(ctx context.Context) ads.CycleStats {
	stats := ads.CycleStats{RunID: uuid.NewString()}
	start := time.Now()
	var callsBefore int64
	if o.opts.Provider != nil {
		callsBefore = o.opts.Provider.Calls()
	}

	o.logger.Info("cycle started", zap.String("run_id", stats.RunID))

	for i, query := range o.opts.Queries {
		if ctx.Err() != nil {
			break
		}
		if i > 0 && !sleepCtx(ctx, o.opts.QueryPause) {
			break
		}

		spec := ads.QuerySpec{
			Query:      query,
			Order:      o.opts.Order,
			MaxResults: int64(o.opts.MaxResults),
		}
		if o.opts.LookbackDays > 0 {
			spec.PublishedAfter = time.Now().UTC().AddDate(0, 0, -o.opts.LookbackDays)
		}

		items, err := o.search.Collect(ctx, spec)
		if err != nil && !errors.Is(err, context.Canceled) {
			stats.Errors++
			ads.TotalErrors.Inc()
			o.logger.Warn("query failed, keeping partial results",
				zap.String("query", query),
				zap.Int("items", len(items)),
				zap.Error(err))
		}

		stats.ItemsChecked += len(items)
		ads.TotalItemsChecked.Add(float64(len(items)))

		found, errs := o.processItems(ctx, items)
		stats.AdsFound += found
		stats.Errors += errs
	}

	stats.Duration = time.Since(start)
	stats.FinishedAt = time.Now().UTC()
	if o.opts.Provider != nil {
		stats.CallsMade = int(o.opts.Provider.Calls() - callsBefore)
	}
	return stats
}

// processItems classifies the batch and fans enrichment and persistence out
// over a bounded worker group.
func (o *Orchestrator) processItems(ctx context.Context, items []ads.ContentItem) (found, errs int) {
	g := new(errgroup.Group)
	g.SetLimit(o.opts.MaxWorkers)

	var foundN, errN atomic.Int64
	for _, item := range items {
		cls := o.classifier.Classify(item)
		if !cls.IsAd {
			continue
		}
		foundN.Add(1)
		ads.TotalAdsFound.Inc()

		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			enr := o.enricher.Enrich(ctx, item, cls)
			if err := o.persist(ctx, item, cls, enr); err != nil {
				errN.Add(1)
				ads.TotalErrors.Inc()
				o.logger.Error("persist failed",
					zap.String("video_id", item.VideoID),
					zap.Error(err))
			}
			return nil
		})
	}
	g.Wait()
	return int(foundN.Load()), int(errN.Load())
}

// persist writes the ad and whatever features enrichment produced. The
// upsert gets one retry; feature writes are best-effort once the ad exists.
func (o *Orchestrator) persist(ctx context.Context, item ads.ContentItem, cls ads.Classification, enr ads.Enrichment) error {
	item.Description = truncateRunes(item.Description, maxDescriptionRunes)
	rec := ads.AdRecord{Item: item, Classification: cls, Stats: enr.Stats}

	created, err := o.store.UpsertAd(ctx, rec)
	if err != nil {
		created, err = o.store.UpsertAd(ctx, rec)
		if err != nil {
			return fmt.Errorf("upsert ad: %w", err)
		}
	}
	if created {
		o.logger.Info("new ad discovered",
			zap.String("video_id", item.VideoID),
			zap.String("category", cls.Category),
			zap.Float64("confidence", cls.Confidence))
	}

	if enr.Audio != nil {
		if err := o.store.SaveAudioFeatures(ctx, item.VideoID, *enr.Audio); err != nil {
			o.logger.Warn("save audio features failed",
				zap.String("video_id", item.VideoID), zap.Error(err))
		}
	}
	if enr.Visual != nil {
		if err := o.store.SaveVisualFeatures(ctx, item.VideoID, *enr.Visual); err != nil {
			o.logger.Warn("save visual features failed",
				zap.String("video_id", item.VideoID), zap.Error(err))
		}
	}
	return nil
}

// finishCycle records the cycle in the store and folds it into the running
// totals. Recording uses a fresh context so a shutdown mid-cycle still
// leaves a complete ledger row.
func (o *Orchestrator) finishCycle(stats ads.CycleStats) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.store.RecordCycleStats(ctx, stats); err != nil {
		o.logger.Error("record cycle stats failed", zap.Error(err))
	}
	ads.TotalCycles.Inc()

	o.mu.Lock()
	o.totals.ItemsChecked += stats.ItemsChecked
	o.totals.AdsFound += stats.AdsFound
	o.totals.Errors += stats.Errors
	o.totals.Cycles++
	o.lastCycle = stats
	o.mu.Unlock()

	o.logger.Info("cycle finished",
		zap.String("run_id", stats.RunID),
		zap.Int("items_checked", stats.ItemsChecked),
		zap.Int("ads_found", stats.AdsFound),
		zap.Int("calls_made", stats.CallsMade),
		zap.Int("errors", stats.Errors),
		zap.Duration("took", stats.Duration))
}

// sleepCtx sleeps for d or until ctx is done, reporting whether the full
// duration elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
