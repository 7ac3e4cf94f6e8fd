package orchestrator

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Snapshot is the JSON status document written for external monitoring.
type Snapshot struct {
	Status          State         `json:"status"`
	StartedAt       time.Time     `json:"started_at"`
	UptimeSeconds   int64         `json:"uptime_seconds"`
	ItemsChecked    int           `json:"items_checked"`
	AdsFound        int           `json:"ads_found"`
	Errors          int           `json:"errors"`
	Cycles          int           `json:"cycles"`
	CredentialIndex int           `json:"credential_index"`
	LastCycle       LastCycle     `json:"last_cycle"`
	RecentAds       []RecentAd    `json:"recent_ads"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// LastCycle summarizes the most recently finished cycle.
type LastCycle struct {
	RunID        string    `json:"run_id"`
	ItemsChecked int       `json:"items_checked"`
	AdsFound     int       `json:"ads_found"`
	CallsMade    int       `json:"calls_made"`
	Errors       int       `json:"errors"`
	DurationMS   int64     `json:"duration_ms"`
	FinishedAt   time.Time `json:"finished_at"`
}

// RecentAd is the trimmed per-ad view embedded in the snapshot.
type RecentAd struct {
	VideoID    string  `json:"video_id"`
	Title      string  `json:"title"`
	Channel    string  `json:"channel"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

func (o *Orchestrator) snapshotLoop(ctx context.Context) {
	interval := o.opts.SnapshotInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	o.writeSnapshot()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.writeSnapshot()
		}
	}
}

// writeSnapshot renders the current status and swaps it into place with a
// rename so readers never observe a partial file.
func (o *Orchestrator) writeSnapshot() {
	snap := o.buildSnapshot()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		o.logger.Error("encode snapshot failed", zap.Error(err))
		return
	}

	path := o.opts.SnapshotPath
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		o.logger.Error("write snapshot failed", zap.Error(err))
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		o.logger.Error("publish snapshot failed", zap.Error(err))
	}
}

func (o *Orchestrator) buildSnapshot() Snapshot {
	o.mu.Lock()
	t := o.totals
	last := o.lastCycle
	o.mu.Unlock()

	now := time.Now().UTC()
	snap := Snapshot{
		Status:        o.State(),
		StartedAt:     o.startedAt,
		UptimeSeconds: int64(now.Sub(o.startedAt).Seconds()),
		ItemsChecked:  t.ItemsChecked,
		AdsFound:      t.AdsFound,
		Errors:        t.Errors,
		Cycles:        t.Cycles,
		LastCycle: LastCycle{
			RunID:        last.RunID,
			ItemsChecked: last.ItemsChecked,
			AdsFound:     last.AdsFound,
			CallsMade:    last.CallsMade,
			Errors:       last.Errors,
			DurationMS:   last.Duration.Milliseconds(),
			FinishedAt:   last.FinishedAt,
		},
		RecentAds: []RecentAd{},
		UpdatedAt: now,
	}
	if o.opts.Provider != nil {
		snap.CredentialIndex = o.opts.Provider.CredentialIndex()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	recent, err := o.store.RecentAds(ctx, o.opts.SnapshotRecentAds)
	if err != nil {
		o.logger.Warn("read recent ads for snapshot failed", zap.Error(err))
		return snap
	}
	for _, rec := range recent {
		snap.RecentAds = append(snap.RecentAds, RecentAd{
			VideoID:    rec.Item.VideoID,
			Title:      rec.Item.Title,
			Channel:    rec.Item.ChannelTitle,
			Category:   rec.Classification.Category,
			Confidence: rec.Classification.Confidence,
		})
	}
	return snap
}
