// Package store persists ads, enrichment features and cycle statistics in a
// single SQLite file. All writes are idempotent: re-running a cycle over the
// same videos never duplicates rows.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mpopa/adscout/internal/ads"
)

const schema = `
CREATE TABLE IF NOT EXISTS ads (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	video_id         TEXT    NOT NULL UNIQUE,
	title            TEXT    NOT NULL,
	description      TEXT    NOT NULL,
	channel_id       TEXT    NOT NULL,
	channel_title    TEXT    NOT NULL,
	published_at     INTEGER NOT NULL,
	thumbnail_url    TEXT    NOT NULL DEFAULT '',
	category         TEXT    NOT NULL,
	confidence       REAL    NOT NULL,
	score            INTEGER NOT NULL,
	matched          TEXT    NOT NULL DEFAULT '[]',
	views            INTEGER,
	likes            INTEGER,
	comments         INTEGER,
	duration_seconds INTEGER,
	engagement_rate  REAL,
	first_seen       INTEGER NOT NULL,
	last_seen        INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS audio_features (
	video_id           TEXT PRIMARY KEY REFERENCES ads(video_id),
	tempo              REAL NOT NULL,
	energy             REAL NOT NULL,
	spectral_centroid  REAL NOT NULL,
	spectral_rolloff   REAL NOT NULL,
	spectral_bandwidth REAL NOT NULL,
	zero_crossing_rate REAL NOT NULL,
	speech_ratio       REAL NOT NULL,
	duration_seconds   REAL NOT NULL,
	created_at         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS visual_features (
	video_id        TEXT PRIMARY KEY REFERENCES ads(video_id),
	dominant_colors TEXT NOT NULL DEFAULT '',
	text_density    REAL NOT NULL,
	brightness      REAL NOT NULL,
	created_at      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS cycle_stats (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT    NOT NULL,
	items_checked INTEGER NOT NULL,
	ads_found     INTEGER NOT NULL,
	calls_made    INTEGER NOT NULL,
	errors        INTEGER NOT NULL,
	duration_ms   INTEGER NOT NULL,
	finished_at   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ads_last_seen ON ads(last_seen DESC);
`

// Store implements ads.Store over a SQLite file.
type Store struct {
	db        *sql.DB
	retention int
	logger    *zap.Logger
}

// Open creates or opens the database file, applies the schema and returns a
// ready Store. retention bounds how many cycle_stats rows are kept.
func Open(path string, retention int, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	// The modernc driver serializes writers anyway; a single connection
	// avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, retention: retention, logger: logger}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertAd inserts the record or refreshes the mutable columns of an existing
// one. created reports whether the video id was new.
func (s *Store) UpsertAd(ctx context.Context, rec ads.AdRecord) (bool, error) {
	matched, err := json.Marshal(rec.Classification.Matched)
	if err != nil {
		return false, fmt.Errorf("encode matched keywords: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM ads WHERE video_id = ?`, rec.Item.VideoID).Scan(&exists)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("check existing ad: %w", err)
	}
	created := err == sql.ErrNoRows

	now := time.Now().UTC()
	firstSeen := rec.FirstSeen
	if firstSeen.IsZero() {
		firstSeen = now
	}
	lastSeen := rec.LastSeen
	if lastSeen.IsZero() {
		lastSeen = now
	}

	var views, likes, comments, duration sql.NullInt64
	var engagement sql.NullFloat64
	if rec.Stats != nil {
		views = sql.NullInt64{Int64: rec.Stats.Views, Valid: true}
		likes = sql.NullInt64{Int64: rec.Stats.Likes, Valid: true}
		comments = sql.NullInt64{Int64: rec.Stats.Comments, Valid: true}
		duration = sql.NullInt64{Int64: rec.Stats.DurationSeconds, Valid: true}
		engagement = sql.NullFloat64{Float64: rec.Stats.EngagementRate, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ads (
			video_id, title, description, channel_id, channel_title,
			published_at, thumbnail_url, category, confidence, score, matched,
			views, likes, comments, duration_seconds, engagement_rate,
			first_seen, last_seen
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(video_id) DO UPDATE SET
			title            = excluded.title,
			description      = excluded.description,
			category         = excluded.category,
			confidence       = excluded.confidence,
			score            = excluded.score,
			matched          = excluded.matched,
			views            = COALESCE(excluded.views, ads.views),
			likes            = COALESCE(excluded.likes, ads.likes),
			comments         = COALESCE(excluded.comments, ads.comments),
			duration_seconds = COALESCE(excluded.duration_seconds, ads.duration_seconds),
			engagement_rate  = COALESCE(excluded.engagement_rate, ads.engagement_rate),
			last_seen        = excluded.last_seen`,
		rec.Item.VideoID, rec.Item.Title, rec.Item.Description,
		rec.Item.ChannelID, rec.Item.ChannelTitle,
		rec.Item.PublishedAt.UTC().Unix(), rec.Item.ThumbnailURL,
		rec.Classification.Category, rec.Classification.Confidence,
		rec.Classification.Score, string(matched),
		views, likes, comments, duration, engagement,
		firstSeen.Unix(), lastSeen.Unix(),
	)
	if err != nil {
		return false, fmt.Errorf("upsert ad %s: %w", rec.Item.VideoID, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit upsert: %w", err)
	}
	return created, nil
}

// SaveAudioFeatures stores the features for a known ad. The first write
// wins: features are immutable once recorded.
func (s *Store) SaveAudioFeatures(ctx context.Context, videoID string, f ads.AudioFeatures) error {
	if err := s.requireAd(ctx, videoID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO audio_features (
			video_id, tempo, energy, spectral_centroid, spectral_rolloff,
			spectral_bandwidth, zero_crossing_rate, speech_ratio,
			duration_seconds, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		videoID, f.Tempo, f.Energy, f.SpectralCentroid, f.SpectralRolloff,
		f.SpectralBandwidth, f.ZeroCrossingRate, f.SpeechRatio,
		f.DurationSeconds, time.Now().UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save audio features %s: %w", videoID, err)
	}
	return nil
}

// SaveVisualFeatures stores the features for a known ad, first write wins.
func (s *Store) SaveVisualFeatures(ctx context.Context, videoID string, f ads.VisualFeatures) error {
	if err := s.requireAd(ctx, videoID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO visual_features (
			video_id, dominant_colors, text_density, brightness, created_at
		) VALUES (?, ?, ?, ?, ?)`,
		videoID, strings.Join(f.DominantColors, ","),
		f.TextDensity, f.Brightness, time.Now().UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save visual features %s: %w", videoID, err)
	}
	return nil
}

func (s *Store) requireAd(ctx context.Context, videoID string) error {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM ads WHERE video_id = ?`, videoID).Scan(&one)
	if err == sql.ErrNoRows {
		return fmt.Errorf("ad %s: %w", videoID, ads.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("look up ad %s: %w", videoID, err)
	}
	return nil
}

// RecordCycleStats appends one row and prunes history beyond the retention
// limit in the same transaction.
func (s *Store) RecordCycleStats(ctx context.Context, stats ads.CycleStats) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cycle stats: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cycle_stats (
			run_id, items_checked, ads_found, calls_made, errors,
			duration_ms, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		stats.RunID, stats.ItemsChecked, stats.AdsFound, stats.CallsMade,
		stats.Errors, stats.Duration.Milliseconds(),
		stats.FinishedAt.UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert cycle stats: %w", err)
	}

	if s.retention > 0 {
		_, err = tx.ExecContext(ctx, `
			DELETE FROM cycle_stats WHERE id NOT IN (
				SELECT id FROM cycle_stats ORDER BY id DESC LIMIT ?
			)`, s.retention)
		if err != nil {
			return fmt.Errorf("prune cycle stats: %w", err)
		}
	}

	return tx.Commit()
}

// RecentAds returns the most recently seen ads, newest first, with whatever
// features exist for them.
func (s *Store) RecentAds(ctx context.Context, limit int) ([]ads.AdRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			a.video_id, a.title, a.description, a.channel_id, a.channel_title,
			a.published_at, a.thumbnail_url, a.category, a.confidence, a.score,
			a.matched, a.views, a.likes, a.comments, a.duration_seconds,
			a.engagement_rate, a.first_seen, a.last_seen,
			af.tempo, af.energy, af.spectral_centroid, af.spectral_rolloff,
			af.spectral_bandwidth, af.zero_crossing_rate, af.speech_ratio,
			af.duration_seconds,
			vf.dominant_colors, vf.text_density, vf.brightness
		FROM ads a
		LEFT JOIN audio_features af ON af.video_id = a.video_id
		LEFT JOIN visual_features vf ON vf.video_id = a.video_id
		ORDER BY a.last_seen DESC, a.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent ads: %w", err)
	}
	defer rows.Close()

	var out []ads.AdRecord
	for rows.Next() {
		rec, err := scanAdRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanAdRecord(rows *sql.Rows) (ads.AdRecord, error) {
	var (
		rec       ads.AdRecord
		published int64
		matched   string
		firstSeen int64
		lastSeen  int64

		views, likes, comments, duration sql.NullInt64
		engagement                       sql.NullFloat64

		tempo, energy, centroid, rolloff   sql.NullFloat64
		bandwidth, zcr, speech, audioDur   sql.NullFloat64
		colors                             sql.NullString
		textDensity, brightness            sql.NullFloat64
	)
	err := rows.Scan(
		&rec.Item.VideoID, &rec.Item.Title, &rec.Item.Description,
		&rec.Item.ChannelID, &rec.Item.ChannelTitle,
		&published, &rec.Item.ThumbnailURL,
		&rec.Classification.Category, &rec.Classification.Confidence,
		&rec.Classification.Score, &matched,
		&views, &likes, &comments, &duration, &engagement,
		&firstSeen, &lastSeen,
		&tempo, &energy, &centroid, &rolloff,
		&bandwidth, &zcr, &speech, &audioDur,
		&colors, &textDensity, &brightness,
	)
	if err != nil {
		return rec, fmt.Errorf("scan ad row: %w", err)
	}

	rec.Classification.VideoID = rec.Item.VideoID
	rec.Classification.IsAd = true
	rec.Item.PublishedAt = time.Unix(published, 0).UTC()
	rec.FirstSeen = time.Unix(firstSeen, 0).UTC()
	rec.LastSeen = time.Unix(lastSeen, 0).UTC()
	if err := json.Unmarshal([]byte(matched), &rec.Classification.Matched); err != nil {
		return rec, fmt.Errorf("decode matched keywords: %w", err)
	}

	if views.Valid {
		rec.Stats = &ads.EngagementStats{
			Views:           views.Int64,
			Likes:           likes.Int64,
			Comments:        comments.Int64,
			DurationSeconds: duration.Int64,
			EngagementRate:  engagement.Float64,
		}
	}
	if tempo.Valid {
		rec.Audio = &ads.AudioFeatures{
			Tempo:             tempo.Float64,
			Energy:            energy.Float64,
			SpectralCentroid:  centroid.Float64,
			SpectralRolloff:   rolloff.Float64,
			SpectralBandwidth: bandwidth.Float64,
			ZeroCrossingRate:  zcr.Float64,
			SpeechRatio:       speech.Float64,
			DurationSeconds:   audioDur.Float64,
		}
	}
	if colors.Valid {
		rec.Visual = &ads.VisualFeatures{
			TextDensity: textDensity.Float64,
			Brightness:  brightness.Float64,
		}
		if colors.String != "" {
			rec.Visual.DominantColors = strings.Split(colors.String, ",")
		}
	}
	return rec, nil
}
