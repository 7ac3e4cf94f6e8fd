package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
database:
  path: /data/ads/ads.db
credentials:
  path: /etc/adscout/api_keys.json
crawler:
  queries: ["advertisement 2025", "commercial 2025"]
  poll_interval_seconds: 120
  query_pause_seconds: 5
  max_results: 80
  page_cap: 4
  rate_limit_per_minute: 60
  lookback_days: 3
  order: relevance
classifier:
  threshold: 4
  normalizer: 15
enrich:
  max_workers: 8
  audio_confidence_gate: 0.75
  download_timeout_seconds: 90
  temp_dir: /var/tmp
stats:
  retention: 50
monitor:
  pid_path: /run/adscout.pid
  metrics_port: 9100
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/data/ads/ads.db" {
		t.Fatalf("expected database path override, got %q", cfg.Database.Path)
	}
	if len(cfg.Crawler.Queries) != 2 || cfg.Crawler.Queries[1] != "commercial 2025" {
		t.Fatalf("expected query list to be loaded: %+v", cfg.Crawler.Queries)
	}
	if cfg.Crawler.PageCap != 4 || cfg.Crawler.Order != "relevance" {
		t.Fatalf("expected crawler overrides to apply: %+v", cfg.Crawler)
	}
	if cfg.Classifier.Threshold != 4 || cfg.Classifier.Normalizer != 15 {
		t.Fatalf("expected classifier policy overrides: %+v", cfg.Classifier)
	}
	if cfg.Enrich.MaxWorkers != 8 || cfg.Enrich.AudioConfidenceGate != 0.75 {
		t.Fatalf("expected enrich overrides: %+v", cfg.Enrich)
	}
	if got := cfg.PollInterval(); got != 2*time.Minute {
		t.Fatalf("expected poll interval 2m, got %v", got)
	}
	if got := cfg.DownloadTimeout(); got != 90*time.Second {
		t.Fatalf("expected download timeout 90s, got %v", got)
	}
	if cfg.Logging.Development {
		t.Fatal("expected production logging")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Crawler.PageCap != 10 {
		t.Fatalf("expected default page cap 10, got %d", cfg.Crawler.PageCap)
	}
	if cfg.Classifier.Threshold != 3 || cfg.Classifier.Normalizer != 10.0 {
		t.Fatalf("unexpected default classifier policy: %+v", cfg.Classifier)
	}
	if len(cfg.Crawler.Queries) == 0 {
		t.Fatal("expected a default query list")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Database:    DatabaseConfig{Path: "ads.db"},
		Credentials: CredentialsConfig{Path: "api_keys.json"},
		Crawler: CrawlerConfig{
			Queries:             []string{"advertisement"},
			PollIntervalSeconds: 300,
			MaxResults:          50,
			PageCap:             10,
		},
		Classifier: ClassifierConfig{Threshold: 3, Normalizer: 10},
		Enrich:     EnrichConfig{MaxWorkers: 4, DownloadTimeoutSeconds: 60},
		Stats:      StatsConfig{Retention: 100},
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantKey string
	}{
		{"missing database path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"missing credentials path", func(c *Config) { c.Credentials.Path = "" }, "credentials.path"},
		{"empty query list", func(c *Config) { c.Crawler.Queries = nil }, "crawler.queries"},
		{"invalid poll interval", func(c *Config) { c.Crawler.PollIntervalSeconds = 0 }, "crawler.poll_interval_seconds"},
		{"invalid max results", func(c *Config) { c.Crawler.MaxResults = 0 }, "crawler.max_results"},
		{"invalid page cap", func(c *Config) { c.Crawler.PageCap = -1 }, "crawler.page_cap"},
		{"invalid threshold", func(c *Config) { c.Classifier.Threshold = 0 }, "classifier.threshold"},
		{"invalid normalizer", func(c *Config) { c.Classifier.Normalizer = 0 }, "classifier.normalizer"},
		{"invalid workers", func(c *Config) { c.Enrich.MaxWorkers = 0 }, "enrich.max_workers"},
		{"invalid download timeout", func(c *Config) { c.Enrich.DownloadTimeoutSeconds = 0 }, "enrich.download_timeout_seconds"},
		{"invalid retention", func(c *Config) { c.Stats.Retention = 0 }, "stats.retention"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantKey) {
				t.Fatalf("expected error containing %q, got %v", tt.wantKey, err)
			}
		})
	}
}
