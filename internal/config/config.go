// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Database    DatabaseConfig    `mapstructure:"database"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Crawler     CrawlerConfig     `mapstructure:"crawler"`
	Classifier  ClassifierConfig  `mapstructure:"classifier"`
	Enrich      EnrichConfig      `mapstructure:"enrich"`
	Stats       StatsConfig       `mapstructure:"stats"`
	Monitor     MonitorConfig     `mapstructure:"monitor"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// DatabaseConfig locates the SQLite database file.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// CredentialsConfig locates the API key pool file.
type CredentialsConfig struct {
	Path string `mapstructure:"path"`
}

// CrawlerConfig governs the poll loop and the search paginator.
type CrawlerConfig struct {
	Queries             []string `mapstructure:"queries"`
	PollIntervalSeconds int      `mapstructure:"poll_interval_seconds"`
	QueryPauseSeconds   int      `mapstructure:"query_pause_seconds"`
	MaxResults          int      `mapstructure:"max_results"`
	PageCap             int      `mapstructure:"page_cap"`
	RateLimitPerMinute  int      `mapstructure:"rate_limit_per_minute"`
	LookbackDays        int      `mapstructure:"lookback_days"`
	Order               string   `mapstructure:"order"`
}

// ClassifierConfig holds the scoring policy. Source deployments disagree on
// the exact threshold/normalizer pair, so both are knobs rather than
// constants.
type ClassifierConfig struct {
	Threshold  int     `mapstructure:"threshold"`
	Normalizer float64 `mapstructure:"normalizer"`
}

// EnrichConfig controls the enrichment stages.
type EnrichConfig struct {
	MaxWorkers             int     `mapstructure:"max_workers"`
	AudioConfidenceGate    float64 `mapstructure:"audio_confidence_gate"`
	DownloadTimeoutSeconds int     `mapstructure:"download_timeout_seconds"`
	TempDir                string  `mapstructure:"temp_dir"`
	YtdlpPath              string  `mapstructure:"ytdlp_path"`
}

// StatsConfig bounds the cycle-stats ledger.
type StatsConfig struct {
	Retention int `mapstructure:"retention"`
}

// MonitorConfig controls the liveness marker and the metrics surfaces.
type MonitorConfig struct {
	PidPath                 string `mapstructure:"pid_path"`
	SnapshotPath            string `mapstructure:"snapshot_path"`
	SnapshotIntervalSeconds int    `mapstructure:"snapshot_interval_seconds"`
	MetricsPort             int    `mapstructure:"metrics_port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ADSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "ads.db")
	v.SetDefault("credentials.path", "api_keys.json")
	v.SetDefault("crawler.queries", []string{
		"advertisement 2025",
		"commercial 2025",
		"sponsored content",
		"marketing campaign",
		"product launch 2025",
	})
	v.SetDefault("crawler.poll_interval_seconds", 300)
	v.SetDefault("crawler.query_pause_seconds", 2)
	v.SetDefault("crawler.max_results", 50)
	v.SetDefault("crawler.page_cap", 10)
	v.SetDefault("crawler.rate_limit_per_minute", 100)
	v.SetDefault("crawler.lookback_days", 7)
	v.SetDefault("crawler.order", "date")
	v.SetDefault("classifier.threshold", 3)
	v.SetDefault("classifier.normalizer", 10.0)
	v.SetDefault("enrich.max_workers", 4)
	v.SetDefault("enrich.audio_confidence_gate", 0.6)
	v.SetDefault("enrich.download_timeout_seconds", 60)
	v.SetDefault("enrich.temp_dir", "/tmp")
	v.SetDefault("enrich.ytdlp_path", "yt-dlp")
	v.SetDefault("stats.retention", 100)
	v.SetDefault("monitor.pid_path", "/tmp/adscout.pid")
	v.SetDefault("monitor.snapshot_path", "/tmp/adscout_status.json")
	v.SetDefault("monitor.snapshot_interval_seconds", 30)
	v.SetDefault("monitor.metrics_port", 9090)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must be set")
	}
	if c.Credentials.Path == "" {
		return fmt.Errorf("credentials.path must be set")
	}
	if len(c.Crawler.Queries) == 0 {
		return fmt.Errorf("crawler.queries must contain at least one query")
	}
	if c.Crawler.PollIntervalSeconds <= 0 {
		return fmt.Errorf("crawler.poll_interval_seconds must be > 0")
	}
	if c.Crawler.MaxResults <= 0 {
		return fmt.Errorf("crawler.max_results must be > 0")
	}
	if c.Crawler.PageCap <= 0 {
		return fmt.Errorf("crawler.page_cap must be > 0")
	}
	if c.Classifier.Threshold <= 0 {
		return fmt.Errorf("classifier.threshold must be > 0")
	}
	if c.Classifier.Normalizer <= 0 {
		return fmt.Errorf("classifier.normalizer must be > 0")
	}
	if c.Enrich.MaxWorkers <= 0 {
		return fmt.Errorf("enrich.max_workers must be > 0")
	}
	if c.Enrich.DownloadTimeoutSeconds <= 0 {
		return fmt.Errorf("enrich.download_timeout_seconds must be > 0")
	}
	if c.Stats.Retention <= 0 {
		return fmt.Errorf("stats.retention must be > 0")
	}
	return nil
}

// PollInterval converts the configured poll interval into a duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Crawler.PollIntervalSeconds) * time.Second
}

// DownloadTimeout converts the configured download timeout into a duration.
func (c Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Enrich.DownloadTimeoutSeconds) * time.Second
}
