package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mpopa/adscout/internal/classify"
	"github.com/mpopa/adscout/internal/config"
	"github.com/mpopa/adscout/internal/credentials"
	"github.com/mpopa/adscout/internal/enrich"
	"github.com/mpopa/adscout/internal/logging"
	"github.com/mpopa/adscout/internal/orchestrator"
	"github.com/mpopa/adscout/internal/pidfile"
	"github.com/mpopa/adscout/internal/ratelimit"
	"github.com/mpopa/adscout/internal/search"
	"github.com/mpopa/adscout/internal/store"
	"github.com/mpopa/adscout/internal/youtube"
)

func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Run the discovery loop until interrupted.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawl(cmd.Context())
		},
	}
}

func runCrawl(ctx context.Context) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := pidfile.Write(cfg.Monitor.PidPath); err != nil {
		return err
	}
	defer pidfile.Remove(cfg.Monitor.PidPath)

	pool, err := credentials.Load(cfg.Credentials.Path)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}
	logger.Info("credential pool loaded", zap.Int("size", pool.Size()))

	limiter := ratelimit.New(cfg.Crawler.RateLimitPerMinute)
	client, err := youtube.New(ctx, pool, limiter, logger)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Database.Path, cfg.Stats.Retention, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	classifier := classify.New(classify.DefaultTaxonomy(), cfg.Classifier.Threshold, cfg.Classifier.Normalizer)
	logger.Info("classifier ready", zap.String("policy", classifier.Describe()))

	audio := enrich.NewAudioExtractor(cfg.Enrich.YtdlpPath, cfg.Enrich.TempDir, cfg.DownloadTimeout(), logger)
	visual := enrich.NewThumbnailExtractor(logger)
	pipeline := enrich.New(client, audio, visual, cfg.Enrich.AudioConfidenceGate, logger)

	paginator := search.New(client, cfg.Crawler.PageCap, logger)

	stopMetrics := serveMetrics(cfg.Monitor.MetricsPort, logger)
	defer stopMetrics()

	orch := orchestrator.New(paginator, classifier, pipeline, st, orchestrator.Options{
		Queries:          cfg.Crawler.Queries,
		PollInterval:     cfg.PollInterval(),
		QueryPause:       time.Duration(cfg.Crawler.QueryPauseSeconds) * time.Second,
		MaxResults:       cfg.Crawler.MaxResults,
		LookbackDays:     cfg.Crawler.LookbackDays,
		Order:            cfg.Crawler.Order,
		MaxWorkers:       cfg.Enrich.MaxWorkers,
		Provider:         client,
		SnapshotPath:     cfg.Monitor.SnapshotPath,
		SnapshotInterval: time.Duration(cfg.Monitor.SnapshotIntervalSeconds) * time.Second,
	}, logger)

	return orch.Run(ctx)
}

// serveMetrics exposes the Prometheus registry. Port zero disables it.
func serveMetrics(port int, logger *zap.Logger) func() {
	if port <= 0 {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

	go func() {
		logger.Info("metrics listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}
