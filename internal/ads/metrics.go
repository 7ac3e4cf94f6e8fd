package ads

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TotalItemsChecked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adscout_items_checked_total",
		Help: "Items fetched from search and run through the classifier.",
	})

	TotalAdsFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adscout_ads_found_total",
		Help: "Items classified as ads.",
	})

	TotalAPICalls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adscout_api_calls_total",
		Help: "Calls issued to the provider API.",
	})

	TotalErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adscout_errors_total",
		Help: "Errors encountered while crawling.",
	})

	TotalRotations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adscout_credential_rotations_total",
		Help: "Credential rotations triggered by quota rejections.",
	})

	TotalCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adscout_cycles_total",
		Help: "Completed crawl cycles.",
	})

	EnrichmentFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adscout_enrichment_failures_total",
		Help: "Enrichment stage failures by stage.",
	}, []string{"stage"})
)
