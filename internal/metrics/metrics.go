package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Discovery and download metrics
var (
	DiscoveryRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_requests_total",
			Help: "Total number of subtitle discovery requests.",
		},
		[]string{"outcome"},
	)

	SearchStrategiesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "search_strategies_total",
			Help: "Total number of search strategies issued against the source site.",
		},
	)

	SubtitleDownloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subtitle_downloads_total",
			Help: "Total number of subtitle downloads.",
		},
		[]string{"status"},
	)
)

// Outcome label values for DiscoveryRequestsTotal.
const (
	OutcomeFound    = "found"
	OutcomeEmpty    = "empty"
	OutcomeMetaMiss = "metadata_miss"
)

// Status label values for SubtitleDownloadsTotal.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

func init() {
	prometheus.MustRegister(
		DiscoveryRequestsTotal,
		SearchStrategiesTotal,
		SubtitleDownloadsTotal,
	)
}
