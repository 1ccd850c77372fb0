// Package metrics provides Prometheus metrics for directory polling.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Listing outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeEmpty   = "empty"
	OutcomeIgnored = "ignored"
	OutcomeError   = "error"
)

// Poll cycle statuses.
const (
	StatusComplete  = "complete"
	StatusExhausted = "exhausted"
	StatusError     = "error"
	StatusSkipped   = "skipped"
)

var (
	// Listing metrics
	directoryListingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dirpoll_directory_listings_total",
			Help: "Total number of directory listings by outcome",
		},
		[]string{"outcome"},
	)

	listingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dirpoll_listing_duration_seconds",
			Help:    "Directory listing duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Poll cycle metrics
	pollCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dirpoll_poll_cycles_total",
			Help: "Total number of poll cycles by status",
		},
		[]string{"status"},
	)

	pollCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dirpoll_poll_cycle_duration_seconds",
			Help:    "Poll cycle duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	filesPolledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dirpoll_files_polled_total",
			Help: "Total number of files returned by poll cycles",
		},
	)

	pollExhaustedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dirpoll_poll_exhausted_total",
			Help: "Poll cycles cut short because the batch limit was reached",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordListing records one directory listing.
func RecordListing(outcome string, duration time.Duration) {
	directoryListingsTotal.WithLabelValues(outcome).Inc()
	listingDuration.Observe(duration.Seconds())
}

// RecordPollCycle records a finished poll cycle and the number of files it returned.
func RecordPollCycle(status string, files int, duration time.Duration) {
	pollCyclesTotal.WithLabelValues(status).Inc()
	pollCycleDuration.Observe(duration.Seconds())
	filesPolledTotal.Add(float64(files))

	if status == StatusExhausted {
		pollExhaustedTotal.Inc()
	}
}
