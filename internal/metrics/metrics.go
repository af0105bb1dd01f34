// Package metrics provides Prometheus metrics for the transcript page service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache lookup results.
const (
	LookupHit       = "hit"
	LookupMiss      = "miss"
	LookupReadError = "read_error"
)

// Provider outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

var (
	// CacheLookupsTotal counts page cache lookups by result.
	CacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tubetext_cache_lookups_total",
		Help: "Total number of page cache lookups, by result (hit/miss/read_error).",
	}, []string{"result"})

	// CacheWriteFailuresTotal counts rendered pages that could not be persisted.
	CacheWriteFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tubetext_cache_write_failures_total",
		Help: "Total number of failed best-effort page cache writes.",
	})

	// ProviderRequestsTotal counts transcript provider calls by outcome.
	ProviderRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tubetext_provider_requests_total",
		Help: "Total number of transcript provider calls, by outcome (ok/unavailable/error).",
	}, []string{"outcome"})

	renderDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tubetext_render_duration_seconds",
		Help:    "Time spent rendering transcript pages.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
)

// RecordCacheLookup increments the lookup counter for result.
func RecordCacheLookup(result string) {
	CacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordCacheWriteFailure increments the write failure counter.
func RecordCacheWriteFailure() {
	CacheWriteFailuresTotal.Inc()
}

// RecordProviderRequest increments the provider counter for outcome.
func RecordProviderRequest(outcome string) {
	ProviderRequestsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRender records a render duration in seconds.
func ObserveRender(seconds float64) {
	renderDurationSeconds.Observe(seconds)
}
