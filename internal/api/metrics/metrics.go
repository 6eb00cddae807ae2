// Package metrics defines and registers the custom Prometheus metrics of the
// clinic API. It is the single source of truth for metric names, labels and
// help strings. Everything is registered on the default registry at init
// through promauto; HTTP RED metrics come from the echoprometheus middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clinics"

// Search outcomes used as the "outcome" label of NearbySearchesTotal.
const (
	OutcomeOK         = "ok"
	OutcomeEmpty      = "empty"
	OutcomeInvalid    = "invalid"
	OutcomeStoreError = "store_error"
	OutcomeError      = "error"
)

// ── Search metrics ────────────────────────────────────────────────────────────

// NearbySearchesTotal counts proximity searches by outcome.
var NearbySearchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "nearby_searches_total",
		Help:      "Total number of nearby-clinic searches, by outcome.",
	},
	[]string{"outcome"},
)

// NearbyCandidates observes how many rows the bounding-box prefilter returned.
// Values piling up at 1000 mean the candidate cap is truncating dense areas.
var NearbyCandidates = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "nearby_candidates",
		Help:      "Rows returned by the bounding-box prefilter per search.",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
	},
)

// NearbyResults observes the size of the returned result list.
var NearbyResults = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "nearby_results",
		Help:      "Clinics returned per search after exact filtering and truncation.",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
	},
)

// NearbySearchDuration measures a search from parsed request to ranked result.
var NearbySearchDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "nearby_search_duration_seconds",
		Help:      "Duration of nearby-clinic searches including both store queries.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Throttling ────────────────────────────────────────────────────────────────

// RateLimitedTotal counts requests rejected by the rate limiter.
// Label:
//   - route: the matched route path
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected with 429.",
	},
	[]string{"route"},
)
