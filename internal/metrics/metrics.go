// Package metrics defines the Prometheus metrics of the rating client. It is
// the single source of truth for metric names, labels, and help strings.
//
// Metrics register with the default registry on import; consumers that serve
// /metrics expose them through promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ratingclient"

// Outcome label values.
const (
	OutcomeSuccess     = "success"
	OutcomeRejected    = "rejected"
	OutcomeUnauth      = "unauthenticated"
	OutcomeForbidden   = "forbidden"
	OutcomeNetworkFail = "network_error"
)

// ── Remote calls ─────────────────────────────────────────────────────────────

// RequestsTotal counts core operations by outcome.
// Labels:
//   - operation: e.g. "list_stores", "login"
//   - outcome: one of the Outcome* constants
var RequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_total",
		Help:      "Total number of remote operations issued by the client, by outcome.",
	},
	[]string{"operation", "outcome"},
)

// RequestDuration measures the wall time of a remote call, transport included.
var RequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "request_duration_seconds",
		Help:      "Duration of remote calls from issue to settlement.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// ── Caches ───────────────────────────────────────────────────────────────────

// CacheReplacementsTotal counts wholesale cache replacements.
// Label:
//   - collection: "users" or "stores"
var CacheReplacementsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_replacements_total",
		Help:      "Total number of times a cached collection was replaced by a fetch.",
	},
	[]string{"collection"},
)

// CacheDiscardsTotal counts fetch results dropped because the session scope
// changed while they were in flight.
var CacheDiscardsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_discards_total",
		Help:      "Fetch results discarded because the session changed mid-flight.",
	},
	[]string{"collection"},
)

// CacheSize tracks the number of records currently cached.
var CacheSize = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cache_size",
		Help:      "Number of records in each cached collection.",
	},
	[]string{"collection"},
)

// ── Session ──────────────────────────────────────────────────────────────────

// SessionEventsTotal counts session lifecycle events.
// Label:
//   - event: "login", "restore", "logout", "expired"
var SessionEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_events_total",
		Help:      "Total number of session lifecycle events.",
	},
	[]string{"event"},
)
