// Package metrics provides Prometheus metrics for Mizan: counters and
// histograms for check-ins, scoring, premium tokens, and the HTTP surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Check-ins ──────────────────────────────────────────────────────────────

// DaysSubmitted tracks sealed day records.
var DaysSubmitted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mizan",
	Name:      "days_submitted_total",
	Help:      "Total day records sealed by submission.",
})

// SubmitRejected tracks refused submissions by reason.
var SubmitRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mizan",
	Name:      "submit_rejected_total",
	Help:      "Total rejected day submissions.",
}, []string{"reason"})

// PointsAwarded tracks total points awarded across all users.
var PointsAwarded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mizan",
	Name:      "points_awarded_total",
	Help:      "Total points awarded on submission.",
})

// PenaltiesCreated tracks carry-forward debts injected by the ledger.
var PenaltiesCreated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mizan",
	Name:      "penalties_created_total",
	Help:      "Total carry-forward penalties created.",
})

// ─── Premium ────────────────────────────────────────────────────────────────

// TokensMinted tracks created activation tokens by source.
var TokensMinted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mizan",
	Name:      "premium_tokens_minted_total",
	Help:      "Total premium activation tokens minted.",
}, []string{"source"})

// TokensRedeemed tracks redemption outcomes.
var TokensRedeemed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mizan",
	Name:      "premium_tokens_redeemed_total",
	Help:      "Total premium token redemption attempts by outcome.",
}, []string{"outcome"})

// ─── HTTP ───────────────────────────────────────────────────────────────────

// RequestDuration tracks HTTP request duration in seconds.
var RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "mizan",
	Name:      "http_request_duration_seconds",
	Help:      "HTTP request duration in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "status"})

// CacheResyncs tracks device-cache resync outcomes.
var CacheResyncs = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mizan",
	Name:      "cache_resyncs_total",
	Help:      "Total cache resync attempts by outcome.",
}, []string{"outcome"})
