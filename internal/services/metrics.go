package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for insightGenerations.
const (
	outcomeSuccess             = "success"
	outcomeNoFeedback          = "no_feedback"
	outcomeFetchFailed         = "fetch_failed"
	outcomeRateLimited         = "rate_limited"
	outcomeQuotaExhausted      = "quota_exhausted"
	outcomeUpstreamUnavailable = "upstream_unavailable"
	outcomeEmptyResponse       = "empty_response"
	outcomePersistenceFailed   = "persistence_failed"
)

var (
	// insightGenerations counts Generate calls by terminal outcome.
	insightGenerations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_generations_total",
			Help: "Insight generation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// insightDecodes counts which path turned the AI answer into a record.
	insightDecodes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_decode_total",
			Help: "Decoded AI answers by path (parsed, repaired, fallback).",
		},
		[]string{"path"},
	)

	// insightAILatency records summarizer round-trip time, success or not.
	insightAILatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "insight_ai_request_duration_seconds",
			Help:    "Duration of summarizer requests in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
	)
)

func init() {
	prometheus.MustRegister(insightGenerations, insightDecodes, insightAILatency)
}
