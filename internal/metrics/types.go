package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recomputation kinds used as label values.
const (
	KindLeaderboard = "leaderboard"
	KindProfile     = "profile"
)

// Service holds all the Prometheus metrics for the application.
type Service struct {
	FetcherRuns        prometheus.Counter
	OutcomesRecorded   prometheus.Counter
	Recomputations     *prometheus.CounterVec
	RecomputeFailures  *prometheus.CounterVec
	RecomputeCoalesced prometheus.Counter
	JobsDropped        prometheus.Counter
	RecomputeDuration  *prometheus.HistogramVec
	QueueDepth         prometheus.Gauge
	SlotLookupFailures prometheus.Counter
	SuggestionsServed  prometheus.Counter
	SlackNotifSent     prometheus.Counter
	SlackNotifFailed   prometheus.Counter
	StartupTimeSeconds prometheus.Gauge
}
