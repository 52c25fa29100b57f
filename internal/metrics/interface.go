package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncFetcherRuns()
	IncOutcomesRecorded()
	IncRecomputations(kind string)
	IncRecomputeFailures(kind string)
	IncRecomputeCoalesced()
	IncJobsDropped()
	ObserveRecomputeDuration(kind string, duration float64)
	SetQueueDepth(depth int)
	IncSlotLookupFailures()
	IncSuggestionsServed()
	IncSlackNotifSent()
	IncSlackNotifFailed()
	SetStartupTime(duration float64)
}
