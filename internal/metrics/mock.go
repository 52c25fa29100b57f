package metrics

import "sync"

var _ Metrics = (*Mock)(nil)

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                 sync.Mutex
	fetcherRuns        int
	outcomesRecorded   int
	recomputations     map[string]int
	recomputeFailures  map[string]int
	recomputeCoalesced int
	jobsDropped        int
	recomputeDurations []float64
	queueDepth         int
	slotLookupFailures int
	suggestionsServed  int
	slackNotifSent     int
	slackNotifFailed   int
	startupTime        float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		recomputations:     make(map[string]int),
		recomputeFailures:  make(map[string]int),
		recomputeDurations: make([]float64, 0),
	}
}

func (m *Mock) IncFetcherRuns() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetcherRuns++
}

func (m *Mock) IncOutcomesRecorded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomesRecorded++
}

func (m *Mock) IncRecomputations(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recomputations[kind]++
}

func (m *Mock) IncRecomputeFailures(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recomputeFailures[kind]++
}

func (m *Mock) IncRecomputeCoalesced() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recomputeCoalesced++
}

func (m *Mock) IncJobsDropped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobsDropped++
}

func (m *Mock) ObserveRecomputeDuration(_ string, duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recomputeDurations = append(m.recomputeDurations, duration)
}

func (m *Mock) SetQueueDepth(depth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queueDepth = depth
}

func (m *Mock) IncSlotLookupFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slotLookupFailures++
}

func (m *Mock) IncSuggestionsServed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suggestionsServed++
}

func (m *Mock) IncSlackNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifSent++
}

func (m *Mock) IncSlackNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifFailed++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// FetcherRuns returns the number of times IncFetcherRuns was called.
func (m *Mock) FetcherRuns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetcherRuns
}

// OutcomesRecorded returns the number of times IncOutcomesRecorded was called.
func (m *Mock) OutcomesRecorded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcomesRecorded
}

// Recomputations returns the recomputation count for kind.
func (m *Mock) Recomputations(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recomputations[kind]
}

// RecomputeFailures returns the failure count for kind.
func (m *Mock) RecomputeFailures(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recomputeFailures[kind]
}

// RecomputeCoalesced returns the number of coalesced recompute requests.
func (m *Mock) RecomputeCoalesced() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recomputeCoalesced
}

// JobsDropped returns the number of dropped jobs.
func (m *Mock) JobsDropped() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobsDropped
}

// RecomputeDurations returns a copy of the observed durations.
func (m *Mock) RecomputeDurations() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.recomputeDurations...)
}

// QueueDepth returns the last reported queue depth.
func (m *Mock) QueueDepth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queueDepth
}

// SlotLookupFailures returns the number of swallowed slot lookup failures.
func (m *Mock) SlotLookupFailures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slotLookupFailures
}

// SuggestionsServed returns the number of suggestion requests served.
func (m *Mock) SuggestionsServed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.suggestionsServed
}

// SlackNotifSent returns the number of times IncSlackNotifSent was called.
func (m *Mock) SlackNotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifSent
}

// SlackNotifFailed returns the number of times IncSlackNotifFailed was called.
func (m *Mock) SlackNotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifFailed
}

// StartupTime returns the last value passed to SetStartupTime.
func (m *Mock) StartupTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startupTime
}
