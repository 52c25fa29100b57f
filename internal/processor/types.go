package processor

import (
	"context"
	"sync"
	"time"

	"github.com/mauv0809/fieldrank/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// JobKind selects the aggregate a job recomputes.
type JobKind string

const (
	JobLeaderboard JobKind = "leaderboard"
	JobProfile     JobKind = "profile"
)

// Job asks for one aggregate to be recomputed from a fresh snapshot.
type Job struct {
	Kind     JobKind
	FieldID  string
	PlayerID string
}

// Key identifies the aggregate a job writes. Jobs with equal keys coalesce.
func (j Job) Key() string {
	if j.Kind == JobProfile {
		return "player:" + j.PlayerID + "|" + j.FieldID
	}
	return "field:" + j.FieldID
}

// Config tunes the processor.
type Config struct {
	WorkerCount int
	QueueSize   int
	// Debounce delays queueing so that a burst of signals for the same key
	// collapses into one job.
	Debounce time.Duration
	Now      func() time.Time
}

// jobState tracks a key between Enqueue and the end of its run.
type jobState int

const (
	// jobQueued waits for the debounce window or a free worker.
	jobQueued jobState = iota
	jobRunning
	// jobRerun is running, and a change arrived after its snapshot was taken.
	jobRerun
)

// Processor recomputes leaderboards and skill profiles in the background.
type Processor struct {
	store   Store
	metrics metrics.Metrics
	cfg     Config

	queue chan Job
	group singleflight.Group

	mu      sync.Mutex
	pending map[string]jobState
	timers  map[string]*time.Timer
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// RebuildSummary reports what RebuildAll recomputed.
type RebuildSummary struct {
	Leaderboards int `json:"leaderboards"`
	Profiles     int `json:"profiles"`
}
