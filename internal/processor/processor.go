package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/fieldrank/internal/changefeed"
	"github.com/mauv0809/fieldrank/internal/metrics"
	"github.com/mauv0809/fieldrank/internal/rating"
	"golang.org/x/sync/errgroup"
)

const (
	defaultWorkerCount = 4
	defaultQueueSize   = 1024
)

// New creates a new Processor. Call Start to run its workers.
func New(store Store, metrics metrics.Metrics, cfg Config) *Processor {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = defaultWorkerCount
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Debounce < 0 {
		cfg.Debounce = 0
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Processor{
		store:   store,
		metrics: metrics,
		cfg:     cfg,
		queue:   make(chan Job, cfg.QueueSize),
		pending: make(map[string]jobState),
		timers:  make(map[string]*time.Timer),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the worker goroutines.
func (p *Processor) Start(ctx context.Context) {
	p.mu.Lock()
	p.cancel()
	p.ctx, p.cancel = context.WithCancel(ctx)
	workerCtx := p.ctx
	p.mu.Unlock()

	for i := 0; i < p.cfg.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(workerCtx, i)
	}
	log.Info("Recompute workers started", "workers", p.cfg.WorkerCount, "queue_size", p.cfg.QueueSize, "debounce", p.cfg.Debounce)
}

// Stop cancels the workers and waits for in-flight jobs to finish.
// Jobs still queued or debouncing are dropped; the next signal or
// RebuildAll regenerates them.
func (p *Processor) Stop() {
	p.mu.Lock()
	p.cancel()
	for key, timer := range p.timers {
		timer.Stop()
		delete(p.timers, key)
	}
	p.mu.Unlock()
	p.wg.Wait()

	p.mu.Lock()
	dropped := len(p.pending)
	clear(p.pending)
	p.mu.Unlock()
	for len(p.queue) > 0 {
		<-p.queue
	}
	p.metrics.SetQueueDepth(0)
	log.Info("Recompute workers stopped", "dropped", dropped)
}

// HandleSignal turns a change signal into recompute jobs for the venue and
// cross-venue leaderboards and for every player's cross-venue and venue
// profile.
func (p *Processor) HandleSignal(_ context.Context, s changefeed.Signal) {
	if s.Kind != changefeed.KindOutcomeRecorded {
		log.Debug("Ignoring signal", "kind", s.Kind)
		return
	}
	log.Debug("Outcome recorded", "match_id", s.MatchID, "field_id", s.FieldID, "players", len(s.PlayerIDs))

	p.Enqueue(Job{Kind: JobLeaderboard})
	if s.FieldID != "" {
		p.Enqueue(Job{Kind: JobLeaderboard, FieldID: s.FieldID})
	}
	for _, playerID := range s.PlayerIDs {
		p.Enqueue(Job{Kind: JobProfile, PlayerID: playerID})
		if s.FieldID != "" {
			p.Enqueue(Job{Kind: JobProfile, PlayerID: playerID, FieldID: s.FieldID})
		}
	}
}

// Enqueue schedules a job. It reports false when the job was absorbed by a
// queued job with the same key or dropped because the queue is full. A job
// for a key that is being recomputed runs again once the current run ends,
// so the last write always reflects a snapshot taken after the change.
func (p *Processor) Enqueue(job Job) bool {
	key := job.Key()

	p.mu.Lock()
	state, ok := p.pending[key]
	switch {
	case !ok:
		p.pending[key] = jobQueued
	case state == jobRunning:
		p.pending[key] = jobRerun
		p.mu.Unlock()
		log.Debug("Recompute running, scheduling another run", "key", key)
		return true
	default:
		p.mu.Unlock()
		p.metrics.IncRecomputeCoalesced()
		log.Debug("Recompute already pending", "key", key)
		return false
	}
	p.mu.Unlock()

	return p.schedule(job)
}

func (p *Processor) schedule(job Job) bool {
	if p.cfg.Debounce == 0 {
		return p.push(job)
	}
	key := job.Key()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctx.Err() != nil {
		delete(p.pending, key)
		return false
	}
	p.timers[key] = time.AfterFunc(p.cfg.Debounce, func() {
		p.mu.Lock()
		delete(p.timers, key)
		p.mu.Unlock()
		p.push(job)
	})
	return true
}

func (p *Processor) push(job Job) bool {
	p.mu.Lock()
	stopped := p.ctx.Err() != nil
	p.mu.Unlock()
	if stopped {
		p.clearPending(job.Key())
		log.Debug("Processor stopped, discarding job", "key", job.Key())
		return false
	}

	select {
	case p.queue <- job:
		p.metrics.SetQueueDepth(len(p.queue))
		return true
	default:
		p.clearPending(job.Key())
		p.metrics.IncJobsDropped()
		log.Warn("Recompute queue full, dropping job", "key", job.Key())
		return false
	}
}

func (p *Processor) clearPending(key string) {
	p.mu.Lock()
	delete(p.pending, key)
	p.mu.Unlock()
}

func (p *Processor) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.queue:
			p.metrics.SetQueueDepth(len(p.queue))
			key := job.Key()
			p.mu.Lock()
			p.pending[key] = jobRunning
			p.mu.Unlock()

			if err := p.run(ctx, job); err != nil {
				log.Error("Recompute failed", "worker", id, "key", key, "error", err)
			}

			p.mu.Lock()
			rerun := p.pending[key] == jobRerun
			if rerun {
				p.pending[key] = jobQueued
			} else {
				delete(p.pending, key)
			}
			p.mu.Unlock()
			if rerun {
				p.schedule(job)
			}
		}
	}
}

// run recomputes outside the singleflight group: a queued job always takes
// its own snapshot instead of joining a call that may predate its change.
func (p *Processor) run(ctx context.Context, job Job) error {
	switch job.Kind {
	case JobLeaderboard:
		_, err := p.timed(metrics.KindLeaderboard, func() (any, error) {
			return p.writeLeaderboard(ctx, job.FieldID)
		})
		return err
	case JobProfile:
		_, err := p.timed(metrics.KindProfile, func() (any, error) {
			return p.writeProfile(ctx, job.PlayerID, job.FieldID)
		})
		return err
	default:
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
}

// ComputeLeaderboard builds a venue leaderboard from a fresh snapshot
// without persisting it.
func (p *Processor) ComputeLeaderboard(ctx context.Context, fieldID string) (rating.FieldLeaderboard, error) {
	outcomes, err := p.store.FetchMatchOutcomes(ctx, "", fieldID)
	if err != nil {
		return rating.FieldLeaderboard{}, fmt.Errorf("failed to fetch outcomes for field %s: %w", fieldID, err)
	}
	return rating.ComputeLeaderboard(fieldID, outcomes, p.cfg.Now()), nil
}

// ComputeProfile builds a player profile from a fresh snapshot without
// persisting it.
func (p *Processor) ComputeProfile(ctx context.Context, playerID, fieldID string) (rating.PlayerSkillProfile, error) {
	outcomes, err := p.store.FetchMatchOutcomes(ctx, playerID, fieldID)
	if err != nil {
		return rating.PlayerSkillProfile{}, fmt.Errorf("failed to fetch outcomes for player %s: %w", playerID, err)
	}
	return rating.ComputeSkillProfile(playerID, fieldID, outcomes, p.cfg.Now()), nil
}

// RecomputeLeaderboard recomputes and overwrites a venue leaderboard.
// Concurrent calls for the same venue share one computation.
func (p *Processor) RecomputeLeaderboard(ctx context.Context, fieldID string) (rating.FieldLeaderboard, error) {
	v, err, shared := p.group.Do(Job{Kind: JobLeaderboard, FieldID: fieldID}.Key(), func() (any, error) {
		return p.timed(metrics.KindLeaderboard, func() (any, error) {
			return p.writeLeaderboard(ctx, fieldID)
		})
	})
	if shared {
		p.metrics.IncRecomputeCoalesced()
	}
	if err != nil {
		return rating.FieldLeaderboard{}, err
	}
	return v.(rating.FieldLeaderboard), nil
}

// RecomputeProfile recomputes and overwrites a player profile. An empty
// fieldID recomputes the cross-venue profile.
func (p *Processor) RecomputeProfile(ctx context.Context, playerID, fieldID string) (rating.PlayerSkillProfile, error) {
	v, err, shared := p.group.Do(Job{Kind: JobProfile, PlayerID: playerID, FieldID: fieldID}.Key(), func() (any, error) {
		return p.timed(metrics.KindProfile, func() (any, error) {
			return p.writeProfile(ctx, playerID, fieldID)
		})
	})
	if shared {
		p.metrics.IncRecomputeCoalesced()
	}
	if err != nil {
		return rating.PlayerSkillProfile{}, err
	}
	return v.(rating.PlayerSkillProfile), nil
}

func (p *Processor) writeLeaderboard(ctx context.Context, fieldID string) (rating.FieldLeaderboard, error) {
	lb, err := p.ComputeLeaderboard(ctx, fieldID)
	if err != nil {
		return rating.FieldLeaderboard{}, err
	}
	if err := p.store.WriteFieldLeaderboard(ctx, fieldID, lb); err != nil {
		return rating.FieldLeaderboard{}, err
	}
	log.Debug("Leaderboard recomputed", "field_id", fieldID, "entries", len(lb.Entries))
	return lb, nil
}

func (p *Processor) writeProfile(ctx context.Context, playerID, fieldID string) (rating.PlayerSkillProfile, error) {
	profile, err := p.ComputeProfile(ctx, playerID, fieldID)
	if err != nil {
		return rating.PlayerSkillProfile{}, err
	}
	if err := p.store.WritePlayerSkillProfile(ctx, profile); err != nil {
		return rating.PlayerSkillProfile{}, err
	}
	log.Debug("Profile recomputed", "player_id", playerID, "field_id", fieldID, "skill", profile.Skill)
	return profile, nil
}

func (p *Processor) timed(kind string, fn func() (any, error)) (any, error) {
	start := time.Now()
	v, err := fn()
	p.metrics.ObserveRecomputeDuration(kind, time.Since(start).Seconds())
	if err != nil {
		p.metrics.IncRecomputeFailures(kind)
		return nil, err
	}
	p.metrics.IncRecomputations(kind)
	return v, nil
}

// RebuildAll recomputes the cross-venue leaderboard and every venue
// leaderboard, then the cross-venue and per-venue profile of every ranked
// player, with bounded concurrency.
func (p *Processor) RebuildAll(ctx context.Context) (RebuildSummary, error) {
	start := time.Now()
	listed, err := p.store.ListFieldIDs(ctx)
	if err != nil {
		return RebuildSummary{}, fmt.Errorf("failed to list fields: %w", err)
	}
	fieldIDs := []string{""}
	for _, id := range listed {
		if id != "" {
			fieldIDs = append(fieldIDs, id)
		}
	}

	var (
		mu      sync.Mutex
		players = make(map[string][]string)
		order   []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.WorkerCount)
	for _, fieldID := range fieldIDs {
		g.Go(func() error {
			lb, err := p.RecomputeLeaderboard(gctx, fieldID)
			if err != nil || fieldID == "" {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, e := range lb.Entries {
				if _, ok := players[e.PlayerID]; !ok {
					order = append(order, e.PlayerID)
				}
				players[e.PlayerID] = append(players[e.PlayerID], fieldID)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return RebuildSummary{}, err
	}

	summary := RebuildSummary{Leaderboards: len(fieldIDs)}
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.WorkerCount)
	for _, playerID := range order {
		for _, fieldID := range append([]string{""}, players[playerID]...) {
			summary.Profiles++
			g.Go(func() error {
				_, err := p.RecomputeProfile(gctx, playerID, fieldID)
				return err
			})
		}
	}
	if err := g.Wait(); err != nil {
		return RebuildSummary{}, err
	}

	log.Info("Rebuild finished", "leaderboards", summary.Leaderboards, "profiles", summary.Profiles, "duration", time.Since(start))
	return summary, nil
}
