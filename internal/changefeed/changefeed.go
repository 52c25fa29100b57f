// Package changefeed carries "outcomes changed" signals from whatever
// records match outcomes to the recomputation workers.
package changefeed

import (
	"context"
	"sync"
	"time"

	"github.com/mauv0809/fieldrank/internal/rating"
)

// Kind of change.
type Kind string

const KindOutcomeRecorded Kind = "outcome-recorded"

// Signal announces that the outcomes of a venue, and of the listed players,
// have changed.
type Signal struct {
	Kind      Kind      `json:"kind" msgpack:"kind"`
	MatchID   string    `json:"match_id" msgpack:"match_id"`
	FieldID   string    `json:"field_id" msgpack:"field_id"`
	PlayerIDs []string  `json:"player_ids" msgpack:"player_ids"`
	At        time.Time `json:"at" msgpack:"at"`
}

// OutcomeRecorded builds the signal for a freshly recorded outcome.
func OutcomeRecorded(o rating.MatchOutcome) Signal {
	at := o.RecordedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return Signal{
		Kind:      KindOutcomeRecorded,
		MatchID:   o.MatchID,
		FieldID:   o.FieldID,
		PlayerIDs: o.Participants(),
		At:        at,
	}
}

// Handler reacts to a signal. It must not block for long.
type Handler func(ctx context.Context, s Signal)

// Feed publishes and delivers signals.
type Feed interface {
	Publish(ctx context.Context, s Signal) error
	// Subscribe delivers signals to h until ctx is done.
	Subscribe(ctx context.Context, h Handler) error
}

// Local is an in-process Feed. Publish calls every subscriber synchronously.
type Local struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]Handler
}

// NewLocal returns an empty in-process feed.
func NewLocal() *Local {
	return &Local{subs: make(map[int]Handler)}
}

func (l *Local) Publish(ctx context.Context, s Signal) error {
	l.mu.RLock()
	handlers := make([]Handler, 0, len(l.subs))
	for _, h := range l.subs {
		handlers = append(handlers, h)
	}
	l.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, s)
	}
	return nil
}

func (l *Local) Subscribe(ctx context.Context, h Handler) error {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.subs[id] = h
	l.mu.Unlock()

	<-ctx.Done()

	l.mu.Lock()
	delete(l.subs, id)
	l.mu.Unlock()
	return nil
}

// Subscribers returns the number of active subscriptions.
func (l *Local) Subscribers() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.subs)
}
