package matchmaking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/fieldrank/internal/changefeed"
	"github.com/mauv0809/fieldrank/internal/metrics"
	"github.com/mauv0809/fieldrank/internal/rating"
	"github.com/mauv0809/fieldrank/internal/slots"
	"github.com/mauv0809/fieldrank/internal/store"
)

// service implements MatchmakingService on top of the store and the processor.
type service struct {
	store      Store
	recomputer Recomputer
	feed       changefeed.Feed
	finder     *slots.Finder
	metrics    metrics.Metrics
	now        func() time.Time
}

// NewService creates a new matchmaking service. feed may be nil, in which
// case recorded outcomes go straight to the recomputer.
func NewService(st Store, recomputer Recomputer, feed changefeed.Feed, m metrics.Metrics) MatchmakingService {
	return &service{
		store:      st,
		recomputer: recomputer,
		feed:       feed,
		finder:     slots.NewFinder(st, m),
		metrics:    m,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Leaderboard(ctx context.Context, fieldID string) (rating.FieldLeaderboard, error) {
	lb, err := s.store.GetFieldLeaderboard(ctx, fieldID)
	if err == nil {
		return lb, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return rating.FieldLeaderboard{}, err
	}
	log.Debug("Leaderboard not cached, computing", "field_id", fieldID)
	return s.recomputer.RecomputeLeaderboard(ctx, fieldID)
}

func (s *service) Profile(ctx context.Context, playerID, fieldID string) (rating.PlayerSkillProfile, error) {
	if playerID == "" {
		return rating.PlayerSkillProfile{}, fmt.Errorf("%w: player_id is required", ErrBadRequest)
	}
	p, err := s.store.GetPlayerSkillProfile(ctx, rating.ProfileKey(playerID, fieldID))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return rating.PlayerSkillProfile{}, err
	}
	log.Debug("Profile not cached, computing", "player_id", playerID, "field_id", fieldID)
	return s.recomputer.RecomputeProfile(ctx, playerID, fieldID)
}

func (s *service) Estimate(ctx context.Context, req EstimateRequest) (rating.OutcomeProbabilities, error) {
	my, err := s.resolveSkill(ctx, req.MySkill, req.PlayerID, req.FieldID, "my")
	if err != nil {
		return rating.OutcomeProbabilities{}, err
	}
	opp, err := s.resolveSkill(ctx, req.OpponentSkill, req.OpponentID, req.FieldID, "opponent")
	if err != nil {
		return rating.OutcomeProbabilities{}, err
	}
	return rating.EstimateOutcome(my, opp), nil
}

func (s *service) resolveSkill(ctx context.Context, skill *float64, playerID, fieldID, side string) (float64, error) {
	if skill != nil {
		return *skill, nil
	}
	if playerID == "" {
		return 0, fmt.Errorf("%w: %s skill or player id is required", ErrBadRequest, side)
	}
	p, err := s.Profile(ctx, playerID, fieldID)
	if err != nil {
		return 0, fmt.Errorf("failed to load %s profile: %w", side, err)
	}
	return p.Skill, nil
}

func (s *service) SuggestOpponents(ctx context.Context, req OpponentsRequest) ([]rating.OpponentSuggestion, error) {
	lb, err := s.Leaderboard(ctx, req.FieldID)
	if err != nil {
		return nil, err
	}

	mySkill := req.Skill
	if mySkill == nil && req.PlayerID != "" {
		if e, ok := lb.Entry(req.PlayerID); ok {
			mySkill = &e.WeightedWinRate
		}
	}

	out := rating.SuggestOpponents(mySkill, rating.ExcludePlayer(lb.Entries, req.PlayerID), req.Limit)
	s.metrics.IncSuggestionsServed()
	return out, nil
}

func (s *service) Alternatives(ctx context.Context, facilityID, date, requestedRange string) []slots.SlotSuggestion {
	return s.finder.Find(ctx, facilityID, date, requestedRange)
}

func (s *service) RecordOutcome(ctx context.Context, o rating.MatchOutcome, dryRun bool) (rating.MatchOutcome, error) {
	if o.MatchID == "" {
		o.MatchID = uuid.NewString()
	}
	o.RecordedAt = s.now()
	if err := o.Validate(); err != nil {
		return rating.MatchOutcome{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}

	if dryRun {
		log.Info("[Dry Run] Would record outcome", "match_id", o.MatchID, "field_id", o.FieldID)
		return o, nil
	}

	if err := s.store.RecordMatchOutcome(ctx, o); err != nil {
		if errors.Is(err, store.ErrAlreadyRecorded) {
			log.Info("Outcome already recorded, nothing to recompute", "match_id", o.MatchID)
			return rating.MatchOutcome{}, err
		}
		return rating.MatchOutcome{}, fmt.Errorf("failed to record outcome: %w", err)
	}
	s.metrics.IncOutcomesRecorded()

	signal := changefeed.OutcomeRecorded(o)
	if s.feed == nil {
		s.recomputer.HandleSignal(ctx, signal)
		return o, nil
	}
	if err := s.feed.Publish(ctx, signal); err != nil {
		log.Warn("Failed to publish outcome signal, recomputing in-process", "match_id", o.MatchID, "error", err)
		s.recomputer.HandleSignal(ctx, signal)
	}
	return o, nil
}
