package matchmaking

import (
	"context"

	"github.com/mauv0809/fieldrank/internal/changefeed"
	"github.com/mauv0809/fieldrank/internal/rating"
	"github.com/mauv0809/fieldrank/internal/slots"
)

// MatchmakingService answers the rating and matchmaking queries of every
// surface (HTTP, Slack, MCP).
type MatchmakingService interface {
	// Leaderboard returns the cached leaderboard of a venue, computing it on a miss.
	Leaderboard(ctx context.Context, fieldID string) (rating.FieldLeaderboard, error)

	// Profile returns the cached skill profile, computing it on a miss.
	Profile(ctx context.Context, playerID, fieldID string) (rating.PlayerSkillProfile, error)

	// Estimate returns win/draw/lose probabilities for a pairing.
	Estimate(ctx context.Context, req EstimateRequest) (rating.OutcomeProbabilities, error)

	// SuggestOpponents ranks the venue's players as opponents.
	SuggestOpponents(ctx context.Context, req OpponentsRequest) ([]rating.OpponentSuggestion, error)

	// Alternatives returns up to three free slots close to a requested one.
	Alternatives(ctx context.Context, facilityID, date, requestedRange string) []slots.SlotSuggestion

	// RecordOutcome validates, stores and announces a match outcome.
	RecordOutcome(ctx context.Context, outcome rating.MatchOutcome, dryRun bool) (rating.MatchOutcome, error)
}

// Store defines the database operations required by the service.
type Store interface {
	GetFieldLeaderboard(ctx context.Context, fieldID string) (rating.FieldLeaderboard, error)
	GetPlayerSkillProfile(ctx context.Context, key string) (rating.PlayerSkillProfile, error)
	RecordMatchOutcome(ctx context.Context, outcome rating.MatchOutcome) error
	FetchAvailableSlots(ctx context.Context, facilityID, date string) ([]slots.SlotRecord, error)
}

// Recomputer rebuilds cached aggregates. It is implemented by the processor.
type Recomputer interface {
	RecomputeLeaderboard(ctx context.Context, fieldID string) (rating.FieldLeaderboard, error)
	RecomputeProfile(ctx context.Context, playerID, fieldID string) (rating.PlayerSkillProfile, error)
	HandleSignal(ctx context.Context, s changefeed.Signal)
}
