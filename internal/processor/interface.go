package processor

import (
	"context"

	"github.com/mauv0809/fieldrank/internal/rating"
)

// Store defines the database operations required by the processor.
type Store interface {
	FetchMatchOutcomes(ctx context.Context, playerID, fieldID string) ([]rating.MatchOutcome, error)
	WritePlayerSkillProfile(ctx context.Context, profile rating.PlayerSkillProfile) error
	WriteFieldLeaderboard(ctx context.Context, fieldID string, lb rating.FieldLeaderboard) error
	ListFieldIDs(ctx context.Context) ([]string, error)
}
