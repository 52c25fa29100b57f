package store

import (
	"context"
	"errors"

	"github.com/mauv0809/fieldrank/internal/rating"
	"github.com/mauv0809/fieldrank/internal/slots"
)

// ErrNotFound is returned when a requested aggregate has not been computed.
var ErrNotFound = errors.New("not found")

// ErrAlreadyRecorded is returned when an outcome with the same match ID
// exists. The stored outcome is left untouched.
var ErrAlreadyRecorded = errors.New("outcome already recorded")

// Store is the persistence boundary of the rating engine. Outcomes and
// slots are the source of truth; profiles and leaderboards are caches that
// are fully overwritten on every write.
type Store interface {
	// FetchMatchOutcomes returns outcomes in recording order. Empty
	// playerID or fieldID means no filter on that dimension.
	FetchMatchOutcomes(ctx context.Context, playerID, fieldID string) ([]rating.MatchOutcome, error)
	FetchAvailableSlots(ctx context.Context, facilityID, date string) ([]slots.SlotRecord, error)

	WritePlayerSkillProfile(ctx context.Context, profile rating.PlayerSkillProfile) error
	GetPlayerSkillProfile(ctx context.Context, key string) (rating.PlayerSkillProfile, error)
	WriteFieldLeaderboard(ctx context.Context, fieldID string, lb rating.FieldLeaderboard) error
	GetFieldLeaderboard(ctx context.Context, fieldID string) (rating.FieldLeaderboard, error)

	// RecordMatchOutcome stores an outcome. Re-recording an existing
	// match ID returns ErrAlreadyRecorded.
	RecordMatchOutcome(ctx context.Context, outcome rating.MatchOutcome) error
	UpsertSlots(ctx context.Context, records []slots.SlotRecord) error
	ListFieldIDs(ctx context.Context) ([]string, error)
}
