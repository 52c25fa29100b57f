package playtomic

import (
	"context"

	"github.com/mauv0809/fieldrank/internal/slots"
)

// PlaytomicClient defines the interface for interacting with the Playtomic API.
// This allows for mock implementations to be used in tests.
type PlaytomicClient interface {
	GetMatches(ctx context.Context, params *SearchMatchesParams) ([]MatchSummary, error)
	GetSpecificMatch(ctx context.Context, matchID string) (PadelMatch, error)
	GetAvailability(ctx context.Context, tenantID, date string) ([]slots.SlotRecord, error)
}
