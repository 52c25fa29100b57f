package notifier

import (
	"github.com/mauv0809/fieldrank/internal/rating"
	"github.com/mauv0809/fieldrank/internal/slots"
)

// Notifier defines a high-level interface for sending notifications about business events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// Channel announcements
	SendLeaderboard(lb rating.FieldLeaderboard, dryRun bool) error
	SendAlternativeSlots(facilityID, date, requestedRange string, suggestions []slots.SlotSuggestion, dryRun bool) error

	// For formatting responses for slash commands
	FormatLeaderboardResponse(lb rating.FieldLeaderboard) (any, error)
	FormatProfileResponse(profile rating.PlayerSkillProfile) (any, error)
	FormatOpponentsResponse(playerID string, suggestions []rating.OpponentSuggestion) (any, error)
	FormatAlternativesResponse(facilityID, date, requestedRange string, suggestions []slots.SlotSuggestion) (any, error)
}
