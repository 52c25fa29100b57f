package notifier

import (
	"sync"

	"github.com/mauv0809/fieldrank/internal/rating"
	"github.com/mauv0809/fieldrank/internal/slots"
)

var _ Notifier = (*Mock)(nil)

// AlternativesCall records a SendAlternativeSlots call.
type AlternativesCall struct {
	FacilityID     string
	Date           string
	RequestedRange string
	Suggestions    []slots.SlotSuggestion
	DryRun         bool
}

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies
	SendLeaderboardFunc      func(lb rating.FieldLeaderboard, dryRun bool) error
	SendAlternativeSlotsFunc func(facilityID, date, requestedRange string, suggestions []slots.SlotSuggestion, dryRun bool) error

	// Call records
	SendLeaderboardCalls      []rating.FieldLeaderboard
	SendAlternativeSlotsCalls []AlternativesCall

	// Last formatted responses
	LastLeaderboardResponse  any
	LastProfileResponse      any
	LastOpponentsResponse    any
	LastAlternativesResponse any
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendLeaderboardCalls = nil
	m.SendAlternativeSlotsCalls = nil
	m.LastLeaderboardResponse = nil
	m.LastProfileResponse = nil
	m.LastOpponentsResponse = nil
	m.LastAlternativesResponse = nil
}

func (m *Mock) SendLeaderboard(lb rating.FieldLeaderboard, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendLeaderboardCalls = append(m.SendLeaderboardCalls, lb)
	if m.SendLeaderboardFunc != nil {
		return m.SendLeaderboardFunc(lb, dryRun)
	}
	return nil
}

func (m *Mock) SendAlternativeSlots(facilityID, date, requestedRange string, suggestions []slots.SlotSuggestion, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendAlternativeSlotsCalls = append(m.SendAlternativeSlotsCalls, AlternativesCall{facilityID, date, requestedRange, suggestions, dryRun})
	if m.SendAlternativeSlotsFunc != nil {
		return m.SendAlternativeSlotsFunc(facilityID, date, requestedRange, suggestions, dryRun)
	}
	return nil
}

func (m *Mock) FormatLeaderboardResponse(lb rating.FieldLeaderboard) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp := map[string]any{"type": "leaderboard", "field_id": lb.FieldID, "entries": len(lb.Entries)}
	m.LastLeaderboardResponse = resp
	return resp, nil
}

func (m *Mock) FormatProfileResponse(profile rating.PlayerSkillProfile) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp := map[string]any{"type": "profile", "player_id": profile.PlayerID}
	m.LastProfileResponse = resp
	return resp, nil
}

func (m *Mock) FormatOpponentsResponse(playerID string, suggestions []rating.OpponentSuggestion) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp := map[string]any{"type": "opponents", "player_id": playerID, "suggestions": len(suggestions)}
	m.LastOpponentsResponse = resp
	return resp, nil
}

func (m *Mock) FormatAlternativesResponse(facilityID, date, requestedRange string, suggestions []slots.SlotSuggestion) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp := map[string]any{"type": "alternatives", "facility_id": facilityID, "suggestions": len(suggestions)}
	m.LastAlternativesResponse = resp
	return resp, nil
}
