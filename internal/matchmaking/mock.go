package matchmaking

import (
	"context"
	"sync"

	"github.com/mauv0809/fieldrank/internal/rating"
	"github.com/mauv0809/fieldrank/internal/slots"
)

var _ MatchmakingService = (*MockService)(nil)

// MockService is a mock implementation of MatchmakingService for testing.
// It is safe for concurrent use.
type MockService struct {
	mu sync.Mutex

	LeaderboardFunc      func(ctx context.Context, fieldID string) (rating.FieldLeaderboard, error)
	ProfileFunc          func(ctx context.Context, playerID, fieldID string) (rating.PlayerSkillProfile, error)
	EstimateFunc         func(ctx context.Context, req EstimateRequest) (rating.OutcomeProbabilities, error)
	SuggestOpponentsFunc func(ctx context.Context, req OpponentsRequest) ([]rating.OpponentSuggestion, error)
	AlternativesFunc     func(ctx context.Context, facilityID, date, requestedRange string) []slots.SlotSuggestion
	RecordOutcomeFunc    func(ctx context.Context, outcome rating.MatchOutcome, dryRun bool) (rating.MatchOutcome, error)

	EstimateCalls         []EstimateRequest
	SuggestOpponentsCalls []OpponentsRequest
	RecordOutcomeCalls    []rating.MatchOutcome
}

// NewMockService creates a new mock instance.
func NewMockService() *MockService {
	return &MockService{}
}

// Reset clears all call records.
func (m *MockService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EstimateCalls = nil
	m.SuggestOpponentsCalls = nil
	m.RecordOutcomeCalls = nil
}

func (m *MockService) Leaderboard(ctx context.Context, fieldID string) (rating.FieldLeaderboard, error) {
	if m.LeaderboardFunc != nil {
		return m.LeaderboardFunc(ctx, fieldID)
	}
	return rating.FieldLeaderboard{FieldID: fieldID, Entries: []rating.LeaderboardEntry{}}, nil
}

func (m *MockService) Profile(ctx context.Context, playerID, fieldID string) (rating.PlayerSkillProfile, error) {
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx, playerID, fieldID)
	}
	return rating.PlayerSkillProfile{PlayerID: playerID, FieldID: fieldID, RecentForm: []rating.Result{}}, nil
}

func (m *MockService) Estimate(ctx context.Context, req EstimateRequest) (rating.OutcomeProbabilities, error) {
	m.mu.Lock()
	m.EstimateCalls = append(m.EstimateCalls, req)
	m.mu.Unlock()
	if m.EstimateFunc != nil {
		return m.EstimateFunc(ctx, req)
	}
	return rating.EstimateOutcome(0.5, 0.5), nil
}

func (m *MockService) SuggestOpponents(ctx context.Context, req OpponentsRequest) ([]rating.OpponentSuggestion, error) {
	m.mu.Lock()
	m.SuggestOpponentsCalls = append(m.SuggestOpponentsCalls, req)
	m.mu.Unlock()
	if m.SuggestOpponentsFunc != nil {
		return m.SuggestOpponentsFunc(ctx, req)
	}
	return []rating.OpponentSuggestion{}, nil
}

func (m *MockService) Alternatives(ctx context.Context, facilityID, date, requestedRange string) []slots.SlotSuggestion {
	if m.AlternativesFunc != nil {
		return m.AlternativesFunc(ctx, facilityID, date, requestedRange)
	}
	return []slots.SlotSuggestion{}
}

func (m *MockService) RecordOutcome(ctx context.Context, outcome rating.MatchOutcome, dryRun bool) (rating.MatchOutcome, error) {
	m.mu.Lock()
	m.RecordOutcomeCalls = append(m.RecordOutcomeCalls, outcome)
	m.mu.Unlock()
	if m.RecordOutcomeFunc != nil {
		return m.RecordOutcomeFunc(ctx, outcome, dryRun)
	}
	return outcome, nil
}
