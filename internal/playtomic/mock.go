package playtomic

import (
	"context"
	"sync"

	"github.com/mauv0809/fieldrank/internal/slots"
)

// MockClient is a mock implementation of the PlaytomicClient interface for testing.
// It is safe for concurrent use.
type MockClient struct {
	mu sync.Mutex

	// Spies for method calls
	GetMatchesFunc       func(params *SearchMatchesParams) ([]MatchSummary, error)
	GetSpecificMatchFunc func(matchID string) (PadelMatch, error)
	GetAvailabilityFunc  func(tenantID, date string) ([]slots.SlotRecord, error)

	// Call records
	GetMatchesCalls       []*SearchMatchesParams
	GetSpecificMatchCalls []string
	GetAvailabilityCalls  []string
}

var _ PlaytomicClient = (*MockClient)(nil)

// NewMockClient creates a new mock instance.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Reset clears all call records.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetMatchesCalls = nil
	m.GetSpecificMatchCalls = nil
	m.GetAvailabilityCalls = nil
}

func (m *MockClient) GetMatches(_ context.Context, params *SearchMatchesParams) ([]MatchSummary, error) {
	m.mu.Lock()
	m.GetMatchesCalls = append(m.GetMatchesCalls, params)
	fn := m.GetMatchesFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(params)
	}
	return []MatchSummary{}, nil
}

func (m *MockClient) GetSpecificMatch(_ context.Context, matchID string) (PadelMatch, error) {
	m.mu.Lock()
	m.GetSpecificMatchCalls = append(m.GetSpecificMatchCalls, matchID)
	fn := m.GetSpecificMatchFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(matchID)
	}
	return PadelMatch{}, nil
}

// GetAvailability records calls as "tenantID/date".
func (m *MockClient) GetAvailability(_ context.Context, tenantID, date string) ([]slots.SlotRecord, error) {
	m.mu.Lock()
	m.GetAvailabilityCalls = append(m.GetAvailabilityCalls, tenantID+"/"+date)
	fn := m.GetAvailabilityFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(tenantID, date)
	}
	return []slots.SlotRecord{}, nil
}
