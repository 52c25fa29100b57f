package store

import (
	"context"
	"sync"

	"github.com/mauv0809/fieldrank/internal/rating"
	"github.com/mauv0809/fieldrank/internal/slots"
)

// MockStore is a mock implementation of the Store interface for testing.
// It is safe for concurrent use. Hooks run outside the lock so they may block.
type MockStore struct {
	mu sync.Mutex

	FetchMatchOutcomesFunc      func(ctx context.Context, playerID, fieldID string) ([]rating.MatchOutcome, error)
	FetchAvailableSlotsFunc     func(ctx context.Context, facilityID, date string) ([]slots.SlotRecord, error)
	WritePlayerSkillProfileFunc func(ctx context.Context, profile rating.PlayerSkillProfile) error
	GetPlayerSkillProfileFunc   func(ctx context.Context, key string) (rating.PlayerSkillProfile, error)
	WriteFieldLeaderboardFunc   func(ctx context.Context, fieldID string, lb rating.FieldLeaderboard) error
	GetFieldLeaderboardFunc     func(ctx context.Context, fieldID string) (rating.FieldLeaderboard, error)
	RecordMatchOutcomeFunc      func(ctx context.Context, outcome rating.MatchOutcome) error
	UpsertSlotsFunc             func(ctx context.Context, records []slots.SlotRecord) error
	ListFieldIDsFunc            func(ctx context.Context) ([]string, error)

	FetchMatchOutcomesCalls []struct {
		PlayerID string
		FieldID  string
	}
	WritePlayerSkillProfileCalls []rating.PlayerSkillProfile
	WriteFieldLeaderboardCalls   []rating.FieldLeaderboard
	RecordMatchOutcomeCalls      []rating.MatchOutcome
	UpsertSlotsCalls             [][]slots.SlotRecord
}

// NewMock creates a new mock instance.
func NewMock() *MockStore {
	return &MockStore{}
}

// Reset clears all call records.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchMatchOutcomesCalls = nil
	m.WritePlayerSkillProfileCalls = nil
	m.WriteFieldLeaderboardCalls = nil
	m.RecordMatchOutcomeCalls = nil
	m.UpsertSlotsCalls = nil
}

// FetchCount returns the number of FetchMatchOutcomes calls so far.
func (m *MockStore) FetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.FetchMatchOutcomesCalls)
}

// LeaderboardWrites returns a copy of the recorded leaderboard writes.
func (m *MockStore) LeaderboardWrites() []rating.FieldLeaderboard {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]rating.FieldLeaderboard(nil), m.WriteFieldLeaderboardCalls...)
}

// ProfileWrites returns a copy of the recorded profile writes.
func (m *MockStore) ProfileWrites() []rating.PlayerSkillProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]rating.PlayerSkillProfile(nil), m.WritePlayerSkillProfileCalls...)
}

func (m *MockStore) FetchMatchOutcomes(ctx context.Context, playerID, fieldID string) ([]rating.MatchOutcome, error) {
	m.mu.Lock()
	m.FetchMatchOutcomesCalls = append(m.FetchMatchOutcomesCalls, struct {
		PlayerID string
		FieldID  string
	}{playerID, fieldID})
	fn := m.FetchMatchOutcomesFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, playerID, fieldID)
	}
	return []rating.MatchOutcome{}, nil
}

func (m *MockStore) FetchAvailableSlots(ctx context.Context, facilityID, date string) ([]slots.SlotRecord, error) {
	m.mu.Lock()
	fn := m.FetchAvailableSlotsFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, facilityID, date)
	}
	return []slots.SlotRecord{}, nil
}

func (m *MockStore) WritePlayerSkillProfile(ctx context.Context, profile rating.PlayerSkillProfile) error {
	m.mu.Lock()
	m.WritePlayerSkillProfileCalls = append(m.WritePlayerSkillProfileCalls, profile)
	fn := m.WritePlayerSkillProfileFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, profile)
	}
	return nil
}

func (m *MockStore) GetPlayerSkillProfile(ctx context.Context, key string) (rating.PlayerSkillProfile, error) {
	m.mu.Lock()
	fn := m.GetPlayerSkillProfileFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, key)
	}
	return rating.PlayerSkillProfile{}, ErrNotFound
}

func (m *MockStore) WriteFieldLeaderboard(ctx context.Context, fieldID string, lb rating.FieldLeaderboard) error {
	m.mu.Lock()
	m.WriteFieldLeaderboardCalls = append(m.WriteFieldLeaderboardCalls, lb)
	fn := m.WriteFieldLeaderboardFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, fieldID, lb)
	}
	return nil
}

func (m *MockStore) GetFieldLeaderboard(ctx context.Context, fieldID string) (rating.FieldLeaderboard, error) {
	m.mu.Lock()
	fn := m.GetFieldLeaderboardFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, fieldID)
	}
	return rating.FieldLeaderboard{}, ErrNotFound
}

func (m *MockStore) RecordMatchOutcome(ctx context.Context, outcome rating.MatchOutcome) error {
	m.mu.Lock()
	m.RecordMatchOutcomeCalls = append(m.RecordMatchOutcomeCalls, outcome)
	fn := m.RecordMatchOutcomeFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, outcome)
	}
	return nil
}

func (m *MockStore) UpsertSlots(ctx context.Context, records []slots.SlotRecord) error {
	m.mu.Lock()
	m.UpsertSlotsCalls = append(m.UpsertSlotsCalls, records)
	fn := m.UpsertSlotsFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, records)
	}
	return nil
}

func (m *MockStore) ListFieldIDs(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	fn := m.ListFieldIDsFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return []string{}, nil
}
