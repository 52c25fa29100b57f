package docstore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mauv0809/fieldrank/internal/changefeed"
	"github.com/mauv0809/fieldrank/internal/rating"
	"github.com/mauv0809/fieldrank/internal/slots"
	"github.com/mauv0809/fieldrank/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore connects to the Firestore emulator with a fresh project so
// tests do not see each other's documents.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	client, err := NewClient(context.Background(), "fieldrank-test-"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return New(client)
}

func TestStore_Outcomes(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	for i, field := range []string{"club-1", "club-2", "club-1"} {
		o := rating.MatchOutcome{
			MatchID:    fmt.Sprintf("m%d", i),
			FieldID:    field,
			Date:       base.Add(time.Duration(i) * time.Hour),
			SideA:      []string{"alice"},
			SideB:      []string{fmt.Sprintf("opp%d", i)},
			WinnerSide: rating.SideA,
			RecordedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.RecordMatchOutcome(ctx, o))
	}
	// Re-recording leaves the stored outcome untouched.
	require.ErrorIs(t, s.RecordMatchOutcome(ctx, rating.MatchOutcome{MatchID: "m0", FieldID: "club-9", SideA: []string{"x"}, SideB: []string{"y"}, IsDraw: true}), store.ErrAlreadyRecorded)

	all, err := s.FetchMatchOutcomes(ctx, "alice", "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"m0", "m1", "m2"}, []string{all[0].MatchID, all[1].MatchID, all[2].MatchID})
	assert.Equal(t, "club-1", all[0].FieldID)

	club1, err := s.FetchMatchOutcomes(ctx, "alice", "club-1")
	require.NoError(t, err)
	assert.Len(t, club1, 2)

	opp, err := s.FetchMatchOutcomes(ctx, "opp1", "")
	require.NoError(t, err)
	assert.Len(t, opp, 1)

	fields, err := s.ListFieldIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"club-1", "club-2"}, fields)
}

func TestStore_Profiles(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	_, err := s.GetPlayerSkillProfile(ctx, "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)

	p := rating.PlayerSkillProfile{PlayerID: "p1", FieldID: "club-1", Skill: 0.1, RecentForm: []rating.Result{rating.Win}, Version: rating.ProfileVersion}
	require.NoError(t, s.WritePlayerSkillProfile(ctx, p))
	p.Skill = 0.2
	require.NoError(t, s.WritePlayerSkillProfile(ctx, p))

	got, err := s.GetPlayerSkillProfile(ctx, "p1_club-1")
	require.NoError(t, err)
	assert.Equal(t, 0.2, got.Skill)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, []rating.Result{rating.Win}, got.RecentForm)
}

func TestStore_Leaderboards(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	_, err := s.GetFieldLeaderboard(ctx, "club-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	lb := rating.FieldLeaderboard{FieldID: "", Entries: []rating.LeaderboardEntry{{PlayerID: "p1", Rank: 1}}}
	require.NoError(t, s.WriteFieldLeaderboard(ctx, "", lb))

	got, err := s.GetFieldLeaderboard(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.Entries[0].PlayerID)
}

func TestStore_Slots(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	slot := func(court, tr string, st slots.Status) slots.SlotRecord {
		return slots.SlotRecord{FacilityID: "club-1", CourtID: court, Date: "2025-07-09", TimeRange: tr, Status: st}
	}
	require.NoError(t, s.UpsertSlots(ctx, []slots.SlotRecord{
		slot("c2", "10:00-11:00", slots.StatusAvailable),
		slot("c1", "10:00-11:00", slots.StatusAvailable),
		slot("c1", "08:00-09:00", slots.StatusAvailable),
	}))
	require.NoError(t, s.UpsertSlots(ctx, []slots.SlotRecord{slot("c1", "08:00-09:00", slots.StatusBooked)}))

	got, err := s.FetchAvailableSlots(ctx, "club-1", "2025-07-09")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c1", got[0].CourtID)
	assert.Equal(t, "c2", got[1].CourtID)
}

func TestFeed_Subscribe(t *testing.T) {
	s := setupTestStore(t)
	feed := NewFeed(s.client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan changefeed.Signal, 4)
	done := make(chan error, 1)
	go func() {
		done <- feed.Subscribe(ctx, func(_ context.Context, sig changefeed.Signal) { signals <- sig })
	}()
	// Give the listener time to attach before writing.
	time.Sleep(500 * time.Millisecond)

	require.NoError(t, s.RecordMatchOutcome(context.Background(), rating.MatchOutcome{
		MatchID: "live", FieldID: "club-1", SideA: []string{"a"}, SideB: []string{"b"}, WinnerSide: rating.SideB,
		RecordedAt: time.Now().UTC(),
	}))

	select {
	case sig := <-signals:
		assert.Equal(t, "live", sig.MatchID)
		assert.ElementsMatch(t, []string{"a", "b"}, sig.PlayerIDs)
	case <-time.After(5 * time.Second):
		t.Fatal("no signal received")
	}

	cancel()
	assert.NoError(t, <-done)
}
