package rating_test

import (
	"testing"

	"github.com/mauv0809/fieldrank/internal/rating"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, rating.Aggregate("f1", nil))
		lb := rating.ComputeLeaderboard("f1", nil, base)
		assert.Empty(t, lb.Entries)
		assert.Equal(t, "f1", lb.FieldID)
		assert.Equal(t, base, lb.UpdatedAt)
	})

	t.Run("decisive match goals follow the winner column", func(t *testing.T) {
		o := win("m1", "f1", "alice", "bob", 0)
		o.SideAScore, o.SideBScore = 6, 2

		entries := rating.Aggregate("f1", []rating.MatchOutcome{o})
		require.Len(t, entries, 2)

		alice, bob := entries[0], entries[1]
		assert.Equal(t, "alice", alice.PlayerID)
		assert.Equal(t, 1, alice.Wins)
		assert.Equal(t, 6, alice.GoalsFor)
		assert.Equal(t, 2, alice.GoalsAgainst)
		assert.Equal(t, 1, bob.Losses)
		assert.Equal(t, 2, bob.GoalsFor)
		assert.Equal(t, 6, bob.GoalsAgainst)

		// Same match with side B as the winner column.
		flipped := rating.MatchOutcome{
			MatchID:    "m2",
			FieldID:    "f1",
			SideA:      []string{"bob"},
			SideB:      []string{"alice"},
			SideAScore: 2,
			SideBScore: 6,
			WinnerSide: rating.SideB,
		}
		entries = rating.Aggregate("f1", []rating.MatchOutcome{flipped})
		require.Len(t, entries, 2)
		assert.Equal(t, "bob", entries[0].PlayerID)
		assert.Equal(t, 2, entries[0].GoalsFor)
		assert.Equal(t, 6, entries[0].GoalsAgainst)
		assert.Equal(t, 6, entries[1].GoalsFor)
		assert.Equal(t, 2, entries[1].GoalsAgainst)
	})

	t.Run("draw goals are taken from each side's own score", func(t *testing.T) {
		// Unequal draw scores pin which column is "for".
		o := draw("m1", "f1", "alice", "bob", 0, 0)
		o.SideAScore, o.SideBScore = 4, 5

		entries := rating.Aggregate("f1", []rating.MatchOutcome{o})
		require.Len(t, entries, 2)

		assert.Equal(t, 1, entries[0].Draws)
		assert.Equal(t, 1, entries[0].TotalMatches)
		assert.Equal(t, 4, entries[0].GoalsFor)
		assert.Equal(t, 5, entries[0].GoalsAgainst)
		assert.Equal(t, 1, entries[1].Draws)
		assert.Equal(t, 5, entries[1].GoalsFor)
		assert.Equal(t, 4, entries[1].GoalsAgainst)
	})

	t.Run("other venues and malformed records are skipped", func(t *testing.T) {
		bad := win("m3", "f1", "carol", "dave", 0)
		bad.WinnerSide = ""
		entries := rating.Aggregate("f1", []rating.MatchOutcome{
			win("m1", "f1", "alice", "bob", 0),
			win("m2", "f2", "erin", "bob", 0),
			bad,
		})
		ids := make([]string, 0, len(entries))
		for _, e := range entries {
			ids = append(ids, e.PlayerID)
		}
		assert.Equal(t, []string{"alice", "bob"}, ids)
	})
}

func TestRankByWinPercent(t *testing.T) {
	outcomes := []rating.MatchOutcome{
		win("m1", "f1", "bob", "alice", 0),
		win("m2", "f1", "carol", "dave", 1),
		win("m3", "f1", "alice", "dave", 2),
	}
	entries := rating.Aggregate("f1", outcomes)
	rating.RankByWinPercent(entries)

	got := make([]string, len(entries))
	for i, e := range entries {
		got[i] = e.PlayerID
		assert.Equal(t, i+1, e.Rank)
	}
	// bob and carol tie at 100% and keep fold order.
	assert.Equal(t, []string{"bob", "carol", "alice", "dave"}, got)
	assert.InDelta(t, 50.0, entries[2].WinPercent, 1e-9)
}

func TestComputeLeaderboard(t *testing.T) {
	t.Run("shrinkage outranks a small perfect record", func(t *testing.T) {
		var outcomes []rating.MatchOutcome
		// veteran: 8 wins from 10.
		for i := 0; i < 8; i++ {
			outcomes = append(outcomes, win(id("v", i), "f1", "veteran", "sparring", i))
		}
		outcomes = append(outcomes,
			win("v8", "f1", "sparring", "veteran", 8),
			win("v9", "f1", "sparring", "veteran", 9),
			win("n0", "f1", "newcomer", "sparring", 10),
		)

		lb := rating.ComputeLeaderboard("f1", outcomes, base)
		require.Len(t, lb.Entries, 3)

		assert.Equal(t, "veteran", lb.Entries[0].PlayerID)
		assert.InDelta(t, 0.4, lb.Entries[0].WeightedWinRate, 1e-9)

		newcomer, ok := lb.Entry("newcomer")
		require.True(t, ok)
		assert.InDelta(t, 100.0, newcomer.WinPercent, 1e-9)
		assert.InDelta(t, 1.0/11.0, newcomer.WeightedWinRate, 1e-9)
		assert.Equal(t, 3, newcomer.Rank)
	})

	t.Run("ranks are dense and unique", func(t *testing.T) {
		players := []string{"a", "b", "c", "d", "e", "f", "g"}
		var outcomes []rating.MatchOutcome
		n := 0
		for i := range players {
			for j := range players {
				if i >= j {
					continue
				}
				if (i+j)%3 == 0 {
					outcomes = append(outcomes, draw(id("m", n), "f1", players[i], players[j], 1, n))
				} else {
					outcomes = append(outcomes, win(id("m", n), "f1", players[i], players[j], n))
				}
				n++
			}
		}

		lb := rating.ComputeLeaderboard("f1", outcomes, base)
		require.Len(t, lb.Entries, len(players))

		seen := map[string]bool{}
		for i, e := range lb.Entries {
			assert.Equal(t, i+1, e.Rank)
			assert.False(t, seen[e.PlayerID])
			seen[e.PlayerID] = true
			if i > 0 {
				assert.LessOrEqual(t, e.WeightedWinRate, lb.Entries[i-1].WeightedWinRate)
			}
		}
	})
}

func TestConsolidate(t *testing.T) {
	entries := []rating.LeaderboardEntry{
		{PlayerID: "a", Wins: 1, TotalMatches: 1, GoalsFor: 6, GoalsAgainst: 1, Rank: 1},
		{PlayerID: "b", Wins: 3, Losses: 1, TotalMatches: 4, Rank: 2},
		{PlayerID: "a", Wins: 2, Losses: 2, Draws: 1, TotalMatches: 5, GoalsFor: 3, GoalsAgainst: 4, Rank: 3},
	}

	out := rating.Consolidate(entries)
	require.Len(t, out, 2)

	// b: 3/4 shrinks to 3/14, a: 3/6 shrinks to 3/16.
	assert.Equal(t, "b", out[0].PlayerID)
	assert.InDelta(t, 3.0/14.0, out[0].WeightedWinRate, 1e-9)
	assert.Equal(t, 1, out[0].Rank)

	assert.Equal(t, "a", out[1].PlayerID)
	assert.Equal(t, 3, out[1].Wins)
	assert.Equal(t, 2, out[1].Losses)
	assert.Equal(t, 1, out[1].Draws)
	assert.Equal(t, 6, out[1].TotalMatches)
	assert.Equal(t, 9, out[1].GoalsFor)
	assert.Equal(t, 5, out[1].GoalsAgainst)
	assert.InDelta(t, 50.0, out[1].WinPercent, 1e-9)
	assert.InDelta(t, 3.0/16.0, out[1].WeightedWinRate, 1e-9)
	assert.Equal(t, 2, out[1].Rank)
}

func id(prefix string, n int) string {
	return prefix + string(rune('a'+n/26)) + string(rune('a'+n%26))
}
