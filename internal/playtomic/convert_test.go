package playtomic

import (
	"testing"
	"time"

	"github.com/mauv0809/fieldrank/internal/rating"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func playedMatch(sets ...[2]int) PadelMatch {
	m := PadelMatch{
		MatchID:       "m1",
		Start:         time.Date(2025, 7, 9, 18, 0, 0, 0, time.UTC).Unix(),
		GameStatus:    GameStatusPlayed,
		ResultsStatus: ResultsStatusConfirmed,
		Tenant:        Tenant{ID: "club-1"},
		Teams: []Team{
			{ID: "t0", Players: []Player{{UserID: "a1"}, {UserID: "a2"}}},
			{ID: "t1", Players: []Player{{UserID: "b1"}, {UserID: "b2"}}},
		},
	}
	for _, s := range sets {
		m.Results = append(m.Results, SetResult{Scores: map[string]int{"t0": s[0], "t1": s[1]}})
	}
	return m
}

func TestToMatchOutcome(t *testing.T) {
	t.Run("set wins decide the winner", func(t *testing.T) {
		o, ok := ToMatchOutcome(playedMatch([2]int{4, 6}, [2]int{6, 1}, [2]int{3, 6}))
		require.True(t, ok)

		assert.Equal(t, "m1", o.MatchID)
		assert.Equal(t, "club-1", o.FieldID)
		assert.Equal(t, time.Date(2025, 7, 9, 18, 0, 0, 0, time.UTC), o.Date)
		assert.Equal(t, rating.SideB, o.WinnerSide)
		assert.False(t, o.IsDraw)
		// Side A won more games but fewer sets.
		assert.Equal(t, 13, o.SideAScore)
		assert.Equal(t, 13, o.SideBScore)
	})

	t.Run("team result wins over set count", func(t *testing.T) {
		m := playedMatch([2]int{6, 4}, [2]int{4, 6})
		m.Teams[1].TeamResult = TeamResultWon

		o, ok := ToMatchOutcome(m)
		require.True(t, ok)
		assert.Equal(t, rating.SideB, o.WinnerSide)
	})

	t.Run("equal sets is a draw", func(t *testing.T) {
		o, ok := ToMatchOutcome(playedMatch([2]int{6, 4}, [2]int{4, 6}))
		require.True(t, ok)
		assert.True(t, o.IsDraw)
		assert.Empty(t, o.WinnerSide)
	})

	tests := []struct {
		name   string
		mutate func(*PadelMatch)
	}{
		{"not played", func(m *PadelMatch) { m.GameStatus = GameStatusPending }},
		{"unconfirmed", func(m *PadelMatch) { m.ResultsStatus = ResultsStatusValidating }},
		{"no results", func(m *PadelMatch) { m.Results = nil }},
		{"one team", func(m *PadelMatch) { m.Teams = m.Teams[:1] }},
		{"empty team", func(m *PadelMatch) { m.Teams[1].Players = nil }},
		{"player on both teams", func(m *PadelMatch) { m.Teams[1].Players[0].UserID = "a1" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := playedMatch([2]int{6, 2})
			tt.mutate(&m)
			_, ok := ToMatchOutcome(m)
			assert.False(t, ok)
		})
	}
}
