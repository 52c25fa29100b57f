package rating_test

import (
	"testing"
	"time"

	"github.com/mauv0809/fieldrank/internal/rating"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

func win(id, field string, winner, loser string, day int) rating.MatchOutcome {
	return rating.MatchOutcome{
		MatchID:    id,
		FieldID:    field,
		Date:       base.AddDate(0, 0, day),
		SideA:      []string{winner},
		SideB:      []string{loser},
		SideAScore: 6,
		SideBScore: 3,
		WinnerSide: rating.SideA,
		RecordedAt: base.AddDate(0, 0, day).Add(2 * time.Hour),
	}
}

func draw(id, field, a, b string, score, day int) rating.MatchOutcome {
	return rating.MatchOutcome{
		MatchID:    id,
		FieldID:    field,
		Date:       base.AddDate(0, 0, day),
		SideA:      []string{a},
		SideB:      []string{b},
		SideAScore: score,
		SideBScore: score,
		IsDraw:     true,
		RecordedAt: base.AddDate(0, 0, day).Add(2 * time.Hour),
	}
}

func TestShrink(t *testing.T) {
	t.Run("zero matches is zero", func(t *testing.T) {
		assert.Equal(t, 0.0, rating.Shrink(0, 0))
		assert.Equal(t, 0.0, rating.Shrink(3, 0))
	})

	t.Run("non-decreasing in volume for a fixed win rate", func(t *testing.T) {
		for _, rate := range []float64{0, 0.25, 0.5, 0.75, 1} {
			prev := 0.0
			for total := 4; total <= 400; total += 4 {
				wins := int(rate * float64(total))
				skill := rating.Shrink(wins, total)
				assert.GreaterOrEqual(t, skill, prev, "rate=%v total=%d", rate, total)
				prev = skill
			}
		}
	})

	t.Run("always within the unit interval", func(t *testing.T) {
		for total := 0; total <= 60; total++ {
			for wins := 0; wins <= total+5; wins++ {
				skill := rating.Shrink(wins, total)
				assert.GreaterOrEqual(t, skill, 0.0)
				assert.LessOrEqual(t, skill, 1.0)
			}
		}
	})

	t.Run("a long record beats a short perfect one", func(t *testing.T) {
		assert.Greater(t, rating.Shrink(40, 50), rating.Shrink(1, 1))
	})
}

func TestComputeSkillProfile(t *testing.T) {
	t.Run("no matches", func(t *testing.T) {
		p := rating.ComputeSkillProfile("alice", "", nil, base)

		assert.Equal(t, "alice", p.PlayerID)
		assert.Equal(t, 0.0, p.Skill)
		assert.Empty(t, p.RecentForm)
		assert.NotNil(t, p.RecentForm)
		assert.Nil(t, p.LastMatchAt)
		assert.Equal(t, 0, p.TotalMatches)
		assert.Equal(t, base, p.UpdatedAt)
		assert.Equal(t, rating.ProfileVersion, p.Version)
	})

	t.Run("three straight wins", func(t *testing.T) {
		outcomes := []rating.MatchOutcome{
			win("m1", "f1", "alice", "bob", 1),
			win("m2", "f1", "alice", "carol", 2),
			win("m3", "f1", "alice", "dave", 3),
		}

		p := rating.ComputeSkillProfile("alice", "", outcomes, base)

		assert.InDelta(t, 3.0/13.0, p.Skill, 1e-9)
		assert.InDelta(t, 0.2308, p.Skill, 1e-4)
		assert.Equal(t, 3, p.Wins)
		assert.Equal(t, 3, p.TotalMatches)
		assert.Equal(t, []rating.Result{rating.Win, rating.Win, rating.Win}, p.RecentForm)
		assert.Equal(t, 3, p.RecentWins)
		assert.Equal(t, 3, p.RecentTotal)
	})

	t.Run("recent form keeps the five latest with most recent last", func(t *testing.T) {
		outcomes := []rating.MatchOutcome{
			// Deliberately out of chronological order.
			win("m5", "f1", "alice", "bob", 5),
			win("m1", "f1", "bob", "alice", 1),
			draw("m6", "f1", "alice", "bob", 2, 6),
			win("m2", "f1", "alice", "bob", 2),
			win("m7", "f1", "bob", "alice", 7),
			win("m3", "f1", "bob", "alice", 3),
			win("m4", "f1", "alice", "bob", 4),
		}

		p := rating.ComputeSkillProfile("alice", "", outcomes, base)

		// Days 3..7: L W W D L
		assert.Equal(t, []rating.Result{rating.Loss, rating.Win, rating.Win, rating.Draw, rating.Loss}, p.RecentForm)
		assert.Equal(t, 2, p.RecentWins)
		assert.Equal(t, 5, p.RecentTotal)
		require.NotNil(t, p.LastMatchAt)
		assert.Equal(t, base.AddDate(0, 0, 7), *p.LastMatchAt)
		assert.Equal(t, 3, p.Wins)
		assert.Equal(t, 3, p.Losses)
		assert.Equal(t, 1, p.Draws)
		assert.Equal(t, 7, p.TotalMatches)
	})

	t.Run("same date falls back to recorded time then match id", func(t *testing.T) {
		a := win("ma", "f1", "alice", "bob", 1)
		b := win("mb", "f1", "bob", "alice", 1)
		c := draw("mc", "f1", "alice", "bob", 1, 1)
		c.RecordedAt = a.RecordedAt.Add(-time.Hour)

		p := rating.ComputeSkillProfile("alice", "", []rating.MatchOutcome{b, a, c}, base)

		// c recorded earliest, then a before b by id.
		assert.Equal(t, []rating.Result{rating.Draw, rating.Win, rating.Loss}, p.RecentForm)
	})

	t.Run("doubles count for every player on the side", func(t *testing.T) {
		o := rating.MatchOutcome{
			MatchID:    "d1",
			FieldID:    "f1",
			Date:       base,
			SideA:      []string{"alice", "bob"},
			SideB:      []string{"carol", "dave"},
			SideAScore: 2,
			SideBScore: 6,
			WinnerSide: rating.SideB,
		}

		assert.Equal(t, []rating.Result{rating.Loss}, rating.ComputeSkillProfile("bob", "", []rating.MatchOutcome{o}, base).RecentForm)
		assert.Equal(t, []rating.Result{rating.Win}, rating.ComputeSkillProfile("dave", "", []rating.MatchOutcome{o}, base).RecentForm)
	})

	t.Run("skips other players, other venues and malformed records", func(t *testing.T) {
		broken := win("m9", "f1", "alice", "bob", 9)
		broken.IsDraw = true
		outcomes := []rating.MatchOutcome{
			win("m1", "f1", "alice", "bob", 1),
			win("m2", "f2", "alice", "bob", 2),
			win("m3", "f1", "carol", "bob", 3),
			broken,
		}

		p := rating.ComputeSkillProfile("alice", "f1", outcomes, base)

		assert.Equal(t, "f1", p.FieldID)
		assert.Equal(t, 1, p.TotalMatches)
		assert.Equal(t, "alice_f1", p.Key())
		assert.Equal(t, 2, rating.ComputeSkillProfile("alice", "", outcomes, base).TotalMatches)
	})
}

func TestMatchOutcomeValidate(t *testing.T) {
	valid := win("m1", "f1", "alice", "bob", 0)

	tests := []struct {
		name   string
		mutate func(o *rating.MatchOutcome)
	}{
		{"missing id", func(o *rating.MatchOutcome) { o.MatchID = "" }},
		{"empty side", func(o *rating.MatchOutcome) { o.SideB = nil }},
		{"draw with winner", func(o *rating.MatchOutcome) { o.IsDraw = true }},
		{"no winner", func(o *rating.MatchOutcome) { o.WinnerSide = "" }},
		{"unknown winner", func(o *rating.MatchOutcome) { o.WinnerSide = "C" }},
		{"player on both sides", func(o *rating.MatchOutcome) { o.SideB = []string{"alice"} }},
		{"empty player id", func(o *rating.MatchOutcome) { o.SideA = []string{""} }},
	}

	require.NoError(t, valid.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := valid
			o.SideA = append([]string(nil), valid.SideA...)
			o.SideB = append([]string(nil), valid.SideB...)
			tt.mutate(&o)
			assert.ErrorIs(t, o.Validate(), rating.ErrInvalidOutcome)
		})
	}

	t.Run("winner and loser ids", func(t *testing.T) {
		assert.Equal(t, "alice", valid.WinnerPlayerID())
		assert.Equal(t, "bob", valid.LoserPlayerID())
		d := draw("m2", "f1", "alice", "bob", 1, 0)
		assert.Empty(t, d.WinnerPlayerID())
		assert.Empty(t, d.LoserPlayerID())
	})
}

func TestProfileKey(t *testing.T) {
	assert.Equal(t, "p1", rating.ProfileKey("p1", ""))
	assert.Equal(t, "p1_f1", rating.ProfileKey("p1", "f1"))
	assert.Equal(t, "p1_f1", rating.PlayerSkillProfile{PlayerID: "p1", FieldID: "f1"}.Key())
}
