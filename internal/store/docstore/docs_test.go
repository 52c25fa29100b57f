package docstore

import (
	"testing"
	"time"

	"github.com/mauv0809/fieldrank/internal/rating"
	"github.com/mauv0809/fieldrank/internal/slots"
	"github.com/stretchr/testify/assert"
)

func TestOutcomeDoc(t *testing.T) {
	o := rating.MatchOutcome{
		MatchID:    "m1",
		FieldID:    "club-1",
		Date:       time.Date(2025, 7, 9, 18, 0, 0, 0, time.UTC),
		SideA:      []string{"a1", "a2"},
		SideB:      []string{"b1"},
		SideAScore: 6,
		SideBScore: 4,
		WinnerSide: rating.SideA,
		RecordedAt: time.Date(2025, 7, 9, 20, 0, 0, 0, time.UTC),
	}

	d := toOutcomeDoc(o)
	assert.ElementsMatch(t, []string{"a1", "a2", "b1"}, d.Players)
	assert.Equal(t, "A", d.WinnerSide)
	assert.Equal(t, o, d.outcome())
}

func TestProfileDoc(t *testing.T) {
	last := time.Date(2025, 7, 9, 18, 0, 0, 0, time.UTC)
	p := rating.PlayerSkillProfile{
		PlayerID:     "p1",
		FieldID:      "club-1",
		Skill:        0.2,
		RecentForm:   []rating.Result{rating.Win, rating.Loss},
		RecentWins:   1,
		RecentTotal:  2,
		Wins:         1,
		Losses:       1,
		TotalMatches: 2,
		LastMatchAt:  &last,
		UpdatedAt:    last.Add(time.Hour),
		Version:      3,
	}

	d := toProfileDoc(p)
	assert.Equal(t, "WL", d.RecentForm)
	assert.Equal(t, p, d.profile())

	p.LastMatchAt = nil
	p.RecentForm = []rating.Result{}
	assert.Equal(t, p, toProfileDoc(p).profile())
}

func TestLeaderboardDoc(t *testing.T) {
	lb := rating.FieldLeaderboard{
		FieldID:   "club-1",
		UpdatedAt: time.Date(2025, 7, 9, 0, 0, 0, 0, time.UTC),
		Entries: []rating.LeaderboardEntry{
			{PlayerID: "p1", Wins: 3, TotalMatches: 4, WinPercent: 75, WeightedWinRate: 3.0 / 14, Rank: 1},
		},
	}
	assert.Equal(t, lb, toLeaderboardDoc("club-1", lb).leaderboard())

	empty := toLeaderboardDoc("club-2", rating.FieldLeaderboard{}).leaderboard()
	assert.NotNil(t, empty.Entries)
	assert.Equal(t, "club-2", empty.FieldID)
}

func TestSlotDoc(t *testing.T) {
	s := slots.SlotRecord{FacilityID: "club-1", CourtID: "c1", Date: "2025-07-09", TimeRange: "10:00-11:00"}
	d := toSlotDoc(s)
	assert.Equal(t, "available", d.Status)
	assert.Equal(t, slots.StatusAvailable, d.record().Status)
}

func TestDocID(t *testing.T) {
	assert.Equal(t, allFieldsID, docID(""))
	assert.Equal(t, "p1_club-1", docID("p1_club-1"))
	assert.NotContains(t, docID("a/b"), "/")
	assert.NotContains(t, slotID(slots.SlotRecord{FacilityID: "f", CourtID: "c/1", Date: "d", TimeRange: "t"}), "/")
}
