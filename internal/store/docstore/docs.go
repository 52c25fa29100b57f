package docstore

import (
	"net/url"
	"strings"
	"time"

	"github.com/mauv0809/fieldrank/internal/rating"
	"github.com/mauv0809/fieldrank/internal/slots"
)

// Collection names.
const (
	outcomesCollection     = "match_outcomes"
	profilesCollection     = "ai_profiles"
	leaderboardsCollection = "field_leaderboards"
	slotsCollection        = "slots"
)

// allFieldsID stands in for the empty field ID, which is not a valid document ID.
const allFieldsID = "_all"

type outcomeDoc struct {
	MatchID    string    `firestore:"match_id"`
	FieldID    string    `firestore:"field_id"`
	Date       time.Time `firestore:"date"`
	SideA      []string  `firestore:"side_a"`
	SideB      []string  `firestore:"side_b"`
	Players    []string  `firestore:"players"`
	SideAScore int       `firestore:"side_a_score"`
	SideBScore int       `firestore:"side_b_score"`
	WinnerSide string    `firestore:"winner_side"`
	IsDraw     bool      `firestore:"is_draw"`
	RecordedAt time.Time `firestore:"recorded_at"`
}

func toOutcomeDoc(o rating.MatchOutcome) outcomeDoc {
	return outcomeDoc{
		MatchID:    o.MatchID,
		FieldID:    o.FieldID,
		Date:       o.Date,
		SideA:      o.SideA,
		SideB:      o.SideB,
		Players:    o.Participants(),
		SideAScore: o.SideAScore,
		SideBScore: o.SideBScore,
		WinnerSide: string(o.WinnerSide),
		IsDraw:     o.IsDraw,
		RecordedAt: o.RecordedAt,
	}
}

func (d outcomeDoc) outcome() rating.MatchOutcome {
	return rating.MatchOutcome{
		MatchID:    d.MatchID,
		FieldID:    d.FieldID,
		Date:       d.Date.UTC(),
		SideA:      d.SideA,
		SideB:      d.SideB,
		SideAScore: d.SideAScore,
		SideBScore: d.SideBScore,
		WinnerSide: rating.Side(d.WinnerSide),
		IsDraw:     d.IsDraw,
		RecordedAt: d.RecordedAt.UTC(),
	}
}

type profileDoc struct {
	PlayerID     string     `firestore:"player_id"`
	FieldID      string     `firestore:"field_id"`
	Skill        float64    `firestore:"skill"`
	RecentForm   string     `firestore:"recent_form"`
	RecentWins   int        `firestore:"recent_wins"`
	RecentTotal  int        `firestore:"recent_total"`
	Wins         int        `firestore:"wins"`
	Losses       int        `firestore:"losses"`
	Draws        int        `firestore:"draws"`
	TotalMatches int        `firestore:"total_matches"`
	LastMatchAt  *time.Time `firestore:"last_match_at"`
	UpdatedAt    time.Time  `firestore:"updated_at"`
	Version      int        `firestore:"version"`
}

func toProfileDoc(p rating.PlayerSkillProfile) profileDoc {
	return profileDoc{
		PlayerID:     p.PlayerID,
		FieldID:      p.FieldID,
		Skill:        p.Skill,
		RecentForm:   rating.EncodeForm(p.RecentForm),
		RecentWins:   p.RecentWins,
		RecentTotal:  p.RecentTotal,
		Wins:         p.Wins,
		Losses:       p.Losses,
		Draws:        p.Draws,
		TotalMatches: p.TotalMatches,
		LastMatchAt:  p.LastMatchAt,
		UpdatedAt:    p.UpdatedAt,
		Version:      p.Version,
	}
}

func (d profileDoc) profile() rating.PlayerSkillProfile {
	p := rating.PlayerSkillProfile{
		PlayerID:     d.PlayerID,
		FieldID:      d.FieldID,
		Skill:        d.Skill,
		RecentForm:   rating.DecodeForm(d.RecentForm),
		RecentWins:   d.RecentWins,
		RecentTotal:  d.RecentTotal,
		Wins:         d.Wins,
		Losses:       d.Losses,
		Draws:        d.Draws,
		TotalMatches: d.TotalMatches,
		UpdatedAt:    d.UpdatedAt.UTC(),
		Version:      d.Version,
	}
	if d.LastMatchAt != nil {
		t := d.LastMatchAt.UTC()
		p.LastMatchAt = &t
	}
	return p
}

type entryDoc struct {
	PlayerID        string  `firestore:"player_id"`
	Wins            int     `firestore:"wins"`
	Losses          int     `firestore:"losses"`
	Draws           int     `firestore:"draws"`
	TotalMatches    int     `firestore:"total_matches"`
	GoalsFor        int     `firestore:"goals_for"`
	GoalsAgainst    int     `firestore:"goals_against"`
	WinPercent      float64 `firestore:"win_percent"`
	WeightedWinRate float64 `firestore:"weighted_win_rate"`
	Rank            int     `firestore:"rank"`
}

type leaderboardDoc struct {
	FieldID   string     `firestore:"field_id"`
	UpdatedAt time.Time  `firestore:"updated_at"`
	Entries   []entryDoc `firestore:"entries"`
}

func toLeaderboardDoc(fieldID string, lb rating.FieldLeaderboard) leaderboardDoc {
	d := leaderboardDoc{FieldID: fieldID, UpdatedAt: lb.UpdatedAt, Entries: make([]entryDoc, len(lb.Entries))}
	for i, e := range lb.Entries {
		d.Entries[i] = entryDoc(e)
	}
	return d
}

func (d leaderboardDoc) leaderboard() rating.FieldLeaderboard {
	lb := rating.FieldLeaderboard{FieldID: d.FieldID, UpdatedAt: d.UpdatedAt.UTC(), Entries: make([]rating.LeaderboardEntry, len(d.Entries))}
	for i, e := range d.Entries {
		lb.Entries[i] = rating.LeaderboardEntry(e)
	}
	return lb
}

type slotDoc struct {
	FacilityID string `firestore:"facility_id"`
	CourtID    string `firestore:"court_id"`
	Date       string `firestore:"date"`
	TimeRange  string `firestore:"time_range"`
	Status     string `firestore:"status"`
}

func toSlotDoc(s slots.SlotRecord) slotDoc {
	status := s.Status
	if status == "" {
		status = slots.StatusAvailable
	}
	return slotDoc{FacilityID: s.FacilityID, CourtID: s.CourtID, Date: s.Date, TimeRange: s.TimeRange, Status: string(status)}
}

func (d slotDoc) record() slots.SlotRecord {
	return slots.SlotRecord{FacilityID: d.FacilityID, CourtID: d.CourtID, Date: d.Date, TimeRange: d.TimeRange, Status: slots.Status(d.Status)}
}

// docID escapes a key into a valid document ID.
func docID(key string) string {
	if key == "" {
		return allFieldsID
	}
	return url.PathEscape(key)
}

func slotID(s slots.SlotRecord) string {
	return docID(strings.Join([]string{s.FacilityID, s.CourtID, s.Date, s.TimeRange}, "|"))
}
