package rating

import (
	"errors"
	"strings"
	"time"
)

// Side identifies one half of a match.
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// Result is a single match result from one player's point of view.
type Result string

const (
	Win  Result = "W"
	Draw Result = "D"
	Loss Result = "L"
)

// EncodeForm renders a result sequence as a compact string such as "WWDL".
func EncodeForm(form []Result) string {
	var b strings.Builder
	for _, r := range form {
		b.WriteString(string(r))
	}
	return b.String()
}

// DecodeForm is the inverse of EncodeForm. It never returns nil.
func DecodeForm(s string) []Result {
	form := make([]Result, 0, len(s))
	for _, c := range s {
		form = append(form, Result(string(c)))
	}
	return form
}

// ErrInvalidOutcome is returned by MatchOutcome.Validate.
var ErrInvalidOutcome = errors.New("invalid match outcome")

// MatchOutcome is a recorded, immutable match result.
// Exactly one of IsDraw or WinnerSide is set.
type MatchOutcome struct {
	MatchID    string    `json:"match_id" msgpack:"match_id"`
	FieldID    string    `json:"field_id" msgpack:"field_id"`
	Date       time.Time `json:"date" msgpack:"date"`
	SideA      []string  `json:"side_a" msgpack:"side_a"`
	SideB      []string  `json:"side_b" msgpack:"side_b"`
	SideAScore int       `json:"side_a_score" msgpack:"side_a_score"`
	SideBScore int       `json:"side_b_score" msgpack:"side_b_score"`
	WinnerSide Side      `json:"winner_side,omitempty" msgpack:"winner_side"`
	IsDraw     bool      `json:"is_draw" msgpack:"is_draw"`
	RecordedAt time.Time `json:"recorded_at" msgpack:"recorded_at"`
}

// PlayerSkillProfile is the per-player skill document ("AiProfile").
// An empty FieldID means the profile spans all venues.
type PlayerSkillProfile struct {
	PlayerID     string     `json:"player_id"`
	FieldID      string     `json:"field_id,omitempty"`
	Skill        float64    `json:"skill"`
	RecentForm   []Result   `json:"recent_form"`
	RecentWins   int        `json:"recent_wins"`
	RecentTotal  int        `json:"recent_total"`
	Wins         int        `json:"wins"`
	Losses       int        `json:"losses"`
	Draws        int        `json:"draws"`
	TotalMatches int        `json:"total_matches"`
	LastMatchAt  *time.Time `json:"last_match_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Version      int        `json:"version"`
}

// Key returns the storage key of the profile.
func (p PlayerSkillProfile) Key() string {
	return ProfileKey(p.PlayerID, p.FieldID)
}

// ProfileKey is playerID for cross-venue profiles and playerID_fieldID otherwise.
func ProfileKey(playerID, fieldID string) string {
	if fieldID == "" {
		return playerID
	}
	return playerID + "_" + fieldID
}

// LeaderboardEntry is one player's row on a venue leaderboard.
type LeaderboardEntry struct {
	PlayerID        string  `json:"player_id"`
	Wins            int     `json:"wins"`
	Losses          int     `json:"losses"`
	Draws           int     `json:"draws"`
	TotalMatches    int     `json:"total_matches"`
	GoalsFor        int     `json:"goals_for"`
	GoalsAgainst    int     `json:"goals_against"`
	WinPercent      float64 `json:"win_percent"`
	WeightedWinRate float64 `json:"weighted_win_rate"`
	Rank            int     `json:"rank"`
}

// FieldLeaderboard holds the ranked entries for one venue, rank ascending.
type FieldLeaderboard struct {
	FieldID   string             `json:"field_id"`
	UpdatedAt time.Time          `json:"updated_at"`
	Entries   []LeaderboardEntry `json:"entries"`
}

// Entry returns the entry for playerID, if present.
func (lb FieldLeaderboard) Entry(playerID string) (LeaderboardEntry, bool) {
	for _, e := range lb.Entries {
		if e.PlayerID == playerID {
			return e, true
		}
	}
	return LeaderboardEntry{}, false
}

// OpponentSuggestion is a ranked candidate opponent.
type OpponentSuggestion struct {
	PlayerID string  `json:"player_id"`
	Score    float64 `json:"score"`
	PWin     float64 `json:"p_win"`
	Source   string  `json:"source"`
}

// OutcomeProbabilities always sum to 1.
type OutcomeProbabilities struct {
	PWin  float64 `json:"p_win"`
	PDraw float64 `json:"p_draw"`
	PLose float64 `json:"p_lose"`
}
