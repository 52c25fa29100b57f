package rating

import (
	"sort"
	"time"

	"github.com/charmbracelet/log"
)

// ComputeLeaderboard folds the outcomes of one venue into a ranked
// leaderboard. The returned entries are in the canonical shrinkage order.
func ComputeLeaderboard(fieldID string, outcomes []MatchOutcome, now time.Time) FieldLeaderboard {
	entries := Aggregate(fieldID, outcomes)
	RankByWinPercent(entries)
	return FieldLeaderboard{
		FieldID:   fieldID,
		UpdatedAt: now,
		Entries:   Consolidate(entries),
	}
}

// Aggregate tallies wins, losses, draws and goals per player. Entries are
// returned in order of first appearance with WinPercent and WeightedWinRate
// filled in and Rank left at zero.
func Aggregate(fieldID string, outcomes []MatchOutcome) []LeaderboardEntry {
	index := make(map[string]int)
	var entries []LeaderboardEntry

	tally := func(playerID string) *LeaderboardEntry {
		i, ok := index[playerID]
		if !ok {
			i = len(entries)
			index[playerID] = i
			entries = append(entries, LeaderboardEntry{PlayerID: playerID})
		}
		return &entries[i]
	}

	for _, o := range outcomes {
		if fieldID != "" && o.FieldID != fieldID {
			continue
		}
		if err := o.Validate(); err != nil {
			log.Debug("Skipping outcome", "field_id", fieldID, "error", err)
			continue
		}
		for _, side := range []Side{SideA, SideB} {
			goalsFor, goalsAgainst := o.Score(side), o.Score(side.Other())
			for _, playerID := range dedupe(o.Players(side)) {
				e := tally(playerID)
				e.TotalMatches++
				e.GoalsFor += goalsFor
				e.GoalsAgainst += goalsAgainst
				switch {
				case o.IsDraw:
					e.Draws++
				case o.WinnerSide == side:
					e.Wins++
				default:
					e.Losses++
				}
			}
		}
	}

	for i := range entries {
		fillRates(&entries[i])
	}
	return entries
}

// RankByWinPercent stable-sorts entries by WinPercent descending and assigns
// ranks 1..N in place.
func RankByWinPercent(entries []LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].WinPercent > entries[j].WinPercent
	})
	assignRanks(entries)
}

// Consolidate merges duplicate player rows, recomputes their rates and
// re-ranks by WeightedWinRate descending. Ties keep their incoming order.
func Consolidate(entries []LeaderboardEntry) []LeaderboardEntry {
	index := make(map[string]int, len(entries))
	out := make([]LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		i, ok := index[e.PlayerID]
		if !ok {
			index[e.PlayerID] = len(out)
			out = append(out, LeaderboardEntry{PlayerID: e.PlayerID})
			i = len(out) - 1
		}
		merged := &out[i]
		merged.Wins += e.Wins
		merged.Losses += e.Losses
		merged.Draws += e.Draws
		merged.TotalMatches += e.TotalMatches
		merged.GoalsFor += e.GoalsFor
		merged.GoalsAgainst += e.GoalsAgainst
	}

	for i := range out {
		fillRates(&out[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].WeightedWinRate > out[j].WeightedWinRate
	})
	assignRanks(out)
	return out
}

func fillRates(e *LeaderboardEntry) {
	e.WinPercent = 0
	if e.TotalMatches > 0 {
		e.WinPercent = float64(e.Wins) / float64(e.TotalMatches) * 100
	}
	e.WeightedWinRate = Shrink(e.Wins, e.TotalMatches)
}

func assignRanks(entries []LeaderboardEntry) {
	for i := range entries {
		entries[i].Rank = i + 1
	}
}

func dedupe(ids []string) []string {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
