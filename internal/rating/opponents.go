package rating

import (
	"sort"
)

const (
	// DefaultSuggestionLimit applies when the caller passes a limit <= 0.
	DefaultSuggestionLimit = 5
	// SuggestionSource tags suggestions produced by SuggestOpponents.
	SuggestionSource = "heuristic"

	closenessWeight = 0.85
	volumeWeight    = 0.15
	volumeCap       = 50
)

// SuggestOpponents ranks candidates by how close their weighted win rate is
// to mySkill, with a small boost for players with more matches. A nil
// mySkill falls back to the median weighted win rate of the candidates.
func SuggestOpponents(mySkill *float64, candidates []LeaderboardEntry, limit int) []OpponentSuggestion {
	if len(candidates) == 0 {
		return []OpponentSuggestion{}
	}
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}

	my := MedianSkill(candidates)
	if mySkill != nil {
		my = clamp(*mySkill, 0, 1)
	}

	out := make([]OpponentSuggestion, 0, len(candidates))
	for _, c := range candidates {
		w := clamp(c.WeightedWinRate, 0, 1)
		volume := float64(min(max(c.TotalMatches, 0), volumeCap)) / volumeCap * volumeWeight
		out = append(out, OpponentSuggestion{
			PlayerID: c.PlayerID,
			Score:    closenessWeight*Closeness(my, w) + volume,
			PWin:     WinProbability(my, w),
			Source:   SuggestionSource,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ExcludePlayer returns candidates without playerID.
func ExcludePlayer(candidates []LeaderboardEntry, playerID string) []LeaderboardEntry {
	if playerID == "" {
		return candidates
	}
	out := make([]LeaderboardEntry, 0, len(candidates))
	for _, c := range candidates {
		if c.PlayerID != playerID {
			out = append(out, c)
		}
	}
	return out
}

// MedianSkill is the upper-middle weighted win rate of the candidates.
func MedianSkill(candidates []LeaderboardEntry) float64 {
	if len(candidates) == 0 {
		return 0
	}
	skills := make([]float64, len(candidates))
	for i, c := range candidates {
		skills[i] = clamp(c.WeightedWinRate, 0, 1)
	}
	sort.Float64s(skills)
	return skills[len(skills)/2]
}
