package rating

import (
	"sort"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// RecentFormSize is how many of the latest results a profile keeps.
	RecentFormSize = 5
	// ProfileVersion is the version a freshly computed profile starts at.
	// Stores bump it on every overwrite.
	ProfileVersion = 1
)

type classified struct {
	outcome MatchOutcome
	result  Result
}

// ComputeSkillProfile derives a player's profile from match outcomes.
// When fieldID is set only outcomes played at that venue count.
// Outcomes not naming the player, or failing validation, are skipped.
func ComputeSkillProfile(playerID, fieldID string, outcomes []MatchOutcome, now time.Time) PlayerSkillProfile {
	profile := PlayerSkillProfile{
		PlayerID:   playerID,
		FieldID:    fieldID,
		RecentForm: []Result{},
		UpdatedAt:  now,
		Version:    ProfileVersion,
	}

	var results []classified
	for _, o := range outcomes {
		if fieldID != "" && o.FieldID != fieldID {
			continue
		}
		if err := o.Validate(); err != nil {
			log.Debug("Skipping outcome", "player_id", playerID, "error", err)
			continue
		}
		res, ok := o.resultFor(playerID)
		if !ok {
			continue
		}
		results = append(results, classified{outcome: o, result: res})
		switch res {
		case Win:
			profile.Wins++
		case Loss:
			profile.Losses++
		case Draw:
			profile.Draws++
		}
	}

	profile.TotalMatches = len(results)
	profile.Skill = Shrink(profile.Wins, profile.TotalMatches)
	if len(results) == 0 {
		return profile
	}

	// Newest first.
	sort.SliceStable(results, func(i, j int) bool {
		return newer(results[i].outcome, results[j].outcome)
	})

	latest := results[0].outcome.Timestamp()
	profile.LastMatchAt = &latest

	n := min(RecentFormSize, len(results))
	form := make([]Result, n)
	for i := 0; i < n; i++ {
		// Oldest of the window first, most recent last.
		form[n-1-i] = results[i].result
		if results[i].result == Win {
			profile.RecentWins++
		}
	}
	profile.RecentForm = form
	profile.RecentTotal = n

	return profile
}

func newer(a, b MatchOutcome) bool {
	if ta, tb := a.Timestamp(), b.Timestamp(); !ta.Equal(tb) {
		return ta.After(tb)
	}
	if !a.RecordedAt.Equal(b.RecordedAt) {
		return a.RecordedAt.After(b.RecordedAt)
	}
	return a.MatchID > b.MatchID
}
