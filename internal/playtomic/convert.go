package playtomic

import (
	"time"

	"github.com/mauv0809/fieldrank/internal/rating"
)

// ToMatchOutcome converts a played match with confirmed results into a
// MatchOutcome. The first team is side A. The team marked WON wins, otherwise
// the team with more sets; equal sets make a draw. Side scores are games won.
// ok is false when the match has no usable result.
func ToMatchOutcome(m PadelMatch) (rating.MatchOutcome, bool) {
	if m.GameStatus != GameStatusPlayed || m.ResultsStatus != ResultsStatusConfirmed {
		return rating.MatchOutcome{}, false
	}
	if len(m.Teams) != 2 || len(m.Results) == 0 {
		return rating.MatchOutcome{}, false
	}

	teamA, teamB := m.Teams[0], m.Teams[1]
	o := rating.MatchOutcome{
		MatchID: m.MatchID,
		FieldID: m.Tenant.ID,
		Date:    time.Unix(m.Start, 0).UTC(),
		SideA:   playerIDs(teamA),
		SideB:   playerIDs(teamB),
	}

	var setsA, setsB int
	for _, set := range m.Results {
		a, b := set.Scores[teamA.ID], set.Scores[teamB.ID]
		o.SideAScore += a
		o.SideBScore += b
		switch {
		case a > b:
			setsA++
		case b > a:
			setsB++
		}
	}

	switch {
	case teamA.TeamResult == TeamResultWon:
		o.WinnerSide = rating.SideA
	case teamB.TeamResult == TeamResultWon:
		o.WinnerSide = rating.SideB
	case setsA > setsB:
		o.WinnerSide = rating.SideA
	case setsB > setsA:
		o.WinnerSide = rating.SideB
	default:
		o.IsDraw = true
	}

	if err := o.Validate(); err != nil {
		return rating.MatchOutcome{}, false
	}
	return o, true
}

func playerIDs(t Team) []string {
	ids := make([]string, 0, len(t.Players))
	for _, p := range t.Players {
		if p.UserID != "" {
			ids = append(ids, p.UserID)
		}
	}
	return ids
}
