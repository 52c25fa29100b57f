package rating

import (
	"fmt"
	"math"
	"time"
)

const (
	// ShrinkageConstant pulls low-volume records toward zero.
	ShrinkageConstant = 10.0
	// LogisticScale is the steepness of the skill-gap sigmoid.
	LogisticScale = 4.0

	drawBase    = 0.05
	drawSpread  = 0.20
	drawCeiling = 0.3
)

// Validate checks the outcome invariants. Records failing it are skipped by
// every aggregation in this package.
func (o MatchOutcome) Validate() error {
	if o.MatchID == "" {
		return fmt.Errorf("%w: missing match id", ErrInvalidOutcome)
	}
	if len(o.SideA) == 0 || len(o.SideB) == 0 {
		return fmt.Errorf("%w: match %s needs players on both sides", ErrInvalidOutcome, o.MatchID)
	}
	if o.IsDraw && o.WinnerSide != "" {
		return fmt.Errorf("%w: match %s is both a draw and won by side %s", ErrInvalidOutcome, o.MatchID, o.WinnerSide)
	}
	if !o.IsDraw && o.WinnerSide != SideA && o.WinnerSide != SideB {
		return fmt.Errorf("%w: match %s has no winner", ErrInvalidOutcome, o.MatchID)
	}
	seen := make(map[string]Side, len(o.SideA)+len(o.SideB))
	for _, side := range []Side{SideA, SideB} {
		for _, id := range o.Players(side) {
			if id == "" {
				return fmt.Errorf("%w: match %s has an empty player id", ErrInvalidOutcome, o.MatchID)
			}
			if prev, ok := seen[id]; ok && prev != side {
				return fmt.Errorf("%w: player %s is on both sides of match %s", ErrInvalidOutcome, id, o.MatchID)
			}
			seen[id] = side
		}
	}
	return nil
}

// Players returns the player IDs on the given side.
func (o MatchOutcome) Players(side Side) []string {
	if side == SideA {
		return o.SideA
	}
	return o.SideB
}

// Participants returns every player in the match, side A first.
func (o MatchOutcome) Participants() []string {
	out := make([]string, 0, len(o.SideA)+len(o.SideB))
	out = append(out, o.SideA...)
	return append(out, o.SideB...)
}

// Score returns the score of the given side.
func (o MatchOutcome) Score(side Side) int {
	if side == SideA {
		return o.SideAScore
	}
	return o.SideBScore
}

// SideOf reports which side playerID played on.
func (o MatchOutcome) SideOf(playerID string) (Side, bool) {
	for _, id := range o.SideA {
		if id == playerID {
			return SideA, true
		}
	}
	for _, id := range o.SideB {
		if id == playerID {
			return SideB, true
		}
	}
	return "", false
}

// WinnerPlayerID is the first player on the winning side, empty for draws.
func (o MatchOutcome) WinnerPlayerID() string {
	if o.IsDraw || o.WinnerSide == "" {
		return ""
	}
	return first(o.Players(o.WinnerSide))
}

// LoserPlayerID is the first player on the losing side, empty for draws.
func (o MatchOutcome) LoserPlayerID() string {
	if o.IsDraw || o.WinnerSide == "" {
		return ""
	}
	return first(o.Players(o.WinnerSide.Other()))
}

// Timestamp is the moment the match is ordered by: its date, or the
// recording time when no date is set.
func (o MatchOutcome) Timestamp() time.Time {
	if o.Date.IsZero() {
		return o.RecordedAt
	}
	return o.Date
}

func (o MatchOutcome) resultFor(playerID string) (Result, bool) {
	side, ok := o.SideOf(playerID)
	if !ok {
		return "", false
	}
	switch {
	case o.IsDraw:
		return Draw, true
	case o.WinnerSide == side:
		return Win, true
	default:
		return Loss, true
	}
}

func first(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// EstimateOutcome returns win/draw/lose probabilities for a player of skill
// mySkill against one of skill opponentSkill. Skills are clamped to [0,1].
func EstimateOutcome(mySkill, opponentSkill float64) OutcomeProbabilities {
	mySkill = clamp(mySkill, 0, 1)
	opponentSkill = clamp(opponentSkill, 0, 1)

	closeness := Closeness(mySkill, opponentSkill)
	pDraw := clamp(drawBase+drawSpread*closeness, 0, drawCeiling)
	remain := clamp(1-pDraw, 0, 1)
	pWin := clamp(WinProbability(mySkill, opponentSkill)*remain, 0, 1)
	pLose := clamp(remain-pWin, 0, 1)

	return OutcomeProbabilities{PWin: pWin, PDraw: pDraw, PLose: pLose}
}

// WinProbability is the logistic of the skill gap, without a draw share.
func WinProbability(mySkill, opponentSkill float64) float64 {
	return sigmoid((mySkill - opponentSkill) * LogisticScale)
}

// Closeness is 1 for equal skills and 0 for a gap of 1 or more.
func Closeness(a, b float64) float64 {
	return 1 - clamp(math.Abs(a-b), 0, 1)
}

// Shrink returns the weighted win rate winRate*total/(total+C), clamped to [0,1].
func Shrink(wins, total int) float64 {
	if total <= 0 {
		return 0
	}
	winRate := float64(wins) / float64(total)
	n := float64(total)
	return clamp(winRate*n/(n+ShrinkageConstant), 0, 1)
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
