package matchmaking

import "errors"

// ErrBadRequest wraps caller errors such as missing parameters.
var ErrBadRequest = errors.New("bad request")

// EstimateRequest describes a pairing. A skill wins over a player ID for the
// same side. Player skills are read from the profile for FieldID.
type EstimateRequest struct {
	MySkill       *float64 `json:"my_skill,omitempty"`
	OpponentSkill *float64 `json:"opponent_skill,omitempty"`
	PlayerID      string   `json:"player_id,omitempty"`
	OpponentID    string   `json:"opponent_id,omitempty"`
	FieldID       string   `json:"field_id,omitempty"`
}

// OpponentsRequest asks for opponents at a venue. When Skill is nil the
// player's weighted win rate on the venue leaderboard is used, then the
// leaderboard median.
type OpponentsRequest struct {
	FieldID  string   `json:"field_id"`
	PlayerID string   `json:"player_id,omitempty"`
	Skill    *float64 `json:"skill,omitempty"`
	Limit    int      `json:"limit,omitempty"`
}
