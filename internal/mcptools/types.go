package mcptools

import (
	"github.com/mauv0809/fieldrank/internal/rating"
	"github.com/mauv0809/fieldrank/internal/slots"
)

type EstimateArgs struct {
	MySkill       *float64 `json:"my_skill,omitempty" jsonschema:"Your skill in [0,1]"`
	OpponentSkill *float64 `json:"opponent_skill,omitempty" jsonschema:"Opponent skill in [0,1]"`
	PlayerID      string   `json:"player_id,omitempty" jsonschema:"Your player id, used when my_skill is not given"`
	OpponentID    string   `json:"opponent_id,omitempty" jsonschema:"Opponent player id, used when opponent_skill is not given"`
	FieldID       string   `json:"field_id,omitempty" jsonschema:"Venue whose profiles to use (empty = all venues)"`
}

type OpponentsArgs struct {
	FieldID  string   `json:"field_id" jsonschema:"Venue id"`
	PlayerID string   `json:"player_id,omitempty" jsonschema:"Player looking for opponents"`
	Skill    *float64 `json:"skill,omitempty" jsonschema:"Skill to match when player_id is unknown"`
	Limit    int      `json:"limit,omitempty" jsonschema:"Maximum suggestions (default 5)"`
}

type OpponentsResult struct {
	FieldID     string                      `json:"field_id"`
	Suggestions []rating.OpponentSuggestion `json:"suggestions"`
}

type LeaderboardArgs struct {
	FieldID string `json:"field_id" jsonschema:"Venue id (empty = all venues)"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum rows (0 = all)"`
}

type AlternativesArgs struct {
	FacilityID string `json:"facility_id" jsonschema:"Facility id (required)"`
	Date       string `json:"date" jsonschema:"Date as YYYY-MM-DD (required)"`
	TimeRange  string `json:"time_range" jsonschema:"Requested slot as HH:MM-HH:MM (required)"`
}

type AlternativesResult struct {
	Requested    string                 `json:"requested"`
	Alternatives []slots.SlotSuggestion `json:"alternatives"`
}

type ProfileArgs struct {
	PlayerID string `json:"player_id" jsonschema:"Player id (required)"`
	FieldID  string `json:"field_id,omitempty" jsonschema:"Venue id (empty = all venues)"`
}
