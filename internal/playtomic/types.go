package playtomic

// SearchMatchesParams defines the parameters for searching for matches.
type SearchMatchesParams struct {
	SportID       string
	HasPlayers    bool
	Sort          string
	TenantIDs     []string
	FromStartDate string
}

// MatchSummary contains the essential details of a match from a search result.
type MatchSummary struct {
	MatchID string
	OwnerID *string
}

// PadelMatch represents a single padel match with the details needed to
// turn it into a match outcome.
type PadelMatch struct {
	MatchID       string
	OwnerID       string
	Start         int64
	End           int64
	CreatedAt     int64
	Status        string
	GameStatus    GameStatus
	Teams         []Team
	Results       []SetResult
	ResultsStatus ResultsStatus
	ResourceName  string
	Tenant        Tenant
}

// GameStatus defines the status of a game.
type GameStatus string

const (
	GameStatusPending    GameStatus = "PENDING"
	GameStatusPlayed     GameStatus = "PLAYED"
	GameStatusUnknown    GameStatus = "UNKNOWN"
	GameStatusCanceled   GameStatus = "CANCELED"
	GameStatusWaitingFor GameStatus = "WAITING_FOR"
	GameStatusExpired    GameStatus = "EXPIRED"
	GameStatusInProgress GameStatus = "IN_PROGRESS"
)

// ResultsStatus defines the status of the match results.
type ResultsStatus string

const (
	ResultsStatusPending    ResultsStatus = "PENDING"
	ResultsStatusConfirmed  ResultsStatus = "CONFIRMED"
	ResultsStatusInvalid    ResultsStatus = "INVALID"
	ResultsStatusNotAllowed ResultsStatus = "NOT_ALLOWED"
	ResultsStatusExpired    ResultsStatus = "EXPIRED"
	ResultsStatusCanceled   ResultsStatus = "CANCELED"
	ResultsStatusWaitingFor ResultsStatus = "WAITING_FOR"
	ResultsStatusValidating ResultsStatus = "VALIDATING"
)

// TeamResultWon marks the winning team in a played match.
const TeamResultWon = "WON"

// Team represents a team in a match.
type Team struct {
	ID         string
	Players    []Player
	TeamResult string
}

// Player represents a player in a match.
type Player struct {
	UserID string
	Name   string
	Level  float64
}

// SetResult represents the result of a single set, games keyed by team ID.
type SetResult struct {
	Name   string
	Scores map[string]int
}

// Tenant represents a Playtomic tenant (club).
type Tenant struct {
	ID   string
	Name string
}

// playtomicMatchResponse defines the structure for the JSON response from the Playtomic API for a single match.
type playtomicMatchResponse struct {
	OwnerID       string                  `json:"owner_id"`
	StartDate     string                  `json:"start_date"`
	EndDate       string                  `json:"end_date"`
	CreatedAt     string                  `json:"created_at"`
	Status        string                  `json:"status"`
	GameStatus    string                  `json:"game_status"`
	Teams         []playtomicTeamResponse `json:"teams"`
	Results       []playtomicResult       `json:"results"`
	ResultsStatus string                  `json:"results_status"`
	ResourceName  string                  `json:"resource_name"`
	Tenant        playtomicTenant         `json:"tenant"`
}

type playtomicResult struct {
	Name   string               `json:"name"`
	Scores []playtomicTeamScore `json:"scores"`
}

type playtomicTeamScore struct {
	TeamID string `json:"team_id"`
	Score  int    `json:"score"`
}

type playtomicTenant struct {
	ID   string `json:"tenant_id"`
	Name string `json:"tenant_name"`
}

type playtomicTeamResponse struct {
	TeamID     string                    `json:"team_id"`
	Players    []playtomicPlayerResponse `json:"players"`
	TeamResult *string                   `json:"team_result"`
}

type playtomicPlayerResponse struct {
	UserID     string   `json:"user_id"`
	Name       string   `json:"name"`
	LevelValue *float64 `json:"level_value"`
}

// playtomicAvailability is one court's free slots on a day.
type playtomicAvailability struct {
	ResourceID string                      `json:"resource_id"`
	StartDate  string                      `json:"start_date"`
	Slots      []playtomicAvailabilitySlot `json:"slots"`
}

type playtomicAvailabilitySlot struct {
	StartTime string `json:"start_time"`
	Duration  int    `json:"duration"`
	Price     string `json:"price"`
}
