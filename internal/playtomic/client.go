package playtomic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/fieldrank/internal/slots"
	"github.com/rafa-garcia/go-playtomic-api/client"
	"github.com/rafa-garcia/go-playtomic-api/models"
)

const timeLayout = "2006-01-02T15:04:05"

// APIClient is a custom Playtomic API client that implements the PlaytomicClient interface.
type APIClient struct {
	httpClient *http.Client
	apiClient  *client.Client
	BaseURL    string
}

// NewClient creates a new custom Playtomic client.
func NewClient() PlaytomicClient {
	return &APIClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiClient: client.NewClient(
			client.WithTimeout(10*time.Second),
			client.WithRetries(3),
		),
		BaseURL: "https://api.playtomic.io",
	}
}

// Ensure APIClient implements the PlaytomicClient interface.
var _ PlaytomicClient = (*APIClient)(nil)

// GetMatches fetches a list of matches based on the provided search parameters.
func (c *APIClient) GetMatches(ctx context.Context, params *SearchMatchesParams) ([]MatchSummary, error) {
	const pageSize = 300
	var (
		allMatches []MatchSummary
		page       = 0
	)

	for {
		externalParams := &models.SearchMatchesParams{
			SportID:       params.SportID,
			HasPlayers:    params.HasPlayers,
			Sort:          params.Sort,
			TenantIDs:     params.TenantIDs,
			FromStartDate: params.FromStartDate,
			Size:          pageSize,
			Page:          page,
		}

		log.Debug("Fetching matches from Playtomic API", "params", externalParams)
		matches, err := c.apiClient.GetMatches(ctx, externalParams)
		if err != nil {
			return nil, fmt.Errorf("error fetching matches from playtomic api: %w", err)
		}

		for _, m := range matches {
			allMatches = append(allMatches, MatchSummary{
				MatchID: m.MatchID,
				OwnerID: m.OwnerID,
			})
		}

		// A short page is the last one.
		if len(matches) < pageSize {
			break
		}
		page++
	}
	log.Info("Fetched all matches", "count", len(allMatches), "pages", page+1)
	return allMatches, nil
}

// get performs a GET against the Playtomic API and decodes the JSON body into out.
func (c *APIClient) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", "en-AU,en;q=0.9")
	req.Header.Set("User-Agent", "PlaytomicGoClient/1.0")

	log.Debug("Requesting Playtomic API", "url", u)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Error("Received non-OK HTTP status from Playtomic API", "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("received non-OK HTTP status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// GetSpecificMatch fetches a specific match by its ID.
func (c *APIClient) GetSpecificMatch(ctx context.Context, matchID string) (PadelMatch, error) {
	var matchResponse playtomicMatchResponse
	if err := c.get(ctx, "/v1/matches/"+url.PathEscape(matchID), nil, &matchResponse); err != nil {
		return PadelMatch{}, err
	}

	startTime, err := time.Parse(timeLayout, matchResponse.StartDate)
	if err != nil {
		return PadelMatch{}, fmt.Errorf("failed to parse start time: %w", err)
	}
	endTime, err := time.Parse(timeLayout, matchResponse.EndDate)
	if err != nil {
		return PadelMatch{}, fmt.Errorf("failed to parse end time: %w", err)
	}
	var createdAt int64
	if matchResponse.CreatedAt != "" {
		t, err := time.Parse(timeLayout, matchResponse.CreatedAt)
		if err != nil {
			return PadelMatch{}, fmt.Errorf("failed to parse created at time: %w", err)
		}
		createdAt = t.Unix()
	}

	var teams []Team
	for _, responseTeam := range matchResponse.Teams {
		t := Team{ID: responseTeam.TeamID}
		if responseTeam.TeamResult != nil {
			t.TeamResult = *responseTeam.TeamResult
		}
		for _, responsePlayer := range responseTeam.Players {
			p := Player{UserID: responsePlayer.UserID, Name: responsePlayer.Name}
			if responsePlayer.LevelValue != nil {
				p.Level = *responsePlayer.LevelValue
			}
			t.Players = append(t.Players, p)
		}
		teams = append(teams, t)
	}

	var results []SetResult
	for _, responseResult := range matchResponse.Results {
		set := SetResult{
			Name:   responseResult.Name,
			Scores: make(map[string]int),
		}
		for _, score := range responseResult.Scores {
			set.Scores[score.TeamID] = score.Score
		}
		results = append(results, set)
	}

	gameStatus := GameStatus(matchResponse.GameStatus)
	switch gameStatus {
	case GameStatusPending, GameStatusPlayed, GameStatusCanceled, GameStatusWaitingFor, GameStatusExpired, GameStatusInProgress:
	default:
		log.Warn("Unknown game status received from Playtomic API", "status", matchResponse.GameStatus, "matchID", matchID)
		gameStatus = GameStatusUnknown
	}

	resultsStatus := ResultsStatus(matchResponse.ResultsStatus)
	switch resultsStatus {
	case ResultsStatusPending, ResultsStatusConfirmed, ResultsStatusInvalid, ResultsStatusNotAllowed,
		ResultsStatusExpired, ResultsStatusCanceled, ResultsStatusWaitingFor, ResultsStatusValidating:
	default:
		log.Warn("Unknown results status received from Playtomic API", "status", matchResponse.ResultsStatus, "matchID", matchID)
	}

	return PadelMatch{
		MatchID:       matchID,
		OwnerID:       matchResponse.OwnerID,
		Start:         startTime.Unix(),
		End:           endTime.Unix(),
		CreatedAt:     createdAt,
		Teams:         teams,
		GameStatus:    gameStatus,
		Status:        matchResponse.Status,
		Results:       results,
		ResultsStatus: resultsStatus,
		ResourceName:  matchResponse.ResourceName,
		Tenant: Tenant{
			ID:   matchResponse.Tenant.ID,
			Name: matchResponse.Tenant.Name,
		},
	}, nil
}

// GetAvailability fetches the free padel slots of a club on a date (YYYY-MM-DD).
func (c *APIClient) GetAvailability(ctx context.Context, tenantID, date string) ([]slots.SlotRecord, error) {
	query := url.Values{}
	query.Set("sport_id", "PADEL")
	query.Set("tenant_id", tenantID)
	query.Set("local_start_min", date+"T00:00:00")
	query.Set("local_start_max", date+"T23:59:59")

	var courts []playtomicAvailability
	if err := c.get(ctx, "/v1/availability", query, &courts); err != nil {
		return nil, err
	}

	var out []slots.SlotRecord
	for _, court := range courts {
		day := date
		if court.StartDate != "" {
			day = court.StartDate
		}
		for _, s := range court.Slots {
			start, err := slots.ParseStartMinutes(s.StartTime)
			if err != nil {
				log.Warn("Skipping availability slot", "resource_id", court.ResourceID, "start_time", s.StartTime, "error", err)
				continue
			}
			out = append(out, slots.SlotRecord{
				FacilityID: tenantID,
				CourtID:    court.ResourceID,
				Date:       day,
				TimeRange:  slots.FormatRange(start, s.Duration),
				Status:     slots.StatusAvailable,
			})
		}
	}
	log.Info("Fetched availability", "tenant_id", tenantID, "date", date, "slots", len(out))
	return out, nil
}
