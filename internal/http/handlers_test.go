package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mauv0809/fieldrank/internal/changefeed"
	"github.com/mauv0809/fieldrank/internal/config"
	"github.com/mauv0809/fieldrank/internal/database"
	"github.com/mauv0809/fieldrank/internal/importer"
	"github.com/mauv0809/fieldrank/internal/matchmaking"
	"github.com/mauv0809/fieldrank/internal/metrics"
	"github.com/mauv0809/fieldrank/internal/notifier"
	"github.com/mauv0809/fieldrank/internal/playtomic"
	"github.com/mauv0809/fieldrank/internal/processor"
	"github.com/mauv0809/fieldrank/internal/pubsub"
	"github.com/mauv0809/fieldrank/internal/rating"
	"github.com/mauv0809/fieldrank/internal/slots"
	"github.com/mauv0809/fieldrank/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

const testSlackSigningSecret = "test-signing-secret"

type testEnv struct {
	server    *Server
	store     store.Store
	processor *processor.Processor
	notifier  *notifier.Mock
	playtomic *playtomic.MockClient
	pubsub    *pubsub.MockPubSubClient
}

// setupTestServer initializes a new server with an in-memory database and mock clients.
func setupTestServer(t *testing.T, slackSigningSecret string) *testEnv {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)
	t.Cleanup(dbTeardown)

	st := store.New(db)
	cfg := config.Config{
		Slack:    config.SlackConfig{SigningSecret: slackSigningSecret},
		TenantID: "club-1",
	}

	reg := prometheus.NewRegistry()
	metricsSvc := metrics.NewService(reg)
	metricsHandler := metrics.NewMetricsHandler(reg)
	ps := pubsub.NewMock("TEST")
	notif := notifier.NewMock()
	pt := playtomic.NewMockClient()

	proc := processor.New(st, metricsSvc, processor.Config{})
	svc := matchmaking.NewService(st, proc, nil, metricsSvc)
	imp := importer.New(pt, svc, st, metricsSvc, cfg.TenantID)

	server := NewServer(svc, proc, imp, notif, metricsSvc, metricsHandler, cfg, ps, nil, nil)
	return &testEnv{server: server, store: st, processor: proc, notifier: notif, playtomic: pt, pubsub: ps}
}

func (e *testEnv) do(t *testing.T, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, target, body)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	e.server.ServeHTTP(rr, req)
	return rr
}

// createSlackCommandRequest creates an http.Request suitable for testing Slack slash commands,
// including the necessary signature and timestamp headers for verification.
func createSlackCommandRequest(t *testing.T, targetURL string, form url.Values, signingSecret string) *http.Request {
	t.Helper()

	bodyBytes := []byte(form.Encode())
	req, err := http.NewRequest("POST", targetURL, bytes.NewReader(bodyBytes))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	timestamp := time.Now().Unix()
	req.Header.Set("X-Slack-Request-Timestamp", strconv.FormatInt(timestamp, 10))

	baseString := fmt.Sprintf("v0:%d:%s", timestamp, string(bodyBytes))
	h := hmac.New(sha256.New, []byte(signingSecret))
	h.Write([]byte(baseString))
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(h.Sum(nil)))

	return req
}

func outcomeJSON(t *testing.T, o rating.MatchOutcome) io.Reader {
	t.Helper()
	b, err := json.Marshal(o)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func doublesWin(id string) rating.MatchOutcome {
	return rating.MatchOutcome{
		MatchID:    id,
		FieldID:    "club-1",
		Date:       time.Date(2025, 7, 1, 18, 0, 0, 0, time.UTC),
		SideA:      []string{"a1", "a2"},
		SideB:      []string{"b1", "b2"},
		SideAScore: 12,
		SideBScore: 7,
		WinnerSide: rating.SideA,
	}
}

func TestHealthCheckHandler(t *testing.T) {
	env := setupTestServer(t, "")

	rr := env.do(t, "GET", "/health", nil)

	assert.Equal(t, http.StatusOK, rr.Code, "handler returned wrong status code")
	assert.Equal(t, "OK!", rr.Body.String(), "handler returned unexpected body")
}

func TestMetricsHandler(t *testing.T) {
	env := setupTestServer(t, "")

	rr := env.do(t, "GET", "/metrics", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "fieldrank_")
}

func TestRecordOutcomeHandler(t *testing.T) {
	env := setupTestServer(t, "")

	t.Run("records and ranks", func(t *testing.T) {
		rr := env.do(t, "POST", "/outcomes", outcomeJSON(t, doublesWin("m1")))
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		var recorded rating.MatchOutcome
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &recorded))
		assert.Equal(t, "m1", recorded.MatchID)
		assert.False(t, recorded.RecordedAt.IsZero())

		rr = env.do(t, "GET", "/leaderboard?field_id=club-1", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var lb rating.FieldLeaderboard
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &lb))
		require.Len(t, lb.Entries, 4)
		assert.Equal(t, 1, lb.Entries[0].Rank)
		assert.Contains(t, []string{"a1", "a2"}, lb.Entries[0].PlayerID)
		assert.InDelta(t, 1.0/11, lb.Entries[0].WeightedWinRate, 1e-9)
	})

	t.Run("duplicate match id conflicts", func(t *testing.T) {
		rr := env.do(t, "POST", "/outcomes", outcomeJSON(t, doublesWin("m1")))
		assert.Equal(t, http.StatusConflict, rr.Code)

		outcomes, err := env.store.FetchMatchOutcomes(context.Background(), "", "club-1")
		require.NoError(t, err)
		assert.Len(t, outcomes, 1)
	})

	t.Run("dry run stores nothing", func(t *testing.T) {
		rr := env.do(t, "POST", "/outcomes?dry_run=true", outcomeJSON(t, doublesWin("dry")))
		require.Equal(t, http.StatusCreated, rr.Code)

		outcomes, err := env.store.FetchMatchOutcomes(context.Background(), "", "club-1")
		require.NoError(t, err)
		for _, o := range outcomes {
			assert.NotEqual(t, "dry", o.MatchID)
		}
	})

	t.Run("invalid outcome", func(t *testing.T) {
		o := doublesWin("bad")
		o.SideB = nil
		rr := env.do(t, "POST", "/outcomes", outcomeJSON(t, o))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		rr := env.do(t, "POST", "/outcomes", strings.NewReader("{"))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		rr := env.do(t, "GET", "/outcomes", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	})
}

func TestLeaderboardHandler(t *testing.T) {
	env := setupTestServer(t, "")

	t.Run("empty venue", func(t *testing.T) {
		rr := env.do(t, "GET", "/leaderboard?field_id=nowhere", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var lb rating.FieldLeaderboard
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &lb))
		assert.Equal(t, "nowhere", lb.FieldID)
		assert.Empty(t, lb.Entries)
	})

	t.Run("notify posts to slack", func(t *testing.T) {
		rr := env.do(t, "GET", "/leaderboard?field_id=club-1&notify=true&dry_run=true", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		require.Len(t, env.notifier.SendLeaderboardCalls, 1)
		assert.Equal(t, "club-1", env.notifier.SendLeaderboardCalls[0].FieldID)
	})
}

func TestLeaderboardHandler_CrossVenue(t *testing.T) {
	env := setupTestServer(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env.processor.Start(ctx)
	defer env.processor.Stop()

	crossVenue := func() rating.FieldLeaderboard {
		rr := env.do(t, "GET", "/leaderboard", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var lb rating.FieldLeaderboard
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &lb))
		return lb
	}

	rr := env.do(t, "POST", "/outcomes", outcomeJSON(t, rating.MatchOutcome{
		MatchID: "m1", FieldID: "f1", SideA: []string{"alice"}, SideB: []string{"bob"}, SideAScore: 6, SideBScore: 2, WinnerSide: rating.SideA,
	}))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.Eventually(t, func() bool { return len(crossVenue().Entries) == 2 }, 2*time.Second, 10*time.Millisecond)

	rr = env.do(t, "POST", "/outcomes", outcomeJSON(t, rating.MatchOutcome{
		MatchID: "m2", FieldID: "f2", SideA: []string{"carol"}, SideB: []string{"dave"}, SideAScore: 6, SideBScore: 4, WinnerSide: rating.SideA,
	}))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	require.Eventually(t, func() bool { return len(crossVenue().Entries) == 4 }, 2*time.Second, 10*time.Millisecond,
		"a new outcome at any venue refreshes the cross-venue leaderboard")
}

func TestRecomputeLeaderboardHandler(t *testing.T) {
	env := setupTestServer(t, "")
	require.NoError(t, env.store.RecordMatchOutcome(context.Background(), doublesWin("m1")))

	t.Run("one venue", func(t *testing.T) {
		rr := env.do(t, "POST", "/leaderboard/recompute?field_id=club-1", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		lb, err := env.store.GetFieldLeaderboard(context.Background(), "club-1")
		require.NoError(t, err)
		assert.Len(t, lb.Entries, 4)
	})

	t.Run("everything", func(t *testing.T) {
		rr := env.do(t, "POST", "/leaderboard/recompute?all=true", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var summary processor.RebuildSummary
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
		// club-1 plus the cross-venue leaderboard.
		assert.Equal(t, 2, summary.Leaderboards)
		assert.Equal(t, 8, summary.Profiles)

		p, err := env.store.GetPlayerSkillProfile(context.Background(), rating.ProfileKey("a1", "club-1"))
		require.NoError(t, err)
		assert.Equal(t, 1, p.Wins)
	})
}

func TestProfileHandler(t *testing.T) {
	env := setupTestServer(t, "")
	require.NoError(t, env.store.RecordMatchOutcome(context.Background(), doublesWin("m1")))

	t.Run("computed on demand", func(t *testing.T) {
		rr := env.do(t, "GET", "/profile?player_id=b1", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var p rating.PlayerSkillProfile
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
		assert.Equal(t, "b1", p.PlayerID)
		assert.Equal(t, 1, p.Losses)
		assert.Equal(t, []rating.Result{rating.Loss}, p.RecentForm)
	})

	t.Run("missing player", func(t *testing.T) {
		rr := env.do(t, "GET", "/profile", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestEstimateHandler(t *testing.T) {
	env := setupTestServer(t, "")

	t.Run("from skills", func(t *testing.T) {
		rr := env.do(t, "GET", "/estimate?my=0.5&opponent=0.5", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var p rating.OutcomeProbabilities
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
		assert.InDelta(t, 0.375, p.PWin, 1e-9)
		assert.InDelta(t, 0.25, p.PDraw, 1e-9)
		assert.InDelta(t, 0.375, p.PLose, 1e-9)
	})

	t.Run("not a number", func(t *testing.T) {
		rr := env.do(t, "GET", "/estimate?my=strong&opponent=0.5", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing side", func(t *testing.T) {
		rr := env.do(t, "GET", "/estimate?my=0.5", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestOpponentsHandler(t *testing.T) {
	env := setupTestServer(t, "")
	ctx := context.Background()
	require.NoError(t, env.store.RecordMatchOutcome(ctx, doublesWin("m1")))
	second := doublesWin("m2")
	second.Date = second.Date.Add(24 * time.Hour)
	require.NoError(t, env.store.RecordMatchOutcome(ctx, second))

	t.Run("for a player", func(t *testing.T) {
		rr := env.do(t, "GET", "/opponents?field_id=club-1&player_id=a1&limit=2", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var out []rating.OpponentSuggestion
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
		require.Len(t, out, 2)
		for _, s := range out {
			assert.NotEqual(t, "a1", s.PlayerID)
			assert.Equal(t, "heuristic", s.Source)
		}
		assert.GreaterOrEqual(t, out[0].Score, out[1].Score)
		// a2 has the same record as a1.
		assert.Equal(t, "a2", out[0].PlayerID)
	})

	t.Run("invalid skill", func(t *testing.T) {
		rr := env.do(t, "GET", "/opponents?field_id=club-1&skill=high", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAlternativesHandler(t *testing.T) {
	env := setupTestServer(t, "")
	require.NoError(t, env.store.UpsertSlots(context.Background(), []slots.SlotRecord{
		{FacilityID: "club-1", CourtID: "c1", Date: "2025-07-09", TimeRange: "14:00-15:00", Status: slots.StatusAvailable},
		{FacilityID: "club-1", CourtID: "c2", Date: "2025-07-09", TimeRange: "09:30-10:30", Status: slots.StatusAvailable},
	}))

	t.Run("closest first", func(t *testing.T) {
		rr := env.do(t, "GET", "/alternatives?facility_id=club-1&date=2025-07-09&range=10:00-11:00&notify=true", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var out []slots.SlotSuggestion
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
		require.Len(t, out, 2)
		assert.Equal(t, "09:30-10:30", out[0].TimeRange)
		assert.Equal(t, "14:00-15:00", out[1].TimeRange)

		require.Len(t, env.notifier.SendAlternativeSlotsCalls, 1)
		assert.Equal(t, "10:00-11:00", env.notifier.SendAlternativeSlotsCalls[0].RequestedRange)
	})

	t.Run("missing parameters", func(t *testing.T) {
		rr := env.do(t, "GET", "/alternatives?facility_id=club-1", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

type recordingProcessor struct {
	mu      sync.Mutex
	signals []changefeed.Signal
}

func (p *recordingProcessor) RecomputeLeaderboard(context.Context, string) (rating.FieldLeaderboard, error) {
	return rating.FieldLeaderboard{}, nil
}

func (p *recordingProcessor) RebuildAll(context.Context) (processor.RebuildSummary, error) {
	return processor.RebuildSummary{}, nil
}

func (p *recordingProcessor) HandleSignal(_ context.Context, s changefeed.Signal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signals = append(p.signals, s)
}

func TestOutcomeRecordedPushHandler(t *testing.T) {
	env := setupTestServer(t, "")
	proc := &recordingProcessor{}
	env.server.Processor = proc

	push := func(t *testing.T, target string, data []byte) *httptest.ResponseRecorder {
		var envelope pubsub.PushEnvelope
		envelope.Message.ID = "msg-1"
		envelope.Message.Data = data
		envelope.Subscription = "projects/test/subscriptions/outcome-recorded-push"
		body, err := json.Marshal(envelope)
		require.NoError(t, err)
		return env.do(t, "POST", target, bytes.NewReader(body))
	}

	signal := changefeed.OutcomeRecorded(doublesWin("m1"))
	data, err := msgpack.Marshal(signal)
	require.NoError(t, err)

	t.Run("hands the signal to the processor", func(t *testing.T) {
		rr := push(t, "/pubsub/outcome-recorded", data)
		require.Equal(t, http.StatusOK, rr.Code)
		require.Len(t, proc.signals, 1)
		assert.Equal(t, "club-1", proc.signals[0].FieldID)
		assert.Equal(t, []string{"a1", "a2", "b1", "b2"}, proc.signals[0].PlayerIDs)
	})

	t.Run("dry run", func(t *testing.T) {
		rr := push(t, "/pubsub/outcome-recorded?dry_run=true", data)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, proc.signals, 1)
	})

	t.Run("undecodable payload is acknowledged", func(t *testing.T) {
		rr := push(t, "/pubsub/outcome-recorded", []byte("not msgpack"))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, proc.signals, 1)
	})

	t.Run("invalid envelope", func(t *testing.T) {
		rr := env.do(t, "POST", "/pubsub/outcome-recorded", strings.NewReader("nope"))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestFetchMatchesHandler(t *testing.T) {
	env := setupTestServer(t, "")
	env.playtomic.GetMatchesFunc = func(params *playtomic.SearchMatchesParams) ([]playtomic.MatchSummary, error) {
		return []playtomic.MatchSummary{{MatchID: "pm1"}}, nil
	}
	env.playtomic.GetSpecificMatchFunc = func(matchID string) (playtomic.PadelMatch, error) {
		return playtomic.PadelMatch{
			MatchID:       matchID,
			Start:         time.Date(2025, 7, 1, 18, 0, 0, 0, time.UTC).Unix(),
			GameStatus:    playtomic.GameStatusPlayed,
			ResultsStatus: playtomic.ResultsStatusConfirmed,
			Tenant:        playtomic.Tenant{ID: "club-1"},
			Teams: []playtomic.Team{
				{ID: "0", Players: []playtomic.Player{{UserID: "a1"}, {UserID: "a2"}}},
				{ID: "1", Players: []playtomic.Player{{UserID: "b1"}, {UserID: "b2"}}},
			},
			Results: []playtomic.SetResult{{Scores: map[string]int{"0": 6, "1": 2}}},
		}, nil
	}

	rr := env.do(t, "GET", "/fetch?days=3", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var report importer.MatchReport
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	assert.Equal(t, importer.MatchReport{Found: 1, Played: 1, Recorded: 1}, report)

	outcomes, err := env.store.FetchMatchOutcomes(context.Background(), "a1", "")
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, rating.SideA, outcomes[0].WinnerSide)
}

func TestFetchSlotsHandler(t *testing.T) {
	env := setupTestServer(t, "")
	env.playtomic.GetAvailabilityFunc = func(tenantID, date string) ([]slots.SlotRecord, error) {
		return []slots.SlotRecord{
			{FacilityID: tenantID, CourtID: "c1", Date: date, TimeRange: "08:00-09:30", Status: slots.StatusAvailable},
		}, nil
	}

	t.Run("imports the date", func(t *testing.T) {
		rr := env.do(t, "GET", "/fetch-slots?date=2025-07-09", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		available, err := env.store.FetchAvailableSlots(context.Background(), "club-1", "2025-07-09")
		require.NoError(t, err)
		require.Len(t, available, 1)
		assert.Equal(t, "c1", available[0].CourtID)
	})

	t.Run("invalid date", func(t *testing.T) {
		rr := env.do(t, "GET", "/fetch-slots?date=09/07/2025", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestSlackCommandHandlers(t *testing.T) {
	env := setupTestServer(t, testSlackSigningSecret)
	require.NoError(t, env.store.RecordMatchOutcome(context.Background(), doublesWin("m1")))

	t.Run("leaderboard", func(t *testing.T) {
		form := url.Values{}
		form.Set("text", "club-1")
		req := createSlackCommandRequest(t, "/slack/command/leaderboard", form, testSlackSigningSecret)

		rr := httptest.NewRecorder()
		env.server.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		assert.Contains(t, rr.Body.String(), `"type":"leaderboard"`)
		assert.Contains(t, rr.Body.String(), `"entries":4`)
	})

	t.Run("profile", func(t *testing.T) {
		form := url.Values{}
		form.Set("text", "a1 club-1")
		req := createSlackCommandRequest(t, "/slack/command/profile", form, testSlackSigningSecret)

		rr := httptest.NewRecorder()
		env.server.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"player_id":"a1"`)
	})

	t.Run("opponents", func(t *testing.T) {
		form := url.Values{}
		form.Set("text", "b1 club-1")
		req := createSlackCommandRequest(t, "/slack/command/opponents", form, testSlackSigningSecret)

		rr := httptest.NewRecorder()
		env.server.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"suggestions":3`)
	})

	t.Run("missing player id", func(t *testing.T) {
		req := createSlackCommandRequest(t, "/slack/command/opponents", url.Values{}, testSlackSigningSecret)

		rr := httptest.NewRecorder()
		env.server.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("bad signature", func(t *testing.T) {
		req := createSlackCommandRequest(t, "/slack/command/leaderboard", url.Values{}, "some-other-secret")

		rr := httptest.NewRecorder()
		env.server.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("unsigned", func(t *testing.T) {
		rr := env.do(t, "POST", "/slack/command/leaderboard", strings.NewReader("text=club-1"))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestOutcomeRecordedPushHandlerWithoutPubsub(t *testing.T) {
	env := setupTestServer(t, "")
	env.server.pubsub = nil

	rr := env.do(t, "POST", "/pubsub/outcome-recorded", strings.NewReader("{}"))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
