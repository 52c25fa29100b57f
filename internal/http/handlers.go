package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/fieldrank/internal/changefeed"
	"github.com/mauv0809/fieldrank/internal/matchmaking"
	"github.com/mauv0809/fieldrank/internal/pubsub"
	"github.com/mauv0809/fieldrank/internal/rating"
	"github.com/mauv0809/fieldrank/internal/store"
)

const maxOutcomeBody = 1 << 20

func respondWithJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response to JSON", "error", err)
	}
}

// respondWithSlackMsg writes a formatted notifier response as the body of a
// slash command reply.
func respondWithSlackMsg(w http.ResponseWriter, msg any) {
	respondWithJSON(w, http.StatusOK, msg)
}

// respondWithError maps caller errors to 400, duplicate outcomes to 409 and
// everything else to 500.
func respondWithError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, matchmaking.ErrBadRequest) || errors.Is(err, rating.ErrInvalidOutcome) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if errors.Is(err, store.ErrAlreadyRecorded) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	log.Error(msg, "error", err)
	http.Error(w, msg, http.StatusInternalServerError)
}

// parseFloatParam returns nil for a missing parameter.
func parseFloatParam(r *http.Request, name string) (*float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", matchmaking.ErrBadRequest, name)
	}
	return &v, nil
}

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK!"))
	}
}

// LeaderboardHandler returns the leaderboard of a venue. With notify=true it
// is also posted to the Slack channel.
func (s *Server) LeaderboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fieldID := r.URL.Query().Get("field_id")
		lb, err := s.Service.Leaderboard(r.Context(), fieldID)
		if err != nil {
			respondWithError(w, err, "Failed to get leaderboard")
			return
		}
		if r.URL.Query().Get("notify") == "true" {
			if err := s.Notifier.SendLeaderboard(lb, isDryRunFromContext(r)); err != nil {
				log.Error("Failed to send leaderboard to Slack", "field_id", fieldID, "error", err)
			}
		}
		respondWithJSON(w, http.StatusOK, lb)
	}
}

// RecomputeLeaderboardHandler recomputes one venue, or every aggregate with all=true.
func (s *Server) RecomputeLeaderboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("all") == "true" {
			log.Info("Rebuilding all leaderboards and profiles")
			summary, err := s.Processor.RebuildAll(r.Context())
			if err != nil {
				respondWithError(w, err, "Failed to rebuild")
				return
			}
			respondWithJSON(w, http.StatusOK, summary)
			return
		}

		fieldID := r.URL.Query().Get("field_id")
		lb, err := s.Processor.RecomputeLeaderboard(r.Context(), fieldID)
		if err != nil {
			respondWithError(w, err, "Failed to recompute leaderboard")
			return
		}
		respondWithJSON(w, http.StatusOK, lb)
	}
}

func (s *Server) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		profile, err := s.Service.Profile(r.Context(), q.Get("player_id"), q.Get("field_id"))
		if err != nil {
			respondWithError(w, err, "Failed to get profile")
			return
		}
		respondWithJSON(w, http.StatusOK, profile)
	}
}

// EstimateHandler answers GET /estimate?my=&opponent= with skills, or with
// player_id/opponent_id (and optionally field_id) to use stored profiles.
func (s *Server) EstimateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		my, err := parseFloatParam(r, "my")
		if err != nil {
			respondWithError(w, err, "")
			return
		}
		opp, err := parseFloatParam(r, "opponent")
		if err != nil {
			respondWithError(w, err, "")
			return
		}
		q := r.URL.Query()
		p, err := s.Service.Estimate(r.Context(), matchmaking.EstimateRequest{
			MySkill:       my,
			OpponentSkill: opp,
			PlayerID:      q.Get("player_id"),
			OpponentID:    q.Get("opponent_id"),
			FieldID:       q.Get("field_id"),
		})
		if err != nil {
			respondWithError(w, err, "Failed to estimate outcome")
			return
		}
		respondWithJSON(w, http.StatusOK, p)
	}
}

func (s *Server) OpponentsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skill, err := parseFloatParam(r, "skill")
		if err != nil {
			respondWithError(w, err, "")
			return
		}
		q := r.URL.Query()
		limit := 0
		if raw := q.Get("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil {
				log.Warn("Invalid 'limit' parameter provided. Using the default.", "limit_param", raw)
				limit = 0
			}
		}
		suggestions, err := s.Service.SuggestOpponents(r.Context(), matchmaking.OpponentsRequest{
			FieldID:  q.Get("field_id"),
			PlayerID: q.Get("player_id"),
			Skill:    skill,
			Limit:    limit,
		})
		if err != nil {
			respondWithError(w, err, "Failed to suggest opponents")
			return
		}
		respondWithJSON(w, http.StatusOK, suggestions)
	}
}

// AlternativesHandler lists free slots close to a requested one. With
// notify=true they are also posted to the Slack channel.
func (s *Server) AlternativesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		facilityID, date, requested := q.Get("facility_id"), q.Get("date"), q.Get("range")
		if facilityID == "" || date == "" || requested == "" {
			http.Error(w, "facility_id, date and range are required", http.StatusBadRequest)
			return
		}
		suggestions := s.Service.Alternatives(r.Context(), facilityID, date, requested)
		if q.Get("notify") == "true" {
			if err := s.Notifier.SendAlternativeSlots(facilityID, date, requested, suggestions, isDryRunFromContext(r)); err != nil {
				log.Error("Failed to send alternatives to Slack", "facility_id", facilityID, "error", err)
			}
		}
		respondWithJSON(w, http.StatusOK, suggestions)
	}
}

// RecordOutcomeHandler stores a match outcome posted as JSON.
func (s *Server) RecordOutcomeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var outcome rating.MatchOutcome
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxOutcomeBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&outcome); err != nil {
			log.Warn("Invalid outcome body", "error", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		recorded, err := s.Service.RecordOutcome(r.Context(), outcome, isDryRunFromContext(r))
		if err != nil {
			respondWithError(w, err, "Failed to record outcome")
			return
		}
		respondWithJSON(w, http.StatusCreated, recorded)
	}
}

// OutcomeRecordedPushHandler receives pubsub push deliveries of change
// signals and hands them to the processor.
func (s *Server) OutcomeRecordedPushHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.pubsub == nil {
			http.Error(w, "Pubsub is not configured", http.StatusServiceUnavailable)
			return
		}
		var envelope pubsub.PushEnvelope
		if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
			log.Error("Failed to unmarshal push envelope", "error", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		log.Debug("Received outcome-recorded push", "message_id", envelope.Message.ID, "subscription", envelope.Subscription)

		var signal changefeed.Signal
		if err := s.pubsub.ProcessMessage(envelope.Message.Data, &signal); err != nil {
			// Acknowledge anyway, redelivering an undecodable message never helps.
			log.Error("Failed to decode signal", "message_id", envelope.Message.ID, "error", err)
			w.Write([]byte("OK"))
			return
		}
		if isDryRunFromContext(r) {
			log.Info("Dry run, not handling signal", "match_id", signal.MatchID)
		} else {
			s.Processor.HandleSignal(r.Context(), signal)
		}
		w.Write([]byte("OK"))
	}
}

// FetchMatchesHandler imports played matches starting `days` days ago.
func (s *Server) FetchMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("Starting match fetch...")
		daysStr := r.URL.Query().Get("days")
		daysToSubtract := 0
		if daysStr != "" {
			parsedDays, err := strconv.Atoi(daysStr)
			if err == nil && parsedDays > 0 {
				daysToSubtract = parsedDays
				log.Info("Fetching historical matches", "days", daysToSubtract)
			} else {
				log.Warn("Invalid 'days' parameter provided. Defaulting to 0.", "days_param", daysStr)
			}
		}

		since := time.Now().AddDate(0, 0, -daysToSubtract)
		report, err := s.Importer.ImportMatches(r.Context(), since, isDryRunFromContext(r))
		if err != nil {
			log.Error("Error importing Playtomic matches", "error", err)
			http.Error(w, "Failed to fetch matches", http.StatusInternalServerError)
			return
		}
		respondWithJSON(w, http.StatusOK, report)
	}
}

// FetchSlotsHandler imports court availability for `date`, today by default.
func (s *Server) FetchSlotsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		if date == "" {
			date = time.Now().Format(time.DateOnly)
		} else if _, err := time.Parse(time.DateOnly, date); err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		report, err := s.Importer.ImportSlots(r.Context(), date, isDryRunFromContext(r))
		if err != nil {
			log.Error("Error importing Playtomic availability", "date", date, "error", err)
			http.Error(w, "Failed to fetch slots", http.StatusInternalServerError)
			return
		}
		respondWithJSON(w, http.StatusOK, report)
	}
}

// LeaderboardCommandHandler returns a handler for the /leaderboard Slack
// command. The optional text is a venue ID.
func (s *Server) LeaderboardCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		fieldID := strings.TrimSpace(r.FormValue("text"))

		lb, err := s.Service.Leaderboard(r.Context(), fieldID)
		if err != nil {
			http.Error(w, "Failed to get leaderboard", http.StatusInternalServerError)
			log.Error("Failed to get leaderboard", "field_id", fieldID, "error", err)
			return
		}

		msg, err := s.Notifier.FormatLeaderboardResponse(lb)
		if err != nil {
			http.Error(w, "Failed to format leaderboard", http.StatusInternalServerError)
			log.Error("Failed to format leaderboard", "error", err)
			return
		}
		respondWithSlackMsg(w, msg)
	}
}

// ProfileCommandHandler returns a handler for the /profile Slack command.
// The text is "<player_id> [field_id]".
func (s *Server) ProfileCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, fieldID, ok := parseCommandText(w, r)
		if !ok {
			return
		}
		log.Info("Received profile command", "player_id", playerID, "field_id", fieldID)

		profile, err := s.Service.Profile(r.Context(), playerID, fieldID)
		if err != nil {
			http.Error(w, "Failed to get profile", http.StatusInternalServerError)
			log.Error("Failed to get profile", "player_id", playerID, "error", err)
			return
		}

		msg, err := s.Notifier.FormatProfileResponse(profile)
		if err != nil {
			http.Error(w, "Failed to format profile", http.StatusInternalServerError)
			log.Error("Failed to format profile", "error", err)
			return
		}
		respondWithSlackMsg(w, msg)
	}
}

// OpponentsCommandHandler returns a handler for the /opponents Slack command.
// The text is "<player_id> [field_id]".
func (s *Server) OpponentsCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, fieldID, ok := parseCommandText(w, r)
		if !ok {
			return
		}
		log.Info("Received opponents command", "player_id", playerID, "field_id", fieldID)

		suggestions, err := s.Service.SuggestOpponents(r.Context(), matchmaking.OpponentsRequest{
			FieldID:  fieldID,
			PlayerID: playerID,
		})
		if err != nil {
			http.Error(w, "Failed to suggest opponents", http.StatusInternalServerError)
			log.Error("Failed to suggest opponents", "player_id", playerID, "error", err)
			return
		}

		msg, err := s.Notifier.FormatOpponentsResponse(playerID, suggestions)
		if err != nil {
			http.Error(w, "Failed to format opponents", http.StatusInternalServerError)
			log.Error("Failed to format opponents", "error", err)
			return
		}
		respondWithSlackMsg(w, msg)
	}
}

// parseCommandText splits "<player_id> [field_id]". It writes the error
// response itself and reports false when the player ID is missing.
func parseCommandText(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return "", "", false
	}
	args := strings.Fields(r.FormValue("text"))
	if len(args) == 0 {
		http.Error(w, "Player ID is required.", http.StatusBadRequest)
		return "", "", false
	}
	fieldID := ""
	if len(args) > 1 {
		fieldID = args[1]
	}
	return args[0], fieldID, true
}
