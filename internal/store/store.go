package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/fieldrank/internal/rating"
	"github.com/mauv0809/fieldrank/internal/slots"
)

type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New returns a SQL-backed Store.
func New(db *sql.DB) Store {
	return &store{db: db}
}

func (s *store) RecordMatchOutcome(ctx context.Context, o rating.MatchOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sideA, err := json.Marshal(o.SideA)
	if err != nil {
		return fmt.Errorf("failed to encode side A of %s: %w", o.MatchID, err)
	}
	sideB, err := json.Marshal(o.SideB)
	if err != nil {
		return fmt.Errorf("failed to encode side B of %s: %w", o.MatchID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO match_outcomes (id, field_id, played_at, recorded_at, side_a_json, side_b_json, side_a_score, side_b_score, winner_side, is_draw)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		o.MatchID, o.FieldID, toUnix(o.Date), toUnix(o.RecordedAt), string(sideA), string(sideB),
		o.SideAScore, o.SideBScore, string(o.WinnerSide), o.IsDraw)
	if err != nil {
		return fmt.Errorf("failed to insert outcome %s: %w", o.MatchID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyRecorded, o.MatchID)
	}

	for _, side := range []rating.Side{rating.SideA, rating.SideB} {
		for _, playerID := range o.Players(side) {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO outcome_participants (match_id, player_id, side) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`,
				o.MatchID, playerID, string(side)); err != nil {
				return fmt.Errorf("failed to insert participant %s of %s: %w", playerID, o.MatchID, err)
			}
		}
	}
	return tx.Commit()
}

func (s *store) FetchMatchOutcomes(ctx context.Context, playerID, fieldID string) ([]rating.MatchOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT o.id, o.field_id, o.played_at, o.recorded_at, o.side_a_json, o.side_b_json, o.side_a_score, o.side_b_score, o.winner_side, o.is_draw
		FROM match_outcomes o`
	var (
		where []string
		args  []any
	)
	if fieldID != "" {
		where = append(where, "o.field_id = ?")
		args = append(args, fieldID)
	}
	if playerID != "" {
		where = append(where, "EXISTS (SELECT 1 FROM outcome_participants p WHERE p.match_id = o.id AND p.player_id = ?)")
		args = append(args, playerID)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY o.rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := []rating.MatchOutcome{}
	for rows.Next() {
		var (
			o                    rating.MatchOutcome
			playedAt, recordedAt int64
			sideA, sideB, winner string
		)
		if err := rows.Scan(&o.MatchID, &o.FieldID, &playedAt, &recordedAt, &sideA, &sideB, &o.SideAScore, &o.SideBScore, &winner, &o.IsDraw); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		if err := json.Unmarshal([]byte(sideA), &o.SideA); err != nil {
			log.Error("Failed to decode side A, skipping outcome", "match_id", o.MatchID, "error", err)
			continue
		}
		if err := json.Unmarshal([]byte(sideB), &o.SideB); err != nil {
			log.Error("Failed to decode side B, skipping outcome", "match_id", o.MatchID, "error", err)
			continue
		}
		o.Date = fromUnix(playedAt)
		o.RecordedAt = fromUnix(recordedAt)
		o.WinnerSide = rating.Side(winner)
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

func (s *store) ListFieldIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT field_id FROM match_outcomes ORDER BY field_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *store) WritePlayerSkillProfile(ctx context.Context, p rating.PlayerSkillProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lastMatchAt sql.NullInt64
	if p.LastMatchAt != nil {
		lastMatchAt = sql.NullInt64{Int64: p.LastMatchAt.Unix(), Valid: true}
	}
	version := p.Version
	if version <= 0 {
		version = rating.ProfileVersion
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO player_skill_profiles (profile_key, player_id, field_id, skill, recent_form, recent_wins, recent_total, wins, losses, draws, total_matches, last_match_at, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(profile_key) DO UPDATE SET
			skill = excluded.skill,
			recent_form = excluded.recent_form,
			recent_wins = excluded.recent_wins,
			recent_total = excluded.recent_total,
			wins = excluded.wins,
			losses = excluded.losses,
			draws = excluded.draws,
			total_matches = excluded.total_matches,
			last_match_at = excluded.last_match_at,
			updated_at = excluded.updated_at,
			version = player_skill_profiles.version + 1`,
		p.Key(), p.PlayerID, p.FieldID, p.Skill, rating.EncodeForm(p.RecentForm), p.RecentWins, p.RecentTotal,
		p.Wins, p.Losses, p.Draws, p.TotalMatches, lastMatchAt, toUnix(p.UpdatedAt), version)
	if err != nil {
		return fmt.Errorf("failed to write profile %s: %w", p.Key(), err)
	}
	return nil
}

func (s *store) GetPlayerSkillProfile(ctx context.Context, key string) (rating.PlayerSkillProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		p           rating.PlayerSkillProfile
		form        string
		lastMatchAt sql.NullInt64
		updatedAt   int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT player_id, field_id, skill, recent_form, recent_wins, recent_total, wins, losses, draws, total_matches, last_match_at, updated_at, version
		FROM player_skill_profiles WHERE profile_key = ?`, key).
		Scan(&p.PlayerID, &p.FieldID, &p.Skill, &form, &p.RecentWins, &p.RecentTotal, &p.Wins, &p.Losses, &p.Draws, &p.TotalMatches, &lastMatchAt, &updatedAt, &p.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return rating.PlayerSkillProfile{}, fmt.Errorf("profile %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return rating.PlayerSkillProfile{}, fmt.Errorf("failed to read profile %s: %w", key, err)
	}

	p.RecentForm = rating.DecodeForm(form)
	p.UpdatedAt = fromUnix(updatedAt)
	if lastMatchAt.Valid {
		t := fromUnix(lastMatchAt.Int64)
		p.LastMatchAt = &t
	}
	return p, nil
}

func (s *store) WriteFieldLeaderboard(ctx context.Context, fieldID string, lb rating.FieldLeaderboard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := lb.Entries
	if entries == nil {
		entries = []rating.LeaderboardEntry{}
	}
	entriesJSON, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode leaderboard %s: %w", fieldID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO field_leaderboards (field_id, updated_at, entries_json) VALUES (?, ?, ?)
		ON CONFLICT(field_id) DO UPDATE SET updated_at = excluded.updated_at, entries_json = excluded.entries_json`,
		fieldID, toUnix(lb.UpdatedAt), string(entriesJSON))
	if err != nil {
		return fmt.Errorf("failed to write leaderboard %s: %w", fieldID, err)
	}
	return nil
}

func (s *store) GetFieldLeaderboard(ctx context.Context, fieldID string) (rating.FieldLeaderboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		updatedAt   int64
		entriesJSON string
	)
	err := s.db.QueryRowContext(ctx, `SELECT updated_at, entries_json FROM field_leaderboards WHERE field_id = ?`, fieldID).
		Scan(&updatedAt, &entriesJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return rating.FieldLeaderboard{}, fmt.Errorf("leaderboard %s: %w", fieldID, ErrNotFound)
	}
	if err != nil {
		return rating.FieldLeaderboard{}, fmt.Errorf("failed to read leaderboard %s: %w", fieldID, err)
	}

	lb := rating.FieldLeaderboard{FieldID: fieldID, UpdatedAt: fromUnix(updatedAt)}
	if err := json.Unmarshal([]byte(entriesJSON), &lb.Entries); err != nil {
		return rating.FieldLeaderboard{}, fmt.Errorf("failed to decode leaderboard %s: %w", fieldID, err)
	}
	return lb, nil
}

func (s *store) UpsertSlots(ctx context.Context, records []slots.SlotRecord) error {
	if len(records) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO slots (facility_id, court_id, date, time_range, status) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(facility_id, court_id, date, time_range) DO UPDATE SET status = excluded.status`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		status := r.Status
		if status == "" {
			status = slots.StatusAvailable
		}
		if _, err := stmt.ExecContext(ctx, r.FacilityID, r.CourtID, r.Date, r.TimeRange, string(status)); err != nil {
			return fmt.Errorf("failed to upsert slot %s %s %s: %w", r.CourtID, r.Date, r.TimeRange, err)
		}
	}
	return tx.Commit()
}

func (s *store) FetchAvailableSlots(ctx context.Context, facilityID, date string) ([]slots.SlotRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT facility_id, court_id, date, time_range, status FROM slots
		WHERE facility_id = ? AND date = ? AND status = ?
		ORDER BY time_range, court_id`, facilityID, date, string(slots.StatusAvailable))
	if err != nil {
		return nil, fmt.Errorf("failed to query slots: %w", err)
	}
	defer rows.Close()

	records := []slots.SlotRecord{}
	for rows.Next() {
		var (
			r      slots.SlotRecord
			status string
		)
		if err := rows.Scan(&r.FacilityID, &r.CourtID, &r.Date, &r.TimeRange, &status); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		r.Status = slots.Status(status)
		records = append(records, r)
	}
	return records, rows.Err()
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromUnix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
