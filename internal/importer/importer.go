// Package importer pulls played matches and court availability from
// Playtomic into the rating store.
package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/fieldrank/internal/metrics"
	"github.com/mauv0809/fieldrank/internal/playtomic"
	"github.com/mauv0809/fieldrank/internal/rating"
	"github.com/mauv0809/fieldrank/internal/slots"
	"github.com/mauv0809/fieldrank/internal/store"
	"golang.org/x/sync/errgroup"
)

// fetchConcurrency bounds parallel match detail requests.
const fetchConcurrency = 8

// Recorder stores a match outcome.
type Recorder interface {
	RecordOutcome(ctx context.Context, outcome rating.MatchOutcome, dryRun bool) (rating.MatchOutcome, error)
}

// SlotStore defines the slot operations required by the importer.
type SlotStore interface {
	FetchAvailableSlots(ctx context.Context, facilityID, date string) ([]slots.SlotRecord, error)
	UpsertSlots(ctx context.Context, records []slots.SlotRecord) error
}

// Importer copies Playtomic data for one club.
type Importer struct {
	client   playtomic.PlaytomicClient
	recorder Recorder
	slots    SlotStore
	metrics  metrics.Metrics
	tenantID string
}

// MatchReport summarises a match import.
type MatchReport struct {
	Found    int `json:"found"`
	Played   int `json:"played"`
	Recorded   int `json:"recorded"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
}

// SlotReport summarises an availability import.
type SlotReport struct {
	Available int `json:"available"`
	Retired   int `json:"retired"`
}

// New creates an importer for the club identified by tenantID.
func New(client playtomic.PlaytomicClient, recorder Recorder, slotStore SlotStore, m metrics.Metrics, tenantID string) *Importer {
	return &Importer{
		client:   client,
		recorder: recorder,
		slots:    slotStore,
		metrics:  m,
		tenantID: tenantID,
	}
}

// ImportMatches records every match with a confirmed result that started on
// or after since. Outcomes are recorded in start order. A match that cannot
// be fetched or recorded is logged and counted, not fatal.
func (i *Importer) ImportMatches(ctx context.Context, since time.Time, dryRun bool) (MatchReport, error) {
	i.metrics.IncFetcherRuns()

	params := &playtomic.SearchMatchesParams{
		SportID:       "PADEL",
		HasPlayers:    true,
		Sort:          "start_date,ASC",
		TenantIDs:     []string{i.tenantID},
		FromStartDate: since.Format("2006-01-02") + "T00:00:00",
	}
	log.Info("Fetching matches", "tenant_id", i.tenantID, "from", params.FromStartDate)
	matches, err := i.client.GetMatches(ctx, params)
	if err != nil {
		return MatchReport{}, fmt.Errorf("failed to fetch matches: %w", err)
	}

	report := MatchReport{Found: len(matches)}
	outcomes := make([]*rating.MatchOutcome, len(matches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for idx, summary := range matches {
		g.Go(func() error {
			match, err := i.client.GetSpecificMatch(gctx, summary.MatchID)
			if err != nil {
				log.Error("Error fetching specific match", "matchID", summary.MatchID, "error", err)
				return nil
			}
			o, ok := playtomic.ToMatchOutcome(match)
			if !ok {
				log.Debug("Skipping match without a confirmed result", "matchID", summary.MatchID, "game_status", match.GameStatus)
				return nil
			}
			outcomes[idx] = &o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	for _, o := range outcomes {
		if o == nil {
			continue
		}
		report.Played++
		if _, err := i.recorder.RecordOutcome(ctx, *o, dryRun); err != nil {
			if errors.Is(err, store.ErrAlreadyRecorded) {
				report.Duplicates++
				continue
			}
			log.Error("Failed to record imported outcome", "matchID", o.MatchID, "error", err)
			report.Failed++
			continue
		}
		report.Recorded++
	}

	log.Info("Match import finished", "found", report.Found, "played", report.Played, "recorded", report.Recorded, "duplicates", report.Duplicates, "failed", report.Failed, "dry_run", dryRun)
	return report, nil
}

// ImportSlots replaces the stored availability of the club on date with the
// current Playtomic availability. Previously free slots that are no longer
// offered are marked booked.
func (i *Importer) ImportSlots(ctx context.Context, date string, dryRun bool) (SlotReport, error) {
	fresh, err := i.client.GetAvailability(ctx, i.tenantID, date)
	if err != nil {
		return SlotReport{}, fmt.Errorf("failed to fetch availability: %w", err)
	}
	existing, err := i.slots.FetchAvailableSlots(ctx, i.tenantID, date)
	if err != nil {
		return SlotReport{}, fmt.Errorf("failed to load stored slots: %w", err)
	}

	offered := make(map[string]struct{}, len(fresh))
	for _, s := range fresh {
		offered[slotKey(s)] = struct{}{}
	}

	records := append([]slots.SlotRecord(nil), fresh...)
	report := SlotReport{Available: len(fresh)}
	for _, s := range existing {
		if _, ok := offered[slotKey(s)]; ok {
			continue
		}
		s.Status = slots.StatusBooked
		records = append(records, s)
		report.Retired++
	}

	if dryRun {
		log.Info("[Dry Run] Would upsert slots", "date", date, "available", report.Available, "retired", report.Retired)
		return report, nil
	}
	if err := i.slots.UpsertSlots(ctx, records); err != nil {
		return SlotReport{}, fmt.Errorf("failed to save slots: %w", err)
	}
	log.Info("Slot import finished", "date", date, "available", report.Available, "retired", report.Retired)
	return report, nil
}

func slotKey(s slots.SlotRecord) string {
	return s.CourtID + "|" + s.Date + "|" + s.TimeRange
}
