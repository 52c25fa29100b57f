// Package docstore implements the rating store on Cloud Firestore.
package docstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/mauv0809/fieldrank/internal/rating"
	"github.com/mauv0809/fieldrank/internal/slots"
	"github.com/mauv0809/fieldrank/internal/store"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var _ store.Store = (*Store)(nil)

// Store is a Firestore-backed store.Store.
type Store struct {
	client *firestore.Client
}

// New returns a Store using client.
func New(client *firestore.Client) *Store {
	return &Store{client: client}
}

// NewClient connects to Firestore. It honours FIRESTORE_EMULATOR_HOST.
func NewClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return client, nil
}

func (s *Store) RecordMatchOutcome(ctx context.Context, o rating.MatchOutcome) error {
	ref := s.client.Collection(outcomesCollection).Doc(docID(o.MatchID))
	_, err := ref.Create(ctx, toOutcomeDoc(o))
	if status.Code(err) == codes.AlreadyExists {
		return fmt.Errorf("%w: %s", store.ErrAlreadyRecorded, o.MatchID)
	}
	if err != nil {
		return fmt.Errorf("failed to create outcome %s: %w", o.MatchID, err)
	}
	return nil
}

func (s *Store) FetchMatchOutcomes(ctx context.Context, playerID, fieldID string) ([]rating.MatchOutcome, error) {
	q := s.client.Collection(outcomesCollection).Query
	if playerID != "" {
		q = q.Where("players", "array-contains", playerID)
	}
	if fieldID != "" {
		q = q.Where("field_id", "==", fieldID)
	}

	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}

	outcomes := make([]rating.MatchOutcome, 0, len(snaps))
	for _, snap := range snaps {
		var d outcomeDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to decode outcome %s: %w", snap.Ref.ID, err)
		}
		outcomes = append(outcomes, d.outcome())
	}
	// Recording order, sorted client side to avoid a composite index per filter.
	sort.SliceStable(outcomes, func(i, j int) bool {
		if !outcomes[i].RecordedAt.Equal(outcomes[j].RecordedAt) {
			return outcomes[i].RecordedAt.Before(outcomes[j].RecordedAt)
		}
		return outcomes[i].MatchID < outcomes[j].MatchID
	})
	return outcomes, nil
}

func (s *Store) ListFieldIDs(ctx context.Context) ([]string, error) {
	snaps, err := s.client.Collection(outcomesCollection).Select("field_id").Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}

	seen := make(map[string]struct{})
	ids := []string{}
	for _, snap := range snaps {
		v, err := snap.DataAt("field_id")
		if err != nil {
			continue
		}
		id, _ := v.(string)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// WritePlayerSkillProfile overwrites the profile and bumps its version in a
// transaction.
func (s *Store) WritePlayerSkillProfile(ctx context.Context, p rating.PlayerSkillProfile) error {
	ref := s.client.Collection(profilesCollection).Doc(docID(p.Key()))
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc := toProfileDoc(p)
		if doc.Version <= 0 {
			doc.Version = rating.ProfileVersion
		}

		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			var prev profileDoc
			if err := snap.DataTo(&prev); err != nil {
				return err
			}
			doc.Version = prev.Version + 1
		}
		return tx.Set(ref, doc)
	})
	if err != nil {
		return fmt.Errorf("failed to write profile %s: %w", p.Key(), err)
	}
	return nil
}

func (s *Store) GetPlayerSkillProfile(ctx context.Context, key string) (rating.PlayerSkillProfile, error) {
	snap, err := s.client.Collection(profilesCollection).Doc(docID(key)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return rating.PlayerSkillProfile{}, fmt.Errorf("profile %s: %w", key, store.ErrNotFound)
	}
	if err != nil {
		return rating.PlayerSkillProfile{}, fmt.Errorf("failed to read profile %s: %w", key, err)
	}
	var d profileDoc
	if err := snap.DataTo(&d); err != nil {
		return rating.PlayerSkillProfile{}, fmt.Errorf("failed to decode profile %s: %w", key, err)
	}
	return d.profile(), nil
}

func (s *Store) WriteFieldLeaderboard(ctx context.Context, fieldID string, lb rating.FieldLeaderboard) error {
	_, err := s.client.Collection(leaderboardsCollection).Doc(docID(fieldID)).Set(ctx, toLeaderboardDoc(fieldID, lb))
	if err != nil {
		return fmt.Errorf("failed to write leaderboard %s: %w", fieldID, err)
	}
	return nil
}

func (s *Store) GetFieldLeaderboard(ctx context.Context, fieldID string) (rating.FieldLeaderboard, error) {
	snap, err := s.client.Collection(leaderboardsCollection).Doc(docID(fieldID)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return rating.FieldLeaderboard{}, fmt.Errorf("leaderboard %s: %w", fieldID, store.ErrNotFound)
	}
	if err != nil {
		return rating.FieldLeaderboard{}, fmt.Errorf("failed to read leaderboard %s: %w", fieldID, err)
	}
	var d leaderboardDoc
	if err := snap.DataTo(&d); err != nil {
		return rating.FieldLeaderboard{}, fmt.Errorf("failed to decode leaderboard %s: %w", fieldID, err)
	}
	return d.leaderboard(), nil
}

// UpsertSlots writes slots with a BulkWriter.
func (s *Store) UpsertSlots(ctx context.Context, records []slots.SlotRecord) error {
	if len(records) == 0 {
		return nil
	}
	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(records))
	for _, r := range records {
		job, err := bw.Set(s.client.Collection(slotsCollection).Doc(slotID(r)), toSlotDoc(r))
		if err != nil {
			bw.End()
			return fmt.Errorf("failed to queue slot %s %s %s: %w", r.CourtID, r.Date, r.TimeRange, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			r := records[i]
			return fmt.Errorf("failed to upsert slot %s %s %s: %w", r.CourtID, r.Date, r.TimeRange, err)
		}
	}
	return nil
}

func (s *Store) FetchAvailableSlots(ctx context.Context, facilityID, date string) ([]slots.SlotRecord, error) {
	snaps, err := s.client.Collection(slotsCollection).
		Where("facility_id", "==", facilityID).
		Where("date", "==", date).
		Where("status", "==", string(slots.StatusAvailable)).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query slots: %w", err)
	}

	records := make([]slots.SlotRecord, 0, len(snaps))
	for _, snap := range snaps {
		var d slotDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to decode slot %s: %w", snap.Ref.ID, err)
		}
		records = append(records, d.record())
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].TimeRange != records[j].TimeRange {
			return records[i].TimeRange < records[j].TimeRange
		}
		return records[i].CourtID < records[j].CourtID
	})
	return records, nil
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}

// now is used by the snapshot feed.
var now = func() time.Time { return time.Now().UTC() }
