package docstore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"github.com/charmbracelet/log"
	"github.com/mauv0809/fieldrank/internal/changefeed"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var _ changefeed.Feed = (*Feed)(nil)

// Feed turns newly created outcome documents into signals using a
// Firestore snapshot listener. Writing the document is the publication, so
// Publish does nothing.
type Feed struct {
	client *firestore.Client
}

// NewFeed returns a snapshot feed on the outcomes collection.
func NewFeed(client *firestore.Client) *Feed {
	return &Feed{client: client}
}

func (f *Feed) Publish(context.Context, changefeed.Signal) error {
	return nil
}

// Subscribe listens for outcomes recorded after the call and hands each one
// to h until ctx is done.
func (f *Feed) Subscribe(ctx context.Context, h changefeed.Handler) error {
	since := now()
	it := f.client.Collection(outcomesCollection).Where("recorded_at", ">", since).Snapshots(ctx)
	defer it.Stop()

	log.Info("Listening for outcome documents", "since", since)
	for {
		qs, err := it.Next()
		if err != nil {
			if ctx.Err() != nil || status.Code(err) == codes.Canceled || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		for _, change := range qs.Changes {
			if change.Kind != firestore.DocumentAdded {
				continue
			}
			var d outcomeDoc
			if err := change.Doc.DataTo(&d); err != nil {
				log.Warn("Skipping undecodable outcome document", "id", change.Doc.Ref.ID, "error", err)
				continue
			}
			h(ctx, changefeed.OutcomeRecorded(d.outcome()))
		}
	}
}
