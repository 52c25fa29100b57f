package pubsub

import (
	"context"

	"github.com/mauv0809/fieldrank/internal/changefeed"
)

var _ changefeed.Feed = (*Feed)(nil)

// Feed carries change signals over pubsub. With an empty subscription
// signals arrive through the push endpoint instead and Subscribe only
// waits for ctx.
type Feed struct {
	client       PubSubClient
	subscription string
}

// NewFeed returns a changefeed.Feed backed by client.
func NewFeed(client PubSubClient, subscription string) *Feed {
	return &Feed{client: client, subscription: subscription}
}

func (f *Feed) Publish(_ context.Context, s changefeed.Signal) error {
	return f.client.SendMessage(EventOutcomeRecorded, s)
}

func (f *Feed) Subscribe(ctx context.Context, h changefeed.Handler) error {
	if f.subscription == "" {
		<-ctx.Done()
		return nil
	}
	return f.client.Receive(ctx, f.subscription, func(ctx context.Context, data []byte) error {
		var s changefeed.Signal
		if err := f.client.ProcessMessage(data, &s); err != nil {
			return err
		}
		h(ctx, s)
		return nil
	})
}
