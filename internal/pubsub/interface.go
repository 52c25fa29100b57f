package pubsub

import "context"

type PubSubClient interface {
	SendMessage(topic EventType, data any) error
	ProcessMessage(data []byte, returnValue any) error
	// Receive pulls from a subscription until ctx is done. Messages whose
	// handler returns an error are nacked.
	Receive(ctx context.Context, subscription string, handler func(ctx context.Context, data []byte) error) error
	Close() error
}
