package pubsub

import "cloud.google.com/go/pubsub"

type client struct {
	client   *pubsub.Client
	teardown func()
}

// EventType is the type of event sent via pubsub. It doubles as the topic ID.
type EventType string

const (
	EventOutcomeRecorded      EventType = "outcome-recorded"
	EventRecomputeLeaderboard EventType = "recompute-leaderboard"
)

// PushEnvelope is the body of a pubsub push subscription request.
type PushEnvelope struct {
	Message struct {
		Data []byte `json:"data,omitempty"`
		ID   string `json:"id"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}
