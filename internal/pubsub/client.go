package pubsub

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

const publishTimeout = 10 * time.Second

func New(projectID string) PubSubClient {
	ctx := context.Background()
	pubSubC, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	teardown := func() {
		pubSubC.Close()
	}

	return &client{
		client:   pubSubC,
		teardown: teardown,
	}
}

func (c *client) SendMessage(topic EventType, data any) error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	msgpackData, err := msgpack.Marshal(data)
	if err != nil {
		log.Error("MessagePack marshal error", "error", err)
		return err
	}
	result := c.client.Topic(string(topic)).Publish(ctx, &pubsub.Message{Data: msgpackData})
	serverID, err := result.Get(ctx)
	if err != nil {
		log.Error("Failed to publish message", "error", err, "topic", topic)
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	log.Debug("SendMessage", "serverID", serverID, "topic", topic)
	return nil
}

func (c *client) ProcessMessage(data []byte, returnValue any) error {
	if err := msgpack.Unmarshal(data, returnValue); err != nil {
		log.Error("MessagePack unmarshal error", "error", err)
		return err
	}
	return nil
}

func (c *client) Receive(ctx context.Context, subscription string, handler func(ctx context.Context, data []byte) error) error {
	sub := c.client.Subscription(subscription)
	log.Info("Receiving from subscription", "subscription", subscription)
	err := sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		if err := handler(ctx, m.Data); err != nil {
			log.Error("Failed to handle message", "id", m.ID, "error", err)
			m.Nack()
			return
		}
		m.Ack()
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("receive on %s failed: %w", subscription, err)
	}
	return nil
}

func (c *client) Close() error {
	c.teardown()
	return nil
}
