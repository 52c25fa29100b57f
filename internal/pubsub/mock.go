package pubsub

import (
	"context"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// MockPubSubClient is a mock implementation of PubSubClient for testing.
// It is safe for concurrent use. ProcessMessage decodes msgpack unless
// ProcessMessageFunc is set.
type MockPubSubClient struct {
	mu sync.Mutex

	// Spies for method calls
	SendMessageFunc    func(topic EventType, data any) error
	ProcessMessageFunc func(data []byte, returnValue any) error
	ReceiveFunc        func(ctx context.Context, subscription string, handler func(ctx context.Context, data []byte) error) error

	// Call records
	SendMessageCalls    []SendMessageCall
	ProcessMessageCalls []ProcessMessageCall
	ReceiveCalls        []string
}

// SendMessageCall holds the arguments for a call to SendMessage.
type SendMessageCall struct {
	Topic string
	Data  any
}

// ProcessMessageCall holds the arguments for a call to ProcessMessage.
type ProcessMessageCall struct {
	Data        []byte
	ReturnValue any
}

// NewMock creates a new mock PubSubClient. The projectID is ignored.
func NewMock(projectID string) *MockPubSubClient {
	return &MockPubSubClient{}
}

// Reset clears all call records.
func (m *MockPubSubClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMessageCalls = nil
	m.ProcessMessageCalls = nil
	m.ReceiveCalls = nil
}

// Sent returns a copy of the recorded SendMessage calls.
func (m *MockPubSubClient) Sent() []SendMessageCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SendMessageCall(nil), m.SendMessageCalls...)
}

// SendMessage records the call and executes the mock function if provided.
func (m *MockPubSubClient) SendMessage(topic EventType, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMessageCalls = append(m.SendMessageCalls, SendMessageCall{Topic: string(topic), Data: data})
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(topic, data)
	}
	return nil
}

// ProcessMessage records the call and executes the mock function if provided.
func (m *MockPubSubClient) ProcessMessage(data []byte, returnValue any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProcessMessageCalls = append(m.ProcessMessageCalls, ProcessMessageCall{Data: data, ReturnValue: returnValue})
	if m.ProcessMessageFunc != nil {
		return m.ProcessMessageFunc(data, returnValue)
	}
	return msgpack.Unmarshal(data, returnValue)
}

// Receive records the subscription and executes the mock function if provided.
func (m *MockPubSubClient) Receive(ctx context.Context, subscription string, handler func(ctx context.Context, data []byte) error) error {
	m.mu.Lock()
	m.ReceiveCalls = append(m.ReceiveCalls, subscription)
	fn := m.ReceiveFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, subscription, handler)
	}
	<-ctx.Done()
	return nil
}

func (m *MockPubSubClient) Close() error { return nil }
