package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MockRedisClient is an in-memory RedisClient for testing
type MockRedisClient struct {
	mu      sync.Mutex
	keys    map[string]string
	ttls    map[string]time.Duration
	streams map[string][]StreamMessage
	nextID  int64

	PublishErr error
	SetErr     error
	PingErr    error
}

// NewMockRedisClient creates an empty mock client
func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{
		keys:    make(map[string]string),
		ttls:    make(map[string]time.Duration),
		streams: make(map[string][]StreamMessage),
	}
}

func (m *MockRedisClient) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = string(data)
	m.ttls[key] = ttl
	return nil
}

func (m *MockRedisClient) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys[key], nil
}

// TTL returns the ttl key was last set with
func (m *MockRedisClient) TTL(key string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ttls[key]
}

func (m *MockRedisClient) PublishToStream(ctx context.Context, stream string, values map[string]interface{}, maxLen int64) (string, error) {
	if m.PublishErr != nil {
		return "", m.PublishErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := fmt.Sprintf("%d-0", m.nextID)
	copied := make(map[string]interface{}, len(values))
	for k, v := range values {
		copied[k] = fmt.Sprint(v)
	}
	entries := append(m.streams[stream], StreamMessage{ID: id, Stream: stream, Values: copied})
	if maxLen > 0 && int64(len(entries)) > maxLen {
		entries = entries[int64(len(entries))-maxLen:]
	}
	m.streams[stream] = entries
	return id, nil
}

func (m *MockRedisClient) ReadLatest(ctx context.Context, stream string, count int64) ([]StreamMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.streams[stream]
	result := make([]StreamMessage, 0, len(entries))
	for i := len(entries) - 1; i >= 0 && int64(len(result)) < count; i-- {
		result = append(result, entries[i])
	}
	return result, nil
}

// StreamLen returns the number of entries in stream
func (m *MockRedisClient) StreamLen(stream string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.streams[stream])
}

func (m *MockRedisClient) Ping(ctx context.Context) error {
	return m.PingErr
}

func (m *MockRedisClient) Close() error {
	return nil
}
