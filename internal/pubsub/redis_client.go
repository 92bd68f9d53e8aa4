package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mohamedkhairy/ohlcv-indicators/internal/config"
	"github.com/mohamedkhairy/ohlcv-indicators/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// StreamMessage represents a message from a Redis stream
type StreamMessage struct {
	ID     string
	Stream string
	Values map[string]interface{}
}

// RedisClient defines the Redis operations the publisher needs
type RedisClient interface {
	// Set stores value as JSON under key; a zero ttl keeps it indefinitely
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Get returns the raw value of key, or "" when it does not exist
	Get(ctx context.Context, key string) (string, error)
	// PublishToStream appends an entry to stream and returns its ID
	PublishToStream(ctx context.Context, stream string, values map[string]interface{}, maxLen int64) (string, error)
	// ReadLatest returns up to count stream entries, newest first
	ReadLatest(ctx context.Context, stream string, count int64) ([]StreamMessage, error)
	Ping(ctx context.Context) error
	Close() error
}

// RedisClientImpl implements RedisClient on go-redis
type RedisClientImpl struct {
	client *redis.Client
}

// NewRedisClient creates a new Redis client
func NewRedisClient(cfg config.RedisConfig) (*RedisClientImpl, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Connected to Redis",
		logger.String("host", cfg.Host),
		logger.Int("port", cfg.Port),
	)

	return &RedisClientImpl{client: rdb}, nil
}

// Set sets a key-value pair with TTL
func (r *RedisClientImpl) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return r.client.Set(ctx, key, jsonData, ttl).Err()
}

// Get gets a value by key
func (r *RedisClientImpl) Get(ctx context.Context, key string) (string, error) {
	result, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return result, err
}

// PublishToStream appends values to stream, trimming it to about maxLen
// entries when maxLen is positive
func (r *RedisClientImpl) PublishToStream(ctx context.Context, stream string, values map[string]interface{}, maxLen int64) (string, error) {
	args := &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}
	if maxLen > 0 {
		args.MaxLen = maxLen
		args.Approx = true
	}

	id, err := r.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish to stream %s: %w", stream, err)
	}
	return id, nil
}

// ReadLatest reads the newest count entries of stream
func (r *RedisClientImpl) ReadLatest(ctx context.Context, stream string, count int64) ([]StreamMessage, error) {
	entries, err := r.client.XRevRangeN(ctx, stream, "+", "-", count).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read stream %s: %w", stream, err)
	}

	messages := make([]StreamMessage, 0, len(entries))
	for _, e := range entries {
		messages = append(messages, StreamMessage{
			ID:     e.ID,
			Stream: stream,
			Values: e.Values,
		})
	}
	return messages, nil
}

// Ping checks the connection
func (r *RedisClientImpl) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisClientImpl) Close() error {
	return r.client.Close()
}
