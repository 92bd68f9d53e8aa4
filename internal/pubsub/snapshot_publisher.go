package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mohamedkhairy/ohlcv-indicators/internal/config"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/models"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/output"
	"github.com/mohamedkhairy/ohlcv-indicators/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var publishTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "indicator_snapshot_publish_total",
		Help: "Total number of indicator snapshot publications",
	},
	[]string{"status"},
)

// ErrSnapshotNotFound is returned when no snapshot exists for a symbol
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotPublisherConfig holds configuration for the snapshot publisher
type SnapshotPublisherConfig struct {
	KeyPrefix    string
	SnapshotTTL  time.Duration
	RunStream    string
	StreamMaxLen int64
	DateLayout   string
}

// DefaultSnapshotPublisherConfig returns default configuration
func DefaultSnapshotPublisherConfig() SnapshotPublisherConfig {
	return SnapshotPublisherConfig{
		KeyPrefix:    "indicators",
		SnapshotTTL:  0,
		RunStream:    "indicators.runs",
		StreamMaxLen: 1000,
		DateLayout:   output.DefaultDateLayout,
	}
}

// SnapshotPublisherConfigFromRedisConfig overlays the Redis settings on the defaults
func SnapshotPublisherConfigFromRedisConfig(cfg config.RedisConfig) SnapshotPublisherConfig {
	pc := DefaultSnapshotPublisherConfig()
	pc.SnapshotTTL = cfg.SnapshotTTL
	if cfg.RunStream != "" {
		pc.RunStream = cfg.RunStream
	}
	return pc
}

// Snapshot is the latest row of a symbol as stored in Redis
type Snapshot struct {
	RunID      string         `json:"run_id"`
	Symbol     string         `json:"symbol"`
	ComputedAt time.Time      `json:"computed_at"`
	Row        output.RowJSON `json:"row"`
}

// RunSummary is one entry of the run stream
type RunSummary struct {
	StreamID   string    `json:"stream_id"`
	RunID      string    `json:"run_id"`
	Symbol     string    `json:"symbol"`
	Rows       int       `json:"rows"`
	LastDate   string    `json:"last_date"`
	ComputedAt time.Time `json:"computed_at"`
}

// SnapshotPublisher publishes computed tables to Redis
type SnapshotPublisher struct {
	redis  RedisClient
	config SnapshotPublisherConfig
}

// NewSnapshotPublisher creates a new snapshot publisher
func NewSnapshotPublisher(redis RedisClient, config SnapshotPublisherConfig) *SnapshotPublisher {
	if config.DateLayout == "" {
		config.DateLayout = output.DefaultDateLayout
	}
	return &SnapshotPublisher{redis: redis, config: config}
}

// SnapshotKey returns the Redis key holding the latest row of symbol
func (p *SnapshotPublisher) SnapshotKey(symbol string) string {
	return fmt.Sprintf("%s:%s:latest", p.config.KeyPrefix, symbol)
}

// Publish stores the last row of table as the symbol snapshot and appends a
// run summary to the run stream
func (p *SnapshotPublisher) Publish(ctx context.Context, table *models.IndicatorTable) error {
	last, ok := table.Last()
	if !ok {
		return models.ErrEmptySeries
	}
	if table.Symbol == "" {
		return models.ErrInvalidSymbol
	}

	snapshot := Snapshot{
		RunID:      table.RunID,
		Symbol:     table.Symbol,
		ComputedAt: table.ComputedAt,
		Row:        output.NewRowJSON(&last, p.config.DateLayout),
	}
	if err := p.redis.Set(ctx, p.SnapshotKey(table.Symbol), snapshot, p.config.SnapshotTTL); err != nil {
		publishTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	id, err := p.redis.PublishToStream(ctx, p.config.RunStream, map[string]interface{}{
		"run_id":      table.RunID,
		"symbol":      table.Symbol,
		"rows":        table.Len(),
		"last_date":   snapshot.Row.Date,
		"computed_at": table.ComputedAt.Format(time.RFC3339Nano),
	}, p.config.StreamMaxLen)
	if err != nil {
		publishTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to publish run summary: %w", err)
	}

	publishTotal.WithLabelValues("success").Inc()
	logger.Debug("Published indicator snapshot",
		logger.RunID(table.RunID),
		logger.Symbol(table.Symbol),
		logger.String("stream_id", id),
	)
	return nil
}

// LatestSnapshot reads the snapshot of symbol
func (p *SnapshotPublisher) LatestSnapshot(ctx context.Context, symbol string) (*Snapshot, error) {
	raw, err := p.redis.Get(ctx, p.SnapshotKey(symbol))
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if raw == "" {
		return nil, ErrSnapshotNotFound
	}

	var snapshot Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snapshot, nil
}

// RecentRuns returns up to limit run summaries, newest first
func (p *SnapshotPublisher) RecentRuns(ctx context.Context, limit int64) ([]RunSummary, error) {
	messages, err := p.redis.ReadLatest(ctx, p.config.RunStream, limit)
	if err != nil {
		return nil, err
	}

	runs := make([]RunSummary, 0, len(messages))
	for _, msg := range messages {
		run, err := decodeRunSummary(msg)
		if err != nil {
			logger.Warn("Skipping malformed run summary",
				logger.String("stream_id", msg.ID),
				logger.ErrorField(err),
			)
			continue
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func decodeRunSummary(msg StreamMessage) (RunSummary, error) {
	field := func(name string) string {
		if v, ok := msg.Values[name].(string); ok {
			return v
		}
		return ""
	}

	run := RunSummary{
		StreamID: msg.ID,
		RunID:    field("run_id"),
		Symbol:   field("symbol"),
		LastDate: field("last_date"),
	}
	if run.RunID == "" || run.Symbol == "" {
		return RunSummary{}, fmt.Errorf("missing run_id or symbol")
	}

	rows, err := strconv.Atoi(field("rows"))
	if err != nil {
		return RunSummary{}, fmt.Errorf("invalid rows: %w", err)
	}
	run.Rows = rows

	if ts := field("computed_at"); ts != "" {
		computedAt, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return RunSummary{}, fmt.Errorf("invalid computed_at: %w", err)
		}
		run.ComputedAt = computedAt
	}
	return run, nil
}
