package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/config"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/models"
	"github.com/mohamedkhairy/ohlcv-indicators/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Metrics for indicator store operations
	storeWriteTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indicator_store_write_total",
			Help: "Total number of rows written to the indicator store",
		},
		[]string{"status"}, // "success" or "error"
	)

	storeWriteErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indicator_store_write_errors_total",
			Help: "Total number of write errors to the indicator store",
		},
		[]string{"error_type"},
	)

	storeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "indicator_store_latency_seconds",
			Help:    "Indicator store operation latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		},
		[]string{"operation"},
	)

	storeBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "indicator_store_batch_size",
			Help:    "Rows per indicator store write",
			Buckets: []float64{1, 10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
	)
)

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS indicator_rows (
		symbol         TEXT             NOT NULL,
		date           DATE             NOT NULL,
		run_id         UUID             NOT NULL,
		open           DOUBLE PRECISION,
		high           DOUBLE PRECISION,
		low            DOUBLE PRECISION,
		close          DOUBLE PRECISION,
		adj_close      DOUBLE PRECISION,
		volume         BIGINT           NOT NULL,
		ma10           DOUBLE PRECISION,
		ma20           DOUBLE PRECISION,
		ma50           DOUBLE PRECISION,
		ma200          DOUBLE PRECISION,
		bb_upper       DOUBLE PRECISION,
		bb_mid         DOUBLE PRECISION,
		bb_lower       DOUBLE PRECISION,
		rsi9           DOUBLE PRECISION,
		rsi14          DOUBLE PRECISION,
		macd_line      DOUBLE PRECISION,
		macd_signal    DOUBLE PRECISION,
		macd_histogram DOUBLE PRECISION,
		atr14          DOUBLE PRECISION,
		updated_at     TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
		PRIMARY KEY (symbol, date)
	)
`

const upsertSQL = `
	INSERT INTO indicator_rows (
		symbol, date, run_id, open, high, low, close, adj_close, volume,
		ma10, ma20, ma50, ma200, bb_upper, bb_mid, bb_lower,
		rsi9, rsi14, macd_line, macd_signal, macd_histogram, atr14
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	ON CONFLICT (symbol, date) DO UPDATE SET
		run_id = EXCLUDED.run_id,
		open = EXCLUDED.open,
		high = EXCLUDED.high,
		low = EXCLUDED.low,
		close = EXCLUDED.close,
		adj_close = EXCLUDED.adj_close,
		volume = EXCLUDED.volume,
		ma10 = EXCLUDED.ma10,
		ma20 = EXCLUDED.ma20,
		ma50 = EXCLUDED.ma50,
		ma200 = EXCLUDED.ma200,
		bb_upper = EXCLUDED.bb_upper,
		bb_mid = EXCLUDED.bb_mid,
		bb_lower = EXCLUDED.bb_lower,
		rsi9 = EXCLUDED.rsi9,
		rsi14 = EXCLUDED.rsi14,
		macd_line = EXCLUDED.macd_line,
		macd_signal = EXCLUDED.macd_signal,
		macd_histogram = EXCLUDED.macd_histogram,
		atr14 = EXCLUDED.atr14,
		updated_at = NOW()
`

const selectSQL = `
	SELECT date, open, high, low, close, adj_close, volume,
		ma10, ma20, ma50, ma200, bb_upper, bb_mid, bb_lower,
		rsi9, rsi14, macd_line, macd_signal, macd_histogram, atr14
	FROM indicator_rows
	WHERE symbol = $1 AND date >= $2 AND date <= $3
	ORDER BY date ASC
`

// WriteConfig holds retry configuration for writes
type WriteConfig struct {
	MaxRetries int
	RetryDelay time.Duration
}

// WriteConfigFromDatabaseConfig creates a WriteConfig from DatabaseConfig
func WriteConfigFromDatabaseConfig(dbConfig config.DatabaseConfig) WriteConfig {
	cfg := WriteConfig{
		MaxRetries: dbConfig.MaxRetries,
		RetryDelay: dbConfig.RetryDelay,
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	return cfg
}

// IndicatorStore implements IndicatorStorage on PostgreSQL / TimescaleDB
type IndicatorStore struct {
	db          *sql.DB
	writeConfig WriteConfig
}

// NewIndicatorStore connects to the database described by dbConfig
func NewIndicatorStore(dbConfig config.DatabaseConfig) (*IndicatorStore, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.Database,
		dbConfig.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(dbConfig.MaxConnections)
	db.SetMaxIdleConns(dbConfig.MaxIdleConns)
	db.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to indicator store",
		logger.String("host", dbConfig.Host),
		logger.Int("port", dbConfig.Port),
		logger.String("database", dbConfig.Database),
	)

	return NewIndicatorStoreFromDB(db, WriteConfigFromDatabaseConfig(dbConfig)), nil
}

// NewIndicatorStoreFromDB wraps an open database handle
func NewIndicatorStoreFromDB(db *sql.DB, writeConfig WriteConfig) *IndicatorStore {
	if writeConfig.MaxRetries < 1 {
		writeConfig.MaxRetries = 1
	}
	return &IndicatorStore{db: db, writeConfig: writeConfig}
}

// EnsureSchema creates the indicator_rows table when missing
func (s *IndicatorStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// WriteRows upserts rows in a single transaction, retrying transient
// failures with exponential backoff
func (s *IndicatorStore) WriteRows(ctx context.Context, runID, symbol string, rows []models.IndicatorRow) error {
	if symbol == "" {
		return models.ErrInvalidSymbol
	}
	if _, err := uuid.Parse(runID); err != nil {
		return fmt.Errorf("%w: %q", models.ErrInvalidRunID, runID)
	}
	if len(rows) == 0 {
		return nil
	}

	startTime := time.Now()
	storeBatchSize.Observe(float64(len(rows)))

	var err error
retry:
	for attempt := 0; attempt < s.writeConfig.MaxRetries; attempt++ {
		err = s.upsertRows(ctx, runID, symbol, rows)
		if err == nil || !isRetryable(err) {
			break
		}

		if attempt < s.writeConfig.MaxRetries-1 {
			delay := s.writeConfig.RetryDelay * time.Duration(1<<uint(attempt)) // Exponential backoff
			logger.Warn("Failed to write indicator rows, retrying",
				logger.ErrorField(err),
				logger.Int("attempt", attempt+1),
				logger.Int("rows", len(rows)),
				logger.Duration("delay", delay),
			)
			select {
			case <-ctx.Done():
				err = ctx.Err()
				break retry
			case <-time.After(delay):
			}
		}
	}

	storeLatency.WithLabelValues("write").Observe(time.Since(startTime).Seconds())

	if err != nil {
		storeWriteErrors.WithLabelValues(errorType(err)).Inc()
		storeWriteTotal.WithLabelValues("error").Add(float64(len(rows)))
		logger.Error("Failed to write indicator rows",
			logger.ErrorField(err),
			logger.RunID(runID),
			logger.Symbol(symbol),
			logger.Int("rows", len(rows)),
		)
		return err
	}

	storeWriteTotal.WithLabelValues("success").Add(float64(len(rows)))
	logger.Debug("Wrote indicator rows",
		logger.RunID(runID),
		logger.Symbol(symbol),
		logger.Int("rows", len(rows)),
		logger.Duration("latency", time.Since(startTime)),
	)
	return nil
}

func (s *IndicatorStore) upsertRows(ctx context.Context, runID, symbol string, rows []models.IndicatorRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := range rows {
		row := &rows[i]
		args := []interface{}{
			symbol,
			row.Date,
			runID,
			nullable(row.Open),
			nullable(row.High),
			nullable(row.Low),
			nullable(row.Close),
			nullable(row.AdjClose),
			row.Volume,
		}
		for _, v := range row.Values() {
			args = append(args, nullable(v))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to upsert row %s: %w", row.Date.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetRows retrieves rows for a symbol within [start, end], oldest first
func (s *IndicatorStore) GetRows(ctx context.Context, symbol string, start, end time.Time) ([]models.IndicatorRow, error) {
	startTime := time.Now()
	defer func() {
		storeLatency.WithLabelValues("read").Observe(time.Since(startTime).Seconds())
	}()

	rows, err := s.db.QueryContext(ctx, selectSQL, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query indicator rows: %w", err)
	}
	defer rows.Close()

	var result []models.IndicatorRow
	for rows.Next() {
		var (
			bar    models.PriceBar
			prices [5]sql.NullFloat64
			values = make([]sql.NullFloat64, len(models.IndicatorColumns))
		)
		dest := []interface{}{&bar.Date, &prices[0], &prices[1], &prices[2], &prices[3], &prices[4], &bar.Volume}
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan indicator row: %w", err)
		}

		bar.Open = fromNullable(prices[0])
		bar.High = fromNullable(prices[1])
		bar.Low = fromNullable(prices[2])
		bar.Close = fromNullable(prices[3])
		bar.AdjClose = fromNullable(prices[4])

		row := models.NewIndicatorRow(bar)
		for i, col := range models.IndicatorColumns {
			if err := row.Set(col, fromNullable(values[i])); err != nil {
				return nil, err
			}
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return result, nil
}

// Close closes the database connection
func (s *IndicatorStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// Postgres error classes worth retrying: connection exceptions, transaction
// rollbacks, insufficient resources and operator intervention
var retryableClasses = map[pq.ErrorClass]bool{
	"08": true,
	"40": true,
	"53": true,
	"57": true,
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return retryableClasses[pqErr.Code.Class()]
	}
	return true
}

func errorType(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class().Name()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "context"
	}
	return "write_failed"
}
