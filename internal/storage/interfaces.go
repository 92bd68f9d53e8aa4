package storage

import (
	"context"
	"time"

	"github.com/mohamedkhairy/ohlcv-indicators/internal/models"
)

// IndicatorStorage defines the interface for indicator table persistence
type IndicatorStorage interface {
	// WriteRows upserts the rows of one run, keyed by symbol and date
	WriteRows(ctx context.Context, runID, symbol string, rows []models.IndicatorRow) error

	// GetRows retrieves rows for a symbol within a date range, oldest first
	GetRows(ctx context.Context, symbol string, start, end time.Time) ([]models.IndicatorRow, error)

	// Close closes the storage connection
	Close() error
}
