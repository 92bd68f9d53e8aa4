package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mohamedkhairy/ohlcv-indicators/internal/models"
)

// MockIndicatorStorage is an in-memory IndicatorStorage for testing
type MockIndicatorStorage struct {
	mu       sync.Mutex
	rows     map[string]map[time.Time]models.IndicatorRow
	RunIDs   []string
	WriteErr error
	GetErr   error
	Closed   bool
}

// NewMockIndicatorStorage creates an empty mock store
func NewMockIndicatorStorage() *MockIndicatorStorage {
	return &MockIndicatorStorage{
		rows: make(map[string]map[time.Time]models.IndicatorRow),
	}
}

func (m *MockIndicatorStorage) WriteRows(ctx context.Context, runID, symbol string, rows []models.IndicatorRow) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	bySymbol, ok := m.rows[symbol]
	if !ok {
		bySymbol = make(map[time.Time]models.IndicatorRow)
		m.rows[symbol] = bySymbol
	}
	for _, row := range rows {
		bySymbol[row.Date] = row
	}
	m.RunIDs = append(m.RunIDs, runID)
	return nil
}

func (m *MockIndicatorStorage) GetRows(ctx context.Context, symbol string, start, end time.Time) ([]models.IndicatorRow, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []models.IndicatorRow
	for date, row := range m.rows[symbol] {
		if !date.Before(start) && !date.After(end) {
			result = append(result, row)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

func (m *MockIndicatorStorage) Close() error {
	m.Closed = true
	return nil
}
