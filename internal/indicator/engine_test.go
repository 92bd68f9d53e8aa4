package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/mohamedkhairy/ohlcv-indicators/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Oscillating uptrend: close = 100 + 3*sin(0.7i) + 0.25i, rounded to cents
var (
	fixtureCloses = []float64{
		100.0, 102.18, 103.46, 103.34, 102.0, 100.2, 98.89, 98.8, 100.11, 102.3,
		104.47, 105.71, 105.56, 104.21, 102.4, 101.11, 101.06, 102.4, 104.6, 106.76,
		107.97, 107.79, 106.41, 104.6, 103.34, 103.32, 104.69, 106.9, 109.05, 110.23,
		110.01, 108.61, 106.81, 105.56, 105.58, 106.98, 109.2, 111.33, 112.48, 112.23,
	}
	fixtureHighs = []float64{
		101.0, 103.43, 104.96, 104.34, 103.25, 101.7, 99.89, 100.05, 101.61, 103.3,
		105.72, 107.21, 106.56, 105.46, 103.9, 102.11, 102.31, 103.9, 105.6, 108.01,
		109.47, 108.79, 107.66, 106.1, 104.34, 104.57, 106.19, 107.9, 110.3, 111.73,
		111.01, 109.86, 108.31, 106.56, 106.83, 108.48, 110.2, 112.58, 113.98, 113.23,
	}
	fixtureLows = []float64{
		99.0, 100.68, 102.46, 101.84, 101.0, 98.7, 97.89, 97.3, 99.11, 100.8,
		103.47, 104.21, 104.56, 102.71, 101.4, 99.61, 100.06, 100.9, 103.6, 105.26,
		106.97, 106.29, 105.41, 103.1, 102.34, 101.82, 103.69, 105.4, 108.05, 108.73,
		109.01, 107.11, 105.81, 104.06, 104.58, 105.48, 108.2, 109.83, 111.48, 110.73,
	}
)

var baseDate = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func fixtureBars() []models.PriceBar {
	bars := make([]models.PriceBar, len(fixtureCloses))
	for i := range bars {
		bars[i] = models.PriceBar{
			Date:     baseDate.AddDate(0, 0, i),
			Open:     fixtureCloses[i],
			High:     fixtureHighs[i],
			Low:      fixtureLows[i],
			Close:    fixtureCloses[i],
			AdjClose: fixtureCloses[i],
			Volume:   int64(1000 + i),
		}
	}
	return bars
}

func barsFromCloses(closes []float64) []models.PriceBar {
	bars := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = models.PriceBar{
			Date:     baseDate.AddDate(0, 0, i),
			Open:     c,
			High:     c + 1,
			Low:      c - 1,
			Close:    c,
			AdjClose: c,
			Volume:   100,
		}
	}
	return bars
}

// longBars returns n bars of a noisy ramp, enough history for every column
func longBars(n int) []models.PriceBar {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 50 + 0.1*float64(i) + 2*math.Sin(float64(i)*1.3)
	}
	return barsFromCloses(closes)
}

func newTestEngine(t *testing.T, parallel bool) *Engine {
	t.Helper()
	engine, err := NewDefaultEngine(EngineConfig{Parallel: parallel})
	require.NoError(t, err)
	return engine
}

func value(t *testing.T, row models.IndicatorRow, column string) float64 {
	t.Helper()
	v, err := row.Get(column)
	require.NoError(t, err)
	return v
}

func TestEngine_Compute_EmptyInput(t *testing.T) {
	engine := newTestEngine(t, false)

	for _, bars := range [][]models.PriceBar{nil, {}} {
		table, err := engine.Compute("NQ=F", bars)
		require.NoError(t, err)
		require.NotNil(t, table)
		assert.Equal(t, 0, table.Len())
		assert.Equal(t, "NQ=F", table.Symbol)
		assert.NotEmpty(t, table.RunID)
		_, ok := table.Last()
		assert.False(t, ok)
	}
}

func TestEngine_Compute_PreservesRowsAndOrder(t *testing.T) {
	engine := newTestEngine(t, false)
	bars := fixtureBars()

	table, err := engine.Compute("NQ=F", bars)
	require.NoError(t, err)
	require.Len(t, table.Rows, len(bars))
	assert.Equal(t, "NQ=F", table.Symbol)
	assert.NotEmpty(t, table.RunID)

	for i, row := range table.Rows {
		assert.Equal(t, bars[i], row.PriceBar, "row %d", i)
	}
}

func TestEngine_Compute_SingleRow(t *testing.T) {
	engine := newTestEngine(t, false)

	table, err := engine.Compute("NQ=F", barsFromCloses([]float64{42}))
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	for _, col := range models.IndicatorColumns {
		assert.True(t, math.IsNaN(value(t, table.Rows[0], col)), col)
	}
}

func TestEngine_Compute_MA10Scenario(t *testing.T) {
	engine := newTestEngine(t, false)
	closes := []float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20}

	table, err := engine.Compute("TEST", barsFromCloses(closes))
	require.NoError(t, err)

	for i := 0; i < 9; i++ {
		assert.True(t, math.IsNaN(table.Rows[i].MA10), "row %d", i)
	}
	assert.Equal(t, 14.5, table.Rows[9].MA10)
	assert.Equal(t, 15.5, table.Rows[10].MA10)
	for _, row := range table.Rows {
		assert.True(t, math.IsNaN(row.MA20))
		assert.True(t, math.IsNaN(row.RSI14))
		assert.True(t, math.IsNaN(row.MACDLine))
	}
	assert.False(t, math.IsNaN(table.Rows[9].RSI9))
	assert.True(t, math.IsNaN(table.Rows[8].RSI9))
}

func TestEngine_Compute_WarmupMatchesRegistry(t *testing.T) {
	engine := newTestEngine(t, true)

	table, err := engine.Compute("TEST", longBars(260))
	require.NoError(t, err)

	columns := engine.Columns()
	require.Len(t, columns, len(models.IndicatorColumns))
	for _, col := range columns {
		for i, row := range table.Rows {
			v := value(t, row, col.Name)
			if i < col.FirstIndex {
				assert.True(t, math.IsNaN(v), "%s: expected undefined at %d, got %v", col.Name, i, v)
			} else {
				assert.False(t, math.IsNaN(v), "%s: expected value at %d", col.Name, i)
			}
		}
	}
}

func TestEngine_Compute_FirstDefinedIndices(t *testing.T) {
	engine := newTestEngine(t, false)
	expected := map[string]int{
		models.ColMA10:          9,
		models.ColMA20:          19,
		models.ColMA50:          49,
		models.ColMA200:         199,
		models.ColBBUpper:       19,
		models.ColBBMid:         19,
		models.ColBBLower:       19,
		models.ColRSI9:          9,
		models.ColRSI14:         14,
		models.ColMACDLine:      25,
		models.ColMACDSignal:    33,
		models.ColMACDHistogram: 33,
		models.ColATR14:         14,
	}

	for _, col := range engine.Columns() {
		assert.Equal(t, expected[col.Name], col.FirstIndex, col.Name)
	}
}

func TestEngine_Compute_ReferenceValues(t *testing.T) {
	engine := newTestEngine(t, false)

	table, err := engine.Compute("TEST", fixtureBars())
	require.NoError(t, err)

	expected := map[string]map[int]float64{
		models.ColMA10:          {9: 101.13, 19: 103.83, 33: 106.85, 39: 108.88},
		models.ColMA20:          {19: 102.48, 25: 103.59, 33: 105.68, 39: 107.65},
		models.ColBBMid:         {19: 102.48, 25: 103.59, 33: 105.68, 39: 107.65},
		models.ColBBUpper:       {19: 107.04, 25: 109.03, 33: 111.33, 39: 113.14},
		models.ColBBLower:       {19: 97.91, 25: 98.15, 33: 100.03, 39: 102.17},
		models.ColRSI9:          {9: 59.9, 13: 60.93, 14: 51.58, 19: 68.07, 25: 46.48, 33: 46.71, 39: 70.09},
		models.ColRSI14:         {14: 56.54, 19: 65.82, 25: 52.06, 33: 51.85, 39: 66.71},
		models.ColMACDLine:      {25: 1.19, 33: 1.52, 39: 2.02},
		models.ColMACDSignal:    {33: 1.55, 39: 1.64},
		models.ColMACDHistogram: {33: -0.03, 39: 0.38},
		models.ColATR14:         {14: 2.82, 19: 2.86, 25: 2.79, 33: 2.81, 39: 2.82},
	}

	for col, points := range expected {
		for i, want := range points {
			assert.InDelta(t, want, value(t, table.Rows[i], col), 1e-9, "%s at row %d", col, i)
		}
	}
}

func TestEngine_Compute_ValuesAreRounded(t *testing.T) {
	engine := newTestEngine(t, false)

	table, err := engine.Compute("TEST", longBars(260))
	require.NoError(t, err)

	for i, row := range table.Rows {
		for j, v := range row.Values() {
			if math.IsNaN(v) {
				continue
			}
			cents := v * 100
			assert.InDelta(t, math.Round(cents), cents, 1e-6,
				"%s at row %d not rounded: %v", models.IndicatorColumns[j], i, v)
		}
	}
}

func TestEngine_Compute_Idempotent(t *testing.T) {
	engine := newTestEngine(t, true)
	bars := longBars(220)

	first, err := engine.Compute("TEST", bars)
	require.NoError(t, err)
	second, err := engine.Compute("TEST", bars)
	require.NoError(t, err)

	assertSameRows(t, first.Rows, second.Rows)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestEngine_Compute_ParallelMatchesSequential(t *testing.T) {
	bars := longBars(240)

	sequential, err := newTestEngine(t, false).Compute("TEST", bars)
	require.NoError(t, err)

	bounded, err := NewDefaultEngine(EngineConfig{Parallel: true, MaxWorkers: 2})
	require.NoError(t, err)
	parallel, err := bounded.Compute("TEST", bars)
	require.NoError(t, err)

	assertSameRows(t, sequential.Rows, parallel.Rows)
}

func TestEngine_Compute_DoesNotMutateInput(t *testing.T) {
	engine := newTestEngine(t, true)
	bars := fixtureBars()
	snapshot := make([]models.PriceBar, len(bars))
	copy(snapshot, bars)

	_, err := engine.Compute("TEST", bars)
	require.NoError(t, err)
	assert.Equal(t, snapshot, bars)
}

func TestEngine_Compute_UndefinedPricePropagates(t *testing.T) {
	engine := newTestEngine(t, false)
	bars := barsFromCloses([]float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21})
	bars[5].Close = math.NaN()

	table, err := engine.Compute("TEST", bars)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(table.Rows[9].MA10))
	assert.True(t, math.IsNaN(table.Rows[11].MA10))
}

func TestEngine_Compute_FlatSeriesRSIIs100(t *testing.T) {
	engine := newTestEngine(t, false)
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 25
	}

	table, err := engine.Compute("FLAT", barsFromCloses(closes))
	require.NoError(t, err)
	assert.Equal(t, 100.0, table.Rows[29].RSI14)
	assert.Equal(t, 25.0, table.Rows[29].MA20)
	assert.Equal(t, 25.0, table.Rows[29].BBUpper)
	assert.Equal(t, 2.0, table.Rows[29].ATR14)
}

func assertSameRows(t *testing.T, want, got []models.IndicatorRow) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].PriceBar, got[i].PriceBar)
		wv, gv := want[i].Values(), got[i].Values()
		for j := range wv {
			assert.Equal(t, math.Float64bits(wv[j]), math.Float64bits(gv[j]),
				"%s at row %d", models.IndicatorColumns[j], i)
		}
	}
}
