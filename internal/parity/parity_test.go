package parity

import (
	"math"
	"testing"
	"time"

	"github.com/mohamedkhairy/ohlcv-indicators/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bars(n int) []models.PriceBar {
	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make([]models.PriceBar, n)
	for i := range out {
		c := 4000 + 25*math.Sin(float64(i)/3) + float64(i)
		out[i] = models.PriceBar{
			Date:     base.AddDate(0, 0, i),
			Open:     c - 1,
			High:     c + 5,
			Low:      c - 5,
			Close:    c,
			AdjClose: c,
			Volume:   int64(10000 + i),
		}
	}
	return out
}

func TestCompareSMA(t *testing.T) {
	report, err := CompareSMA(bars(60), 20, DefaultTolerance)
	require.NoError(t, err)

	assert.Equal(t, "sma_20", report.Indicator)
	assert.Equal(t, 41, report.Compared)
	assert.True(t, report.OK(), report.String())
}

func TestCompareSMA_Errors(t *testing.T) {
	_, err := CompareSMA(nil, 10, DefaultTolerance)
	assert.ErrorIs(t, err, models.ErrEmptySeries)

	_, err = CompareSMA(bars(5), 0, DefaultTolerance)
	assert.Error(t, err)

	withGap := bars(15)
	withGap[3].Close = math.NaN()
	_, err = CompareSMA(withGap, 10, DefaultTolerance)
	assert.ErrorIs(t, err, models.ErrInvalidPrice)

	duplicated := bars(15)
	duplicated[4].Date = duplicated[3].Date
	_, err = CompareSMA(duplicated, 10, DefaultTolerance)
	assert.ErrorIs(t, err, models.ErrDuplicateDate)
}

func TestCompareSMA_ShortSeries(t *testing.T) {
	report, err := CompareSMA(bars(5), 10, DefaultTolerance)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Compared)
	assert.True(t, report.OK())
}

func TestCompareDefaultSMAs(t *testing.T) {
	reports, err := CompareDefaultSMAs(bars(60), DefaultTolerance)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	for _, r := range reports {
		assert.True(t, r.OK(), r.String())
	}
}
