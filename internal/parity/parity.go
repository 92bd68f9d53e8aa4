// Package parity cross-checks the float64 indicator implementations against
// the arbitrary-precision implementations of github.com/sdcoffey/techan.
package parity

import (
	"fmt"
	"math"
	"time"

	"github.com/mohamedkhairy/ohlcv-indicators/internal/models"
	indicatorpkg "github.com/mohamedkhairy/ohlcv-indicators/pkg/indicator"
	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"
)

// DefaultTolerance is the largest accepted absolute difference
const DefaultTolerance = 1e-6

// Report summarises one comparison
type Report struct {
	Indicator    string
	Compared     int
	MaxAbsDiff   float64
	MaxDiffIndex int
	Tolerance    float64
}

// OK reports whether every compared value is within tolerance
func (r Report) OK() bool {
	return r.MaxAbsDiff <= r.Tolerance
}

func (r Report) String() string {
	return fmt.Sprintf("%s: compared=%d max_abs_diff=%g at=%d tolerance=%g ok=%t",
		r.Indicator, r.Compared, r.MaxAbsDiff, r.MaxDiffIndex, r.Tolerance, r.OK())
}

// NewTimeSeries converts daily bars into a techan series. Bars must be
// defined, sorted and unique by date.
func NewTimeSeries(bars []models.PriceBar) (*techan.TimeSeries, error) {
	series := techan.NewTimeSeries()
	for i, bar := range bars {
		for _, v := range []float64{bar.Open, bar.High, bar.Low, bar.Close} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: row %d", models.ErrInvalidPrice, i)
			}
		}

		candle := techan.NewCandle(techan.NewTimePeriod(bar.Date, 24*time.Hour))
		candle.OpenPrice = big.NewDecimal(bar.Open)
		candle.MaxPrice = big.NewDecimal(bar.High)
		candle.MinPrice = big.NewDecimal(bar.Low)
		candle.ClosePrice = big.NewDecimal(bar.Close)
		candle.Volume = big.NewDecimal(float64(bar.Volume))

		if !series.AddCandle(candle) {
			return nil, fmt.Errorf("%w: row %d", models.ErrDuplicateDate, i)
		}
	}
	return series, nil
}

// CompareSMA recomputes the close SMA of window with techan and compares it
// with RollingMean at every defined position
func CompareSMA(bars []models.PriceBar, window int, tolerance float64) (Report, error) {
	report := Report{
		Indicator:    fmt.Sprintf("sma_%d", window),
		MaxDiffIndex: -1,
		Tolerance:    tolerance,
	}
	if len(bars) == 0 {
		return report, models.ErrEmptySeries
	}
	if window < 1 {
		return report, fmt.Errorf("window must be positive, got %d", window)
	}

	series, err := NewTimeSeries(bars)
	if err != nil {
		return report, err
	}
	reference := techan.NewSimpleMovingAverage(techan.NewClosePriceIndicator(series), window)

	closes := make(indicatorpkg.Series, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}
	ours := indicatorpkg.RollingMean(closes, window)

	for i := window - 1; i < len(bars); i++ {
		diff := math.Abs(ours[i] - reference.Calculate(i).Float())
		report.Compared++
		if diff > report.MaxAbsDiff || report.MaxDiffIndex < 0 {
			report.MaxAbsDiff = diff
			report.MaxDiffIndex = i
		}
	}
	return report, nil
}

// CompareDefaultSMAs runs CompareSMA for every table SMA with enough history
func CompareDefaultSMAs(bars []models.PriceBar, tolerance float64) ([]Report, error) {
	var reports []Report
	for _, window := range []int{10, 20, 50, 200} {
		if len(bars) < window {
			continue
		}
		report, err := CompareSMA(bars, window, tolerance)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}
