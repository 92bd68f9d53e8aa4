package indicator

import (
	"fmt"
	"math"
)

// RSI calculates the Relative Strength Index
// RSI = 100 - (100 / (1 + RS))
// where RS = Wilder-smoothed average gain / Wilder-smoothed average loss
type RSI struct {
	period int
	name   string
}

// NewRSI creates a new RSI calculator with the specified period (typically 14)
func NewRSI(period int) (*RSI, error) {
	if period < 2 {
		return nil, fmt.Errorf("RSI period must be at least 2, got %d", period)
	}

	return &RSI{
		period: period,
		name:   fmt.Sprintf("rsi_%d", period),
	}, nil
}

// Name returns the indicator name
func (r *RSI) Name() string {
	return r.name
}

// Outputs returns the single RSI output
func (r *RSI) Outputs() []string {
	return []string{"rsi"}
}

// Calculate computes the RSI over the close column
func (r *RSI) Calculate(src *Source) []Series {
	return []Series{RelativeStrength(src.Close, r.period)}
}

// WindowSize returns period + 1 (the first price change needs a prior day)
func (r *RSI) WindowSize() int {
	return r.period + 1
}

// RelativeStrength returns the RSI series of close for the given period.
// The first defined value is at index period.
func RelativeStrength(closes Series, period int) Series {
	delta := closes.Diff()
	gain := NewSeries(len(delta))
	loss := NewSeries(len(delta))
	for i, d := range delta {
		if math.IsNaN(d) {
			continue
		}
		gain[i] = math.Max(d, 0)
		loss[i] = math.Max(-d, 0)
	}

	avgGain := Wilder(gain, period)
	avgLoss := Wilder(loss, period)

	out := NewSeries(len(closes))
	for i := range out {
		out[i] = rsiValue(avgGain[i], avgLoss[i])
	}
	return out
}

// rsiValue maps smoothed averages to [0, 100]. A zero average loss is a
// pure uptrend (RS is infinite), so the result is exactly 100.
func rsiValue(avgGain, avgLoss float64) float64 {
	if math.IsNaN(avgGain) || math.IsNaN(avgLoss) {
		return math.NaN()
	}
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
