package indicator

import (
	"fmt"
	"math"
)

// ATR calculates the Average True Range: Wilder-smoothed true range
type ATR struct {
	period int
	name   string
}

// NewATR creates a new ATR calculator with the specified period (typically 14)
func NewATR(period int) (*ATR, error) {
	if period < 1 {
		return nil, fmt.Errorf("ATR period must be at least 1, got %d", period)
	}

	return &ATR{
		period: period,
		name:   fmt.Sprintf("atr_%d", period),
	}, nil
}

// Name returns the indicator name
func (a *ATR) Name() string {
	return a.name
}

// Outputs returns the single ATR output
func (a *ATR) Outputs() []string {
	return []string{"atr"}
}

// Calculate computes the ATR from high, low and close
func (a *ATR) Calculate(src *Source) []Series {
	return []Series{Wilder(TrueRange(src.High, src.Low, src.Close), a.period)}
}

// WindowSize returns period + 1 (true range needs a prior close)
func (a *ATR) WindowSize() int {
	return a.period + 1
}

// TrueRange returns max(H-L, |H-prevC|, |L-prevC|); position 0 is undefined.
// An undefined input on any side leaves the position undefined.
func TrueRange(high, low, closes Series) Series {
	out := NewSeries(len(closes))
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - prev)
		lc := math.Abs(low[i] - prev)
		if math.IsNaN(hl) || math.IsNaN(hc) || math.IsNaN(lc) {
			continue
		}
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}
