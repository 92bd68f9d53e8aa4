package indicator

import (
	"fmt"
	"math"
)

// BollingerBands is a moving-average envelope sized by a multiple of the
// trailing sample standard deviation.
type BollingerBands struct {
	window     int
	multiplier float64
	name       string
}

// NewBollingerBands creates a Bollinger Bands calculator (typically 20, 2.0)
func NewBollingerBands(window int, multiplier float64) (*BollingerBands, error) {
	if window < 2 {
		return nil, fmt.Errorf("Bollinger window must be at least 2, got %d", window)
	}
	if multiplier <= 0 || math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return nil, fmt.Errorf("Bollinger multiplier must be positive, got %v", multiplier)
	}

	return &BollingerBands{
		window:     window,
		multiplier: multiplier,
		name:       fmt.Sprintf("bb_%d_%.1f", window, multiplier),
	}, nil
}

// Name returns the indicator name
func (b *BollingerBands) Name() string {
	return b.name
}

// Outputs returns upper, mid and lower in that order
func (b *BollingerBands) Outputs() []string {
	return []string{"upper", "mid", "lower"}
}

// Calculate computes the three bands over the close column
func (b *BollingerBands) Calculate(src *Source) []Series {
	mid := RollingMean(src.Close, b.window)
	sd := RollingStdDev(src.Close, b.window)

	upper := NewSeries(len(mid))
	lower := NewSeries(len(mid))
	for i := range mid {
		upper[i] = mid[i] + b.multiplier*sd[i]
		lower[i] = mid[i] - b.multiplier*sd[i]
	}

	return []Series{upper, mid, lower}
}

// WindowSize returns the window
func (b *BollingerBands) WindowSize() int {
	return b.window
}

// RollingStdDev returns the trailing sample standard deviation (n-1
// denominator) over window values, computed in two passes per window.
func RollingStdDev(s Series, window int) Series {
	out := NewSeries(len(s))
	if window < 2 {
		return out
	}
	for i := window - 1; i < len(s); i++ {
		mean := windowMean(s, i, window)
		var ss float64
		for _, v := range s[i-window+1 : i+1] {
			d := v - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(window-1))
	}
	return out
}
