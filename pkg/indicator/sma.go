package indicator

import (
	"fmt"
)

// SMA calculates the Simple Moving Average of the close price
// SMA = Sum of prices over period / period
type SMA struct {
	window int
	name   string
}

// NewSMA creates a new SMA calculator with the specified window
func NewSMA(window int) (*SMA, error) {
	if window < 1 {
		return nil, fmt.Errorf("SMA window must be at least 1, got %d", window)
	}

	return &SMA{
		window: window,
		name:   fmt.Sprintf("sma_%d", window),
	}, nil
}

// Name returns the indicator name
func (s *SMA) Name() string {
	return s.name
}

// Outputs returns the single SMA output
func (s *SMA) Outputs() []string {
	return []string{"sma"}
}

// Calculate computes the SMA over the close column
func (s *SMA) Calculate(src *Source) []Series {
	return []Series{RollingMean(src.Close, s.window)}
}

// WindowSize returns the window (number of rows required)
func (s *SMA) WindowSize() int {
	return s.window
}

// RollingMean returns the trailing mean over window values. The first
// window-1 positions are undefined. Each window is summed directly so no
// rounding drift is carried along the series.
func RollingMean(s Series, window int) Series {
	out := NewSeries(len(s))
	if window < 1 {
		return out
	}
	for i := window - 1; i < len(s); i++ {
		out[i] = windowMean(s, i, window)
	}
	return out
}
