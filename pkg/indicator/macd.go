package indicator

import (
	"fmt"
)

// MACD is the difference of a fast and a slow EMA of the close price, plus
// an EMA "signal" of that difference and the histogram between the two.
type MACD struct {
	fast   int
	slow   int
	signal int
	name   string
}

// NewMACD creates a MACD calculator (typically 12, 26, 9)
func NewMACD(fast, slow, signal int) (*MACD, error) {
	if fast < 1 || slow < 1 || signal < 1 {
		return nil, fmt.Errorf("MACD spans must be at least 1, got %d/%d/%d", fast, slow, signal)
	}
	if fast >= slow {
		return nil, fmt.Errorf("MACD fast span (%d) must be shorter than slow span (%d)", fast, slow)
	}

	return &MACD{
		fast:   fast,
		slow:   slow,
		signal: signal,
		name:   fmt.Sprintf("macd_%d_%d_%d", fast, slow, signal),
	}, nil
}

// Name returns the indicator name
func (m *MACD) Name() string {
	return m.name
}

// Outputs returns line, signal and histogram in that order
func (m *MACD) Outputs() []string {
	return []string{"line", "signal", "histogram"}
}

// Calculate computes the three MACD components over the close column
func (m *MACD) Calculate(src *Source) []Series {
	fast := ExponentialMean(src.Close, m.fast)
	slow := ExponentialMean(src.Close, m.slow)

	line := fast.Sub(slow)
	signal := ExponentialMean(line, m.signal)
	histogram := line.Sub(signal)

	return []Series{line, signal, histogram}
}

// WindowSize returns the rows needed before the signal line is defined
func (m *MACD) WindowSize() int {
	return m.slow + m.signal - 1
}
