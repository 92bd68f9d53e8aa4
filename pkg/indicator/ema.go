package indicator

import (
	"fmt"
	"math"
)

// EMA calculates the Exponential Moving Average of the close price
// EMA = Previous EMA + Multiplier * (Price - Previous EMA)
// Multiplier = 2 / (Span + 1)
type EMA struct {
	span int
	name string
}

// NewEMA creates a new EMA calculator with the specified span
func NewEMA(span int) (*EMA, error) {
	if span < 1 {
		return nil, fmt.Errorf("EMA span must be at least 1, got %d", span)
	}

	return &EMA{
		span: span,
		name: fmt.Sprintf("ema_%d", span),
	}, nil
}

// Name returns the indicator name
func (e *EMA) Name() string {
	return e.name
}

// Outputs returns the single EMA output
func (e *EMA) Outputs() []string {
	return []string{"ema"}
}

// Calculate computes the EMA over the close column
func (e *EMA) Calculate(src *Source) []Series {
	return []Series{ExponentialMean(src.Close, e.span)}
}

// WindowSize returns the span
func (e *EMA) WindowSize() int {
	return e.span
}

// ExponentialMean returns the EMA of s with the given span.
//
// The seed is the simple mean of the first span consecutive defined values
// and sits on the last of them; every following position applies
// ema[i] = ema[i-1] + alpha*(s[i]-ema[i-1]). Leading undefined values (as in
// a MACD line) delay the seed; an undefined value after the seed propagates.
func ExponentialMean(s Series, span int) Series {
	out := NewSeries(len(s))
	if span < 1 {
		return out
	}

	seed := emaSeedIndex(s, span)
	if seed < 0 {
		return out
	}

	alpha := 2.0 / float64(span+1)
	out[seed] = windowMean(s, seed, span)
	for i := seed + 1; i < len(s); i++ {
		out[i] = out[i-1] + alpha*(s[i]-out[i-1])
	}

	return out
}

// emaSeedIndex returns the index closing the first run of span consecutive
// defined values, or -1 when no such run exists.
func emaSeedIndex(s Series, span int) int {
	run := 0
	for i, v := range s {
		if math.IsNaN(v) {
			run = 0
			continue
		}
		run++
		if run == span {
			return i
		}
	}
	return -1
}
