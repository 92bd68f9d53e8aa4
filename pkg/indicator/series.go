package indicator

import (
	"fmt"
	"math"
)

// Series is an ordered sequence of values aligned with the input rows.
// A NaN position means the value is undefined (not enough history).
type Series []float64

// NewSeries returns a series of length n with every position undefined
func NewSeries(n int) Series {
	s := make(Series, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}

// Undefined returns the marker used for positions without a value
func Undefined() float64 {
	return math.NaN()
}

// IsDefined reports whether v holds a value
func IsDefined(v float64) bool {
	return !math.IsNaN(v)
}

// Defined reports whether position i of the series holds a value
func (s Series) Defined(i int) bool {
	return i >= 0 && i < len(s) && IsDefined(s[i])
}

// FirstDefined returns the index of the first defined position, or -1
func (s Series) FirstDefined() int {
	for i, v := range s {
		if IsDefined(v) {
			return i
		}
	}
	return -1
}

// Diff returns s[i] - s[i-1]; position 0 is undefined
func (s Series) Diff() Series {
	out := NewSeries(len(s))
	for i := 1; i < len(s); i++ {
		out[i] = s[i] - s[i-1]
	}
	return out
}

// Sub returns s[i] - other[i]. Undefined on either side stays undefined.
func (s Series) Sub(other Series) Series {
	out := NewSeries(len(s))
	for i := range s {
		if i < len(other) {
			out[i] = s[i] - other[i]
		}
	}
	return out
}

// windowMean returns the arithmetic mean of s[end-window+1..end].
// Any undefined value inside the window makes the result undefined.
func windowMean(s Series, end, window int) float64 {
	start := end - window + 1
	if start < 0 || end >= len(s) {
		return math.NaN()
	}
	var sum float64
	for _, v := range s[start : end+1] {
		sum += v
	}
	return sum / float64(window)
}

// Source holds the price columns an indicator may read from
type Source struct {
	Open  Series
	High  Series
	Low   Series
	Close Series
}

// NewSource builds a source from equally sized columns
func NewSource(open, high, low, close Series) (*Source, error) {
	n := len(close)
	if len(open) != n || len(high) != n || len(low) != n {
		return nil, fmt.Errorf("source columns must have equal length: open=%d high=%d low=%d close=%d",
			len(open), len(high), len(low), n)
	}
	return &Source{Open: open, High: high, Low: low, Close: close}, nil
}

// Len returns the number of rows in the source
func (s *Source) Len() int {
	return len(s.Close)
}
