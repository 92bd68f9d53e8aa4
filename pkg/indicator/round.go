package indicator

import "math"

// Round2 rounds a defined value to two decimal places, half to even on the
// scaled value. A result of negative zero is returned as 0. Undefined values
// pass through untouched.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r := math.RoundToEven(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}

// Rounded returns a copy of s with every defined position rounded to two
// decimals. The receiver is left untouched so recurrences never see
// rounded values.
func (s Series) Rounded() Series {
	out := make(Series, len(s))
	for i, v := range s {
		out[i] = Round2(v)
	}
	return out
}
