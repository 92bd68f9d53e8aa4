package indicator

// Wilder applies Wilder's smoothing (smoothing factor 1/period) to s.
//
// Seed: positions period-1 and period hold the plain trailing mean of the
// last period values. Step: from period+1 onward
//
//	W[i] = (W[i-1]*(period-1) + s[i]) / period
//
// Undefined values are never skipped; they propagate through the mean and
// the recurrence. This is how an undefined first price difference shifts the
// RSI seed from period-1 to period.
func Wilder(s Series, period int) Series {
	out := NewSeries(len(s))
	if period < 1 {
		return out
	}

	last := period
	if last > len(s)-1 {
		last = len(s) - 1
	}
	for i := period - 1; i <= last; i++ {
		out[i] = windowMean(s, i, period)
	}

	for i := period + 1; i < len(s); i++ {
		out[i] = wilderStep(out[i-1], s[i], period)
	}

	return out
}

func wilderStep(prev, x float64, period int) float64 {
	return (prev*float64(period-1) + x) / float64(period)
}
