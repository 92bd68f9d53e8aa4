package indicator

import (
	"math"
	"testing"
)

const tolerance = 1e-9

func closes(values ...float64) *Source {
	s := Series(values)
	return &Source{Open: s, High: s, Low: s, Close: s}
}

func ramp(n int, start, step float64) Series {
	s := make(Series, n)
	for i := range s {
		s[i] = start + float64(i)*step
	}
	return s
}

func constant(n int, v float64) Series {
	s := make(Series, n)
	for i := range s {
		s[i] = v
	}
	return s
}

// assertWarmup checks that s is undefined before first and defined from first on
func assertWarmup(t *testing.T, name string, s Series, first int) {
	t.Helper()
	for i, v := range s {
		if i < first && !math.IsNaN(v) {
			t.Errorf("%s: expected undefined at %d, got %f", name, i, v)
		}
		if i >= first && math.IsNaN(v) {
			t.Errorf("%s: expected defined value at %d", name, i)
		}
	}
}

func assertClose(t *testing.T, name string, want, got float64) {
	t.Helper()
	if math.Abs(want-got) > tolerance {
		t.Errorf("%s: expected %.12f, got %.12f", name, want, got)
	}
}
