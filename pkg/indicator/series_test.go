package indicator

import (
	"math"
	"testing"
)

func TestSeries_NewSeriesIsUndefined(t *testing.T) {
	s := NewSeries(3)
	if len(s) != 3 {
		t.Fatalf("Expected length 3, got %d", len(s))
	}
	if s.FirstDefined() != -1 {
		t.Errorf("Expected no defined value, got index %d", s.FirstDefined())
	}
}

func TestSeries_Diff(t *testing.T) {
	d := Series{10, 12, 11}.Diff()
	if !math.IsNaN(d[0]) {
		t.Errorf("Expected undefined first difference, got %f", d[0])
	}
	assertClose(t, "d[1]", 2, d[1])
	assertClose(t, "d[2]", -1, d[2])
}

func TestSeries_SubPropagatesUndefined(t *testing.T) {
	a := Series{math.NaN(), 5, 7}
	b := Series{1, math.NaN(), 2}
	out := a.Sub(b)
	if out.Defined(0) || out.Defined(1) {
		t.Error("Expected undefined where either side is undefined")
	}
	assertClose(t, "out[2]", 5, out[2])
}

func TestNewSource_LengthMismatch(t *testing.T) {
	_, err := NewSource(Series{1}, Series{1}, Series{1, 2}, Series{1})
	if err == nil {
		t.Error("Expected error for mismatched column lengths")
	}
}

func TestRound2(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{14.5, 14.5},
		{14.499, 14.5},
		{0.125, 0.12},
		{0.375, 0.38},
		{-1.234, -1.23},
		{100, 100},
	}
	for _, c := range cases {
		if got := Round2(c.in); got != c.want {
			t.Errorf("Round2(%v): expected %v, got %v", c.in, c.want, got)
		}
	}
	if !math.IsNaN(Round2(math.NaN())) {
		t.Error("Expected undefined to stay undefined")
	}
	for _, v := range []float64{-0.001, -0.004, math.Copysign(0, -1)} {
		if got := Round2(v); got != 0 || math.Signbit(got) {
			t.Errorf("Round2(%v): expected positive zero, got %v", v, got)
		}
	}
}

func TestSeries_RoundedDoesNotMutate(t *testing.T) {
	s := Series{1.23456, math.NaN()}
	r := s.Rounded()
	if s[0] != 1.23456 {
		t.Errorf("Rounded mutated the receiver: %f", s[0])
	}
	if r[0] != 1.23 || !math.IsNaN(r[1]) {
		t.Errorf("Unexpected rounded series %v", r)
	}
}
