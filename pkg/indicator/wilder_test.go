package indicator

import (
	"math"
	"testing"
)

func TestWilder_SeedAndStep(t *testing.T) {
	w := Wilder(Series{1, 2, 3, 4, 5, 6}, 3)

	assertWarmup(t, "wilder", w, 2)
	assertClose(t, "seed", 2, w[2])
	// Position period keeps the plain trailing mean
	assertClose(t, "w[3]", 3, w[3])
	assertClose(t, "w[4]", 11.0/3.0, w[4])
	assertClose(t, "w[5]", 40.0/9.0, w[5])
}

func TestWilder_ConstantIsFixedPoint(t *testing.T) {
	for _, period := range []int{3, 9, 14} {
		w := Wilder(constant(60, 100), period)
		for i := period - 1; i < len(w); i++ {
			if w[i] != 100 {
				t.Fatalf("period %d: expected 100 at %d, got %v", period, i, w[i])
			}
		}
	}
}

func TestWilder_LeadingUndefinedShiftsSeed(t *testing.T) {
	s := Series{math.NaN(), 1, 2, 3, 4, 5}
	w := Wilder(s, 3)

	assertWarmup(t, "wilder", w, 3)
	assertClose(t, "seed", 2, w[3])
	assertClose(t, "w[4]", (2*2+4)/3.0, w[4])
}

func TestWilder_UndefinedPropagates(t *testing.T) {
	s := Series{1, 2, 3, 4, math.NaN(), 6, 7}
	w := Wilder(s, 2)
	for i := 4; i < len(w); i++ {
		if !math.IsNaN(w[i]) {
			t.Errorf("Expected undefined to propagate at %d, got %f", i, w[i])
		}
	}
}

func TestWilder_ShortSeries(t *testing.T) {
	w := Wilder(Series{1, 2}, 14)
	if len(w) != 2 || w.FirstDefined() != -1 {
		t.Errorf("Expected two undefined values, got %v", w)
	}
	if len(Wilder(nil, 14)) != 0 {
		t.Error("Expected empty output for empty input")
	}
}
