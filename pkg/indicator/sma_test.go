package indicator

import (
	"testing"
)

func TestSMA_NewSMA(t *testing.T) {
	sma, err := NewSMA(20)
	if err != nil {
		t.Fatalf("Failed to create SMA: %v", err)
	}
	if sma.Name() != "sma_20" {
		t.Errorf("Expected name 'sma_20', got '%s'", sma.Name())
	}
	if sma.WindowSize() != 20 {
		t.Errorf("Expected window size 20, got %d", sma.WindowSize())
	}

	_, err = NewSMA(0)
	if err == nil {
		t.Error("Expected error for window < 1")
	}
}

func TestSMA_TenDayScenario(t *testing.T) {
	sma, _ := NewSMA(10)
	out := sma.Calculate(closes(10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20))[0]

	if len(out) != 11 {
		t.Fatalf("Expected 11 values, got %d", len(out))
	}
	assertWarmup(t, "sma_10", out, 9)
	if out[9] != 14.5 {
		t.Errorf("Expected 14.5 at row 9, got %f", out[9])
	}
	if out[10] != 15.5 {
		t.Errorf("Expected 15.5 at row 10, got %f", out[10])
	}
}

func TestSMA_Warmup(t *testing.T) {
	src := ramp(250, 100, 0.5)
	for _, window := range []int{10, 20, 50, 200} {
		out := RollingMean(src, window)
		assertWarmup(t, "sma", out, window-1)
	}
}
