package emotion

import (
	"math"
	"testing"
)

func TestScaleBounds(t *testing.T) {
	inputs := []float64{math.NaN(), math.Inf(-1), math.Inf(1), -10, -0.01, 0, 0.25, 0.5, 0.99, 1, 1.5, 100}
	for _, s := range inputs {
		got := Scale(s)
		if got < MinGlyphSize || got > MaxGlyphSize {
			t.Fatalf("Scale(%v) = %d out of range", s, got)
		}
	}
	if Scale(0) != 14 || Scale(1) != 36 || Scale(0.5) != 25 {
		t.Fatalf("unexpected endpoints: %d %d %d", Scale(0), Scale(1), Scale(0.5))
	}
	if Scale(math.NaN()) != 14 {
		t.Fatalf("expected NaN to scale to minimum")
	}
}

func TestScaleMonotonic(t *testing.T) {
	prev := Scale(-1)
	for i := 0; i <= 1000; i++ {
		s := float64(i) / 1000
		cur := Scale(s)
		if cur < prev {
			t.Fatalf("Scale not monotonic at %v: %d < %d", s, cur, prev)
		}
		prev = cur
	}
}
