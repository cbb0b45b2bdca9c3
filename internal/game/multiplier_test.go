package game

import "testing"

func TestMultiplierAt_Origin(t *testing.T) {
	if got := MultiplierAt(0); got != 1.0 {
		t.Errorf("MultiplierAt(0) = %v, want 1.0", got)
	}
	if got := MultiplierAt(-5); got != 1.0 {
		t.Errorf("MultiplierAt(-5) = %v, want 1.0 (clamped)", got)
	}
}

func TestMultiplierAt_KnownValues(t *testing.T) {
	tests := []struct {
		elapsed float64
		want    float64
	}{
		{0, 1.0},
		{1, 1.6},   // 1 + 0.5 + 0.1
		{2, 2.4},   // 1 + 1.0 + 0.4
		{5, 6.0},   // 1 + 2.5 + 2.5
		{10, 16.0}, // 1 + 5 + 10
	}

	for _, tt := range tests {
		if got := MultiplierAt(tt.elapsed); got != tt.want {
			t.Errorf("MultiplierAt(%v) = %v, want %v", tt.elapsed, got, tt.want)
		}
	}
}

func TestMultiplierAt_NonDecreasing(t *testing.T) {
	prev := MultiplierAt(0)
	for i := 1; i <= 10000; i++ {
		tSec := float64(i) * 0.01
		cur := MultiplierAt(tSec)
		if cur < prev {
			t.Fatalf("MultiplierAt decreased: m(%v)=%v < m(%v)=%v", tSec, cur, tSec-0.01, prev)
		}
		prev = cur
	}
}

func BenchmarkMultiplierAt(b *testing.B) {
	for i := 0; i < b.N; i++ {
		MultiplierAt(float64(i%600) * 0.1)
	}
}
