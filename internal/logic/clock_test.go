package logic

import (
	"math"
	"testing"
)

func TestDecrement(t *testing.T) {
	tests := []struct {
		name      string
		remaining uint32
		last      uint32
		now       uint32
		want      uint32
	}{
		{"no time passed", 1000, 500, 500, 1000},
		{"partial elapse", 1000, 0, 400, 600},
		{"exact elapse", 1000, 0, 1000, 0},
		{"overshoot clamps to zero", 1000, 0, 5000, 0},
		{"zero remaining stays zero", 0, 0, 12345, 0},
		{"large remaining", math.MaxUint32, 0, 1, math.MaxUint32 - 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decrement(tt.remaining, tt.last, tt.now)
			if got != tt.want {
				t.Errorf("Decrement(%d, %d, %d) = %d, want %d",
					tt.remaining, tt.last, tt.now, got, tt.want)
			}
		})
	}
}

// The counter wraps at 2^32 microseconds (~71 minutes). Elapsed time across
// the wrap must still come out right.
func TestDecrementAcrossWrap(t *testing.T) {
	last := uint32(math.MaxUint32 - 999) // 1000us before wrap
	now := uint32(500)                   // 500us after wrap; elapsed = 1500

	if got := Decrement(10_000, last, now); got != 8_500 {
		t.Errorf("Decrement across wrap = %d, want 8500", got)
	}
	if got := Decrement(1_000, last, now); got != 0 {
		t.Errorf("Decrement across wrap with overshoot = %d, want 0", got)
	}
}

// Timers are monotonically non-increasing between arms, never negative.
func TestDecrementNeverIncreases(t *testing.T) {
	remaining := uint32(1_000_000)
	last := uint32(0)
	for now := uint32(0); now <= 2_000_000; now += 250_000 {
		next := Decrement(remaining, last, now)
		if next > remaining {
			t.Fatalf("remaining increased: %d -> %d at now=%d", remaining, next, now)
		}
		remaining = next
		last = now
	}
	if remaining != 0 {
		t.Errorf("remaining = %d after full elapse, want 0", remaining)
	}
}
