package infra

import (
	"testing"
	"time"
)

func TestCalculateBackoff(t *testing.T) {
	base := 1 * time.Second
	max := 60 * time.Second

	tests := []struct {
		retry int
		want  time.Duration
	}{
		{-1, 1 * time.Second},
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{10, 60 * time.Second},  // capped
		{100, 60 * time.Second}, // still capped
	}

	for _, tt := range tests {
		if got := CalculateBackoff(tt.retry, base, max); got != tt.want {
			t.Errorf("CalculateBackoff(%d) = %s, want %s", tt.retry, got, tt.want)
		}
	}
}

func TestCalculateBackoff_Defaults(t *testing.T) {
	// Zero base/max fall back to package defaults.
	if got := CalculateBackoff(0, 0, 0); got != DefaultBaseDelay {
		t.Errorf("CalculateBackoff(0, 0, 0) = %s, want %s", got, DefaultBaseDelay)
	}
	if got := CalculateBackoff(30, 0, 0); got != DefaultMaxDelay {
		t.Errorf("CalculateBackoff(30, 0, 0) = %s, want %s", got, DefaultMaxDelay)
	}
}

func TestCalculateBackoff_CustomSchedule(t *testing.T) {
	// 500ms base capped at 5s, the dashboard channel defaults.
	base := 500 * time.Millisecond
	max := 5 * time.Second

	if got := CalculateBackoff(2, base, max); got != 2*time.Second {
		t.Errorf("CalculateBackoff(2) = %s, want 2s", got)
	}
	if got := CalculateBackoff(5, base, max); got != max {
		t.Errorf("CalculateBackoff(5) = %s, want %s", got, max)
	}
}
