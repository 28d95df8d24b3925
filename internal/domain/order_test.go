package domain

import "testing"

func TestPendingOrder_IsResting(t *testing.T) {
	tests := []struct {
		name  string
		state string
		want  bool
	}{
		{"wait", StateWait, true},
		{"done", StateDone, false},
		{"cancel", StateCancel, false},
		{"unknown", "trade", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &PendingOrder{State: tt.state}
			if got := o.IsResting(); got != tt.want {
				t.Errorf("PendingOrder.IsResting() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSide_Valid(t *testing.T) {
	tests := []struct {
		side Side
		want bool
	}{
		{SideBuy, true},
		{SideSell, true},
		{Side("BUY"), false},
		{Side(""), false},
	}
	for _, tt := range tests {
		if got := tt.side.Valid(); got != tt.want {
			t.Errorf("Side(%q).Valid() = %v, want %v", tt.side, got, tt.want)
		}
	}
}
