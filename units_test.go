package cosi

import "testing"

func TestRate_NonNegative(t *testing.T) {
	cases := []struct {
		r    Rate
		want bool
	}{
		{0, true},
		{1.5, true},
		{-epsilon / 2, true},
		{-1, false},
	}
	for _, c := range cases {
		if got := c.r.NonNegative(); got != c.want {
			t.Errorf("Rate(%v).NonNegative() = %v, want %v", c.r, got, c.want)
		}
	}
}

func TestRate_Clamp(t *testing.T) {
	if got := Rate(-1).Clamp(); got != 0 {
		t.Errorf("Rate(-1).Clamp() = %v, want 0", got)
	}
	if got := Rate(2.5).Clamp(); got != 2.5 {
		t.Errorf("Rate(2.5).Clamp() = %v, want 2.5", got)
	}
}

func TestPhysPos_InWindow(t *testing.T) {
	if !PhysPos(0.5).InWindow(0, 1) {
		t.Error("0.5 should be in [0,1)")
	}
	if PhysPos(1).InWindow(0, 1) {
		t.Error("1 should not be in [0,1)")
	}
	if PhysPos(0.2).InWindow(0.3, 0.4) {
		t.Error("0.2 should not be in [0.3,0.4)")
	}
}
