package core

import "testing"

// 1.24V reference read against a 3.3V supply
const vref33 = 24625

func TestSupplyVoltage(t *testing.T) {
	v := SupplyVoltage(vref33)
	if v < 3.29 || v > 3.31 {
		t.Errorf("Expected about 3.3V, got %f", v)
	}
	if SupplyVoltage(0) != 0 {
		t.Error("Expected 0V for a zero reference reading")
	}
}

func TestBatteryLevel(t *testing.T) {
	testCases := []struct {
		name     string
		vbat     uint16
		expected int
	}{
		{"flat", 19800, 0}, // about 3.0V
		{"mid", 24493, 2},  // about 3.7V
		{"full", 27800, 4}, // about 4.2V, clamped
		{"empty", 0, 0},
	}
	for _, tc := range testCases {
		if got := BatteryLevel(tc.vbat, vref33); got != tc.expected {
			t.Errorf("%s: expected level %d, got %d (%.3fV)", tc.name, tc.expected, got, BatteryVoltage(tc.vbat, vref33))
		}
	}
	if got := BatteryLevel(30000, 0); got != 0 {
		t.Errorf("Expected level 0 without a reference, got %d", got)
	}
}
