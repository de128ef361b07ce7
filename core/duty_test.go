package core

import (
	"math/bits"
	"testing"
)

func TestEncodeDutySetBits(t *testing.T) {
	mask := CycleMask(CycleBitWidth)
	for duty := MinDuty; duty <= MaxDuty; duty += DutyStep {
		word := EncodeDuty(duty, CycleBitWidth) & mask

		expectedHigh := int(duty) / CycleBitWidth
		if got := bits.OnesCount32(word); got != expectedHigh {
			t.Errorf("duty %d: expected %d set bits, got %d (pattern %010b)", duty, expectedHigh, got, word)
		}

		// The set bits must be contiguous and end at the top of the width.
		low := CycleBitWidth - expectedHigh
		expected := mask &^ (1<<low - 1)
		if word != expected {
			t.Errorf("duty %d: expected pattern %010b, got %010b", duty, expected, word)
		}
	}
}

func TestEncodeDutyShiftsFromAllOnes(t *testing.T) {
	if got := EncodeDuty(50, CycleBitWidth); got != 0xffffffe0 {
		t.Errorf("Expected 0xffffffe0 for 50%%, got 0x%08x", got)
	}
	if got := EncodeDuty(10, CycleBitWidth); got != 0xfffffe00 {
		t.Errorf("Expected 0xfffffe00 for 10%%, got 0x%08x", got)
	}
	if got := EncodeDuty(90, CycleBitWidth); got != 0xfffffffe {
		t.Errorf("Expected 0xfffffffe for 90%%, got 0x%08x", got)
	}
}

func TestDutyNextWraps(t *testing.T) {
	for duty := MinDuty; duty < MaxDuty; duty += DutyStep {
		if got := duty.Next(); got != duty+10 {
			t.Errorf("Expected %d after %d, got %d", duty+10, duty, got)
		}
	}
	if got := DutyCycle(90).Next(); got != 10 {
		t.Errorf("Expected 90 to wrap to 10, got %d", got)
	}
}

func TestDutyNextNeverDegenerates(t *testing.T) {
	d := MinDuty
	for i := 0; i < 100; i++ {
		d = d.Next()
		if d == 0 || d == 100 || !d.Valid() {
			t.Fatalf("Step %d produced invalid duty %d", i, d)
		}
	}
}

func TestDutyValid(t *testing.T) {
	testCases := []struct {
		duty  DutyCycle
		valid bool
	}{
		{0, false},
		{5, false},
		{10, true},
		{50, true},
		{55, false},
		{90, true},
		{100, false},
		{200, false},
	}
	for _, tc := range testCases {
		if got := tc.duty.Valid(); got != tc.valid {
			t.Errorf("duty %d: expected valid=%v, got %v", tc.duty, tc.valid, got)
		}
	}
}

func TestNormalizeDuty(t *testing.T) {
	testCases := []struct {
		in       int
		expected DutyCycle
	}{
		{-20, 10},
		{0, 10},
		{4, 10},
		{14, 10},
		{15, 20},
		{50, 50},
		{54, 50},
		{86, 90},
		{95, 90},
		{100, 90},
		{1000, 90},
	}
	for _, tc := range testCases {
		if got := NormalizeDuty(tc.in); got != tc.expected {
			t.Errorf("NormalizeDuty(%d): expected %d, got %d", tc.in, tc.expected, got)
		}
	}
}

func TestBitPatternEncodeInPlace(t *testing.T) {
	var p BitPattern
	first := &p[0]

	if err := p.Encode(30); err != nil {
		t.Fatalf("Encode(30) failed: %v", err)
	}
	for i, w := range p {
		if w != EncodeDuty(30, CycleBitWidth) {
			t.Errorf("word %d: expected 0x%08x, got 0x%08x", i, EncodeDuty(30, CycleBitWidth), w)
		}
	}

	if err := p.Encode(70); err != nil {
		t.Fatalf("Encode(70) failed: %v", err)
	}
	if &p.Words()[0] != first {
		t.Error("Words() no longer points at the pattern storage")
	}
	if p[PatternWords-1] != EncodeDuty(70, CycleBitWidth) {
		t.Errorf("Expected last word updated to 70%%, got 0x%08x", p[PatternWords-1])
	}
}

func TestBitPatternRejectsInvalidDuty(t *testing.T) {
	var p BitPattern
	if err := p.Encode(50); err != nil {
		t.Fatalf("Encode(50) failed: %v", err)
	}
	before := p

	for _, duty := range []DutyCycle{0, 100, 45} {
		if err := p.Encode(duty); err != ErrInvalidDuty {
			t.Errorf("Encode(%d): expected ErrInvalidDuty, got %v", duty, err)
		}
	}
	if p != before {
		t.Error("Rejected duty modified the pattern")
	}
}

func TestDutyLowShare(t *testing.T) {
	if got := DutyCycle(30).Low(); got != 70 {
		t.Errorf("Expected low share 70, got %d", got)
	}
}
