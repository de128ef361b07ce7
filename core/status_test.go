package core

import "testing"

func TestAppendFrequency(t *testing.T) {
	testCases := []struct {
		hz       uint32
		expected string
	}{
		{20000, "20.000 kHz"},
		{19968, "19.968 kHz"},
		{1000, "1.000 kHz"},
		{1005, "1.005 kHz"},
		{1050, "1.050 kHz"},
		{6250000, "6250.000 kHz"},
	}
	for _, tc := range testCases {
		if got := string(AppendFrequency(nil, tc.hz)); got != tc.expected {
			t.Errorf("%d: expected %q, got %q", tc.hz, tc.expected, got)
		}
	}
}

func TestStatusLines(t *testing.T) {
	st := Status{
		FrequencyHz: 20000,
		Duty:        30,
		Increment:   IncrementCoarse,
		Running:     true,
		Battery:     4,
	}
	l1, l2 := st.Lines(nil, nil)
	if string(l1) != "F 20.000 kHz" {
		t.Errorf("Expected line 1 %q, got %q", "F 20.000 kHz", l1)
	}
	if string(l2) != "D 30/70 +10K B4" {
		t.Errorf("Expected line 2 %q, got %q", "D 30/70 +10K B4", l2)
	}

	st.Battery = -1
	_, l2 = st.Lines(l1, l2)
	if string(l2) != "D 30/70 +10K" {
		t.Errorf("Expected no battery field, got %q", l2)
	}

	st.Running = false
	_, l2 = st.Lines(l1, l2)
	if string(l2) != "D 30/70 +10K OFF" {
		t.Errorf("Expected OFF marker, got %q", l2)
	}

	// A stopped badge still reports its battery
	st.Battery = 1
	_, l2 = st.Lines(l1, l2)
	if string(l2) != "D 30/70 +10K B1 OFF" {
		t.Errorf("Expected battery and OFF marker, got %q", l2)
	}
}
