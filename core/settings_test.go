package core

import "testing"

func TestIncreaseFrequencySaturates(t *testing.T) {
	starts := []Frequency{MinFrequency, 20000, 9995000, 9999999, MaxFrequency}
	for _, start := range starts {
		for _, inc := range []FrequencyIncrement{IncrementFine, IncrementCoarse} {
			s := Settings{Frequency: start, Increment: inc, Duty: DefaultDuty}
			for i := 0; i < 5; i++ {
				s.IncreaseFrequency(inc)
				if s.Frequency > MaxFrequency {
					t.Fatalf("start %d inc %d: frequency %d above maximum", start, inc, s.Frequency)
				}
			}
		}
	}

	s := Settings{Frequency: 9995000}
	s.IncreaseFrequency(IncrementCoarse)
	if s.Frequency != MaxFrequency {
		t.Errorf("Expected clamp to %d, got %d", MaxFrequency, s.Frequency)
	}
}

func TestDecreaseFrequencySaturates(t *testing.T) {
	starts := []Frequency{MinFrequency, 1500, 10500, 11000, 20000, MaxFrequency}
	for _, start := range starts {
		for _, inc := range []FrequencyIncrement{IncrementFine, IncrementCoarse} {
			s := Settings{Frequency: start}
			for i := 0; i < 5; i++ {
				s.DecreaseFrequency(inc)
				if s.Frequency < MinFrequency {
					t.Fatalf("start %d inc %d: frequency %d below minimum", start, inc, s.Frequency)
				}
			}
		}
	}

	testCases := []struct {
		start    Frequency
		by       FrequencyIncrement
		expected Frequency
	}{
		{1000, IncrementCoarse, 1000},
		{1000, IncrementFine, 1000},
		{1500, IncrementFine, 1000},
		{2000, IncrementFine, 1000},
		{10500, IncrementCoarse, 1000},
		{11000, IncrementCoarse, 1000},
		{11001, IncrementCoarse, 1001},
		{20000, IncrementCoarse, 10000},
	}
	for _, tc := range testCases {
		s := Settings{Frequency: tc.start}
		s.DecreaseFrequency(tc.by)
		if s.Frequency != tc.expected {
			t.Errorf("%d - %d: expected %d, got %d", tc.start, tc.by, tc.expected, s.Frequency)
		}
	}
}

func TestScenarioIncreaseThreeTimes(t *testing.T) {
	s := Settings{Frequency: 20000, Duty: 50}
	if err := s.SelectIncrement(IncrementCoarse); err != nil {
		t.Fatalf("SelectIncrement failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		s.IncreaseFrequency(s.Increment)
	}
	if s.Frequency != 50000 {
		t.Errorf("Expected 50000 Hz, got %d", s.Frequency)
	}
	if s.Duty != 50 {
		t.Errorf("Expected duty unchanged at 50, got %d", s.Duty)
	}
}

func TestScenarioDutyWrap(t *testing.T) {
	s := Settings{Duty: 90}
	s.StepDuty()
	if s.Duty != 10 {
		t.Errorf("Expected duty 10 after stepping from 90, got %d", s.Duty)
	}
}

func TestScenarioDecreaseAtFloor(t *testing.T) {
	s := Settings{Frequency: 1000, Increment: IncrementCoarse}
	s.DecreaseFrequency(s.Increment)
	if s.Frequency != 1000 {
		t.Errorf("Expected frequency to stay at 1000, got %d", s.Frequency)
	}
}

func TestSelectIncrement(t *testing.T) {
	s := DefaultSettings()
	if err := s.SelectIncrement(5000); err != ErrInvalidIncrement {
		t.Errorf("Expected ErrInvalidIncrement, got %v", err)
	}
	if s.Increment != IncrementFine {
		t.Errorf("Rejected increment changed the setting to %d", s.Increment)
	}
	if err := s.SelectIncrement(IncrementCoarse); err != nil {
		t.Errorf("SelectIncrement(10000) failed: %v", err)
	}
	if s.Increment != IncrementCoarse {
		t.Errorf("Expected increment 10000, got %d", s.Increment)
	}
}

func TestSettingsValidate(t *testing.T) {
	if err := DefaultSettings().Validate(); err != nil {
		t.Errorf("Default settings invalid: %v", err)
	}

	testCases := []struct {
		s   Settings
		err error
	}{
		{Settings{Frequency: 0, Increment: IncrementFine, Duty: 50}, ErrInvalidFrequency},
		{Settings{Frequency: 999, Increment: IncrementFine, Duty: 50}, ErrInvalidFrequency},
		{Settings{Frequency: MaxFrequency + 1, Increment: IncrementFine, Duty: 50}, ErrInvalidFrequency},
		{Settings{Frequency: 5000, Increment: 0, Duty: 50}, ErrInvalidIncrement},
		{Settings{Frequency: 5000, Increment: IncrementFine, Duty: 0}, ErrInvalidDuty},
		{Settings{Frequency: 5000, Increment: IncrementFine, Duty: 100}, ErrInvalidDuty},
	}
	for i, tc := range testCases {
		if err := tc.s.Validate(); err != tc.err {
			t.Errorf("Test case %d: expected %v, got %v", i, tc.err, err)
		}
	}
}

func TestSettingsDiff(t *testing.T) {
	a := DefaultSettings()
	b := a
	if c := b.Diff(a); c != 0 {
		t.Errorf("Expected no change, got %b", c)
	}

	b.Increment = IncrementCoarse
	if c := b.Diff(a); c != 0 {
		t.Errorf("Increment alone should not require hardware work, got %b", c)
	}

	b.Frequency += 1000
	if c := b.Diff(a); c != ChangeFrequency {
		t.Errorf("Expected ChangeFrequency, got %b", c)
	}

	b.StepDuty()
	if c := b.Diff(a); c != ChangeFrequency|ChangeDuty {
		t.Errorf("Expected both changes, got %b", c)
	}
}
