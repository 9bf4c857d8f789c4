package scheduler

import (
	"testing"
	"time"
)

func TestWindow_WrapsMidnight(t *testing.T) {
	w := Window{StartHour: 20, EndHour: 11, Location: time.UTC}

	for hour := 0; hour < 24; hour++ {
		want := hour >= 20 || hour < 11
		for _, minute := range []int{0, 17, 59} {
			now := time.Date(2025, 6, 3, hour, minute, 0, 0, time.UTC)
			if got := w.Active(now); got != want {
				t.Errorf("hour=%d minute=%d: Active = %v, want %v", hour, minute, got, want)
			}
		}
	}
}

func TestWindow_SameDay(t *testing.T) {
	w := Window{StartHour: 9, EndHour: 17, Location: time.UTC}

	tests := []struct {
		hour int
		want bool
	}{
		{8, false},
		{9, true},
		{12, true},
		{16, true},
		{17, false},
		{23, false},
		{0, false},
	}
	for _, tt := range tests {
		now := time.Date(2025, 6, 3, tt.hour, 30, 0, 0, time.UTC)
		if got := w.Active(now); got != tt.want {
			t.Errorf("hour=%d: Active = %v, want %v", tt.hour, got, tt.want)
		}
	}
}

func TestWindow_ConvertsToConfiguredZone(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	w := Window{StartHour: 20, EndHour: 11, Location: est}

	// 01:30 UTC is 20:30 EST: inside the wrapped window.
	now := time.Date(2025, 6, 4, 1, 30, 0, 0, time.UTC)
	if !w.Active(now) {
		t.Error("Expected 01:30 UTC (20:30 EST) to be active")
	}

	// 17:00 UTC is 12:00 EST: outside.
	now = time.Date(2025, 6, 4, 17, 0, 0, 0, time.UTC)
	if w.Active(now) {
		t.Error("Expected 17:00 UTC (12:00 EST) to be inactive")
	}
}

func TestNewWindow_InvalidTimezone(t *testing.T) {
	if _, err := NewWindow(20, 11, "Not/AZone"); err == nil {
		t.Error("Expected error for unknown timezone, got nil")
	}
	w, err := NewWindow(20, 11, "UTC")
	if err != nil {
		t.Fatalf("NewWindow failed for UTC: %v", err)
	}
	if w.Location != time.UTC {
		t.Errorf("Expected UTC location, got %v", w.Location)
	}
}
