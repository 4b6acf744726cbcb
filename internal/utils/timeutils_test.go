package utils

import (
	"testing"
	"time"
)

func TestParseAlertTimeLayouts(t *testing.T) {
	cases := []string{
		"2025-03-14T09:26:53Z",
		"2025-03-14 09:26:53.000123",
		"2025-03-14 09:26:53",
		"2025-03-14T09:26:53",
		"14-03-2025 09:26:53",
		"14-03-2025 09:26",
		"Fri Mar 14 09:26:53 2025",
		"14-Mar-25 09.26.53.000000 AM",
	}
	for _, value := range cases {
		ts, err := ParseAlertTime(value)
		if err != nil {
			t.Errorf("ParseAlertTime(%q): %v", value, err)
			continue
		}
		if ts.Year() != 2025 || ts.Month() != time.March || ts.Day() != 14 {
			t.Errorf("ParseAlertTime(%q) = %s, wrong date", value, ts)
		}
	}
}

func TestParseAlertTimeRejectsGarbage(t *testing.T) {
	for _, value := range []string{"", "not a time", "2025-13-99"} {
		if _, err := ParseAlertTime(value); err == nil {
			t.Errorf("ParseAlertTime(%q) should fail", value)
		}
	}
}

func TestDurationMinutesOrderInsensitive(t *testing.T) {
	start := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)
	if got := DurationMinutes(start, end); got != 90 {
		t.Errorf("DurationMinutes = %v, want 90", got)
	}
	if got := DurationMinutes(end, start); got != 90 {
		t.Errorf("DurationMinutes reversed = %v, want 90", got)
	}
}
