package textutil

import "testing"

func TestFormatSeconds(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{42, "42s"},
		{0, "0s"},
		{307, "5m 07s"},
		{7507, "2h 05m 07s"},
		{3600, "1h 00m 00s"},
		{-90, "-1m 30s"},
	}
	for _, tc := range cases {
		if got := FormatSeconds(tc.seconds); got != tc.want {
			t.Errorf("FormatSeconds(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestFormatHours(t *testing.T) {
	cases := []struct {
		hours float64
		want  string
	}{
		{7.6, "7:36"},
		{0.5, "0:30"},
		{1.999, "2:00"},
		{-1.25, "-1:15"},
	}
	for _, tc := range cases {
		if got := FormatHours(tc.hours); got != tc.want {
			t.Errorf("FormatHours(%v) = %q, want %q", tc.hours, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("a longer description", 10); got != "a longer …" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("anything", 0); got != "" {
		t.Errorf("Truncate = %q", got)
	}
}
