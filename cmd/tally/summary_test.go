package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteDurationSummary(t *testing.T) {
	tests := []struct {
		name            string
		count           int
		totalHours      float64
		hoursPerWorkday float64
		want            []string
		wantAbsent      []string
	}{
		{
			name:            "partial workday",
			count:           4,
			totalHours:      10,
			hoursPerWorkday: 7.6,
			want:            []string{"4 entries", "10:00 total", "1.32 workdays", "7:36 per day", "5:12 short of 2"},
		},
		{
			name:            "whole workdays",
			count:           3,
			totalHours:      15.2,
			hoursPerWorkday: 7.6,
			want:            []string{"3 entries", "15:12 total", "2.00 workdays"},
			wantAbsent:      []string{"short of"},
		},
		{
			name:       "workday arithmetic disabled",
			count:      1,
			totalHours: 2.5,
			want:       []string{"1 entries", "2:30 total"},
			wantAbsent: []string{"workdays"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			writeDurationSummary(&buf, "entries", tt.count, tt.totalHours, tt.hoursPerWorkday)
			out := buf.String()
			for _, substr := range tt.want {
				if !strings.Contains(out, substr) {
					t.Errorf("output %q missing %q", out, substr)
				}
			}
			for _, substr := range tt.wantAbsent {
				if strings.Contains(out, substr) {
					t.Errorf("output %q unexpectedly contains %q", out, substr)
				}
			}
		})
	}
}
