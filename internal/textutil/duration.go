// Package textutil provides small text formatting helpers shared by log
// output and CLI summaries.
package textutil

import (
	"fmt"
	"math"
	"strings"
)

// FormatSeconds renders a duration in seconds as a compact timer string:
// "42s", "5m 07s", "2h 05m 07s". Negative durations keep a leading minus.
func FormatSeconds(seconds float64) string {
	var sign string
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	h := int(seconds) / 3600
	m := (int(seconds) / 60) % 60
	s := math.Mod(seconds, 60)
	switch {
	case seconds >= 3600:
		return fmt.Sprintf("%s%dh %02dm %02.0fs", sign, h, m, s)
	case seconds >= 60:
		return fmt.Sprintf("%s%dm %02.0fs", sign, m, s)
	default:
		return fmt.Sprintf("%s%.0fs", sign, s)
	}
}

// FormatHours renders decimal hours as "H:MM" clock notation.
func FormatHours(hours float64) string {
	var sign string
	if hours < 0 {
		sign = "-"
		hours = -hours
	}
	whole := int(hours)
	minutes := int(math.Round((hours - float64(whole)) * 60))
	if minutes == 60 {
		whole++
		minutes = 0
	}
	return fmt.Sprintf("%s%d:%02d", sign, whole, minutes)
}

// Truncate shortens s to at most max runes, appending an ellipsis when cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= max {
		return string(runes)
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
