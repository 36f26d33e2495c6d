package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

// windowFlags selects the date range a run operates on. Presets are mutually
// exclusive with each other and with explicit bounds.
type windowFlags struct {
	since     string
	until     string
	thisWeek  bool
	lastWeek  bool
	thisMonth bool
	lastMonth bool
}

func (f *windowFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.since, "since", "", "Start of the date window (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.until, "until", "", "End of the date window, inclusive (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&f.thisWeek, "this-week", false, "Use the current week (Monday through today)")
	cmd.Flags().BoolVar(&f.lastWeek, "last-week", false, "Use the previous full week")
	cmd.Flags().BoolVar(&f.thisMonth, "this-month", false, "Use the current month up to today")
	cmd.Flags().BoolVar(&f.lastMonth, "last-month", false, "Use the previous full month")
}

// window resolves the flags against the given instant. Returned bounds are
// UTC day boundaries; until covers its whole day.
func (f *windowFlags) window(now time.Time) (time.Time, time.Time, error) {
	presets := 0
	for _, set := range []bool{f.thisWeek, f.lastWeek, f.thisMonth, f.lastMonth} {
		if set {
			presets++
		}
	}
	if presets > 1 {
		return time.Time{}, time.Time{}, errors.New("only one of --this-week, --last-week, --this-month, --last-month may be given")
	}
	if presets == 1 && (f.since != "" || f.until != "") {
		return time.Time{}, time.Time{}, errors.New("--since/--until cannot be combined with a week or month preset")
	}

	today := dayStart(now.UTC())
	switch {
	case f.thisWeek:
		return weekStart(today), dayEnd(today), nil
	case f.lastWeek:
		start := weekStart(today).AddDate(0, 0, -7)
		return start, dayEnd(start.AddDate(0, 0, 6)), nil
	case f.thisMonth:
		return monthStart(today), dayEnd(today), nil
	case f.lastMonth:
		start := monthStart(today).AddDate(0, -1, 0)
		return start, dayEnd(start.AddDate(0, 1, -1)), nil
	}

	var since, until time.Time
	if f.since != "" {
		parsed, err := time.ParseInLocation(dateLayout, f.since, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse --since: %w", err)
		}
		since = parsed
	}
	if f.until != "" {
		parsed, err := time.ParseInLocation(dateLayout, f.until, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse --until: %w", err)
		}
		until = dayEnd(parsed)
	}
	if !since.IsZero() && !until.IsZero() && until.Before(since) {
		return time.Time{}, time.Time{}, errors.New("--until is before --since")
	}
	return since, until, nil
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dayEnd(t time.Time) time.Time {
	return dayStart(t).AddDate(0, 0, 1).Add(-time.Second)
}

func weekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7 // Monday-based
	return day.AddDate(0, 0, -offset)
}

func monthStart(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
}
