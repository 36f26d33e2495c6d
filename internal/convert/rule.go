package convert

import (
	"time"

	"tally/internal/timeentry"
)

// Options carries run-scoped construction settings shared by every rule built
// from a chain.
type Options struct {
	// DatetimeMiddle derives the line date from the midpoint of the entry
	// instead of its start.
	DatetimeMiddle bool
	// NightlyCutoff shifts the date boundary by the given number of hours so
	// work past midnight books on the previous day. Zero disables the shift.
	NightlyCutoff float64
}

// EntryDate resolves the calendar day a line should book on.
func (o Options) EntryDate(e timeentry.Entry) time.Time {
	at := e.Start
	if o.DatetimeMiddle {
		at = e.Mid()
	}
	if o.NightlyCutoff != 0 {
		at = at.Add(-time.Duration(o.NightlyCutoff * float64(time.Hour)))
	}
	return time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
}

// Rule pairs a matcher predicate with a transform. Rules are built per run by
// a Factory so they can capture run-scoped Options.
type Rule struct {
	Name    string
	Match   func(timeentry.Entry) bool
	Convert func(timeentry.Entry) (Line, error)
}

// Factory builds one live rule with the given run options.
type Factory func(Options) Rule

// Simple is the base rule every chain refines: it matches any entry and fills
// the line defaults (date, project by name, description, hours, refs).
func Simple(opts Options) Rule {
	return Rule{
		Name:  "simple",
		Match: func(timeentry.Entry) bool { return true },
		Convert: func(e timeentry.Entry) (Line, error) {
			return Line{
				Date:    opts.EntryDate(e),
				Project: ByName(e.Project.Name),
				Name:    e.Description,
				Hours:   e.Hours(),
				Refs:    NewRefSet(e.ID),
			}, nil
		},
	}
}

// Refine narrows a rule's matcher by conjunction and extends its transform by
// delegation: the refined rule converts through base first, then applies
// override to the result. A nil match or override keeps the base behavior.
func Refine(base Rule, name string, match func(timeentry.Entry) bool, override func(Line, timeentry.Entry) (Line, error)) Rule {
	refined := Rule{Name: name, Match: base.Match, Convert: base.Convert}
	if match != nil {
		baseMatch := base.Match
		refined.Match = func(e timeentry.Entry) bool {
			return baseMatch(e) && match(e)
		}
	}
	if override != nil {
		baseConvert := base.Convert
		refined.Convert = func(e timeentry.Entry) (Line, error) {
			line, err := baseConvert(e)
			if err != nil {
				return Line{}, err
			}
			return override(line, e)
		}
	}
	return refined
}
