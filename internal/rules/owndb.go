package rules

import (
	"fmt"
	"strconv"

	"tally/internal/convert"
	"tally/internal/timeentry"
)

// odooOwndbBase books lines on the per-year bookkeeping project of the
// internal record store. Non-billable entries are accepted here; a dedicated
// terminal rule labels them.
func odooOwndbBase(opts convert.Options) convert.Rule {
	return convert.Refine(convert.Simple(opts), "odoo", matchClient(clientOdoo),
		func(line convert.Line, _ timeentry.Entry) (convert.Line, error) {
			line.Project = convert.ByName("Odoo " + strconv.Itoa(line.Date.Year()))
			return line, nil
		})
}

// registerOwndb installs the "owndb" chain targeting the internal record
// store.
func registerOwndb(reg *convert.Registry) error {
	chain, err := reg.NewChain("owndb")
	if err != nil {
		return err
	}

	register := func(priority float64, name string, match func(timeentry.Entry) bool, override func(convert.Line, timeentry.Entry) (convert.Line, error)) error {
		return chain.Register(priority, func(opts convert.Options) convert.Rule {
			return convert.Refine(odooOwndbBase(opts), name, match, override)
		})
	}

	taskNamed := func(task string) func(convert.Line, timeentry.Entry) (convert.Line, error) {
		return func(line convert.Line, _ timeentry.Entry) (convert.Line, error) {
			line.Task = convert.ByName(task)
			return line, nil
		}
	}

	if err := register(110, "onboarding", matchProject("Odoo-onboarding"),
		func(line convert.Line, e timeentry.Entry) (convert.Line, error) {
			line.Task = convert.ByName("Training (functional)")
			line.Name = "[onboarding] " + e.Description
			return line, nil
		}); err != nil {
		return err
	}
	if err := register(120, "training", matchProject("Odoo-training"), taskNamed("Training (technical)")); err != nil {
		return err
	}
	if err := register(180, "owndb", matchProject("Odoo-owndb"), taskNamed("Training (owndb)")); err != nil {
		return err
	}
	if err := register(210, "misc", matchProject("Odoo-misc"), taskNamed("Miscellaneous")); err != nil {
		return err
	}
	if err := register(410, "improvement", matchProject("Odoo-improvement"), taskNamed("Int. Improvement")); err != nil {
		return err
	}
	if err := register(510, "coaching", matchProject("Odoo-coaching"), taskNamed("Coaching")); err != nil {
		return err
	}
	if err := register(610, "review", matchProject("Odoo-review"), taskNamed("Code Review")); err != nil {
		return err
	}
	if err := register(810, "task", matchProject("Odoo-psbe", "Odoo-maintenance"),
		func(line convert.Line, e timeentry.Entry) (convert.Line, error) {
			taskID, short, rest, err := ExtractTask(e)
			if err != nil {
				return convert.Line{}, err
			}
			task := fmt.Sprintf("[%d]", taskID)
			if short != "" {
				task += " " + short
			}
			line.Task = convert.ByName(task)
			line.Name = rest
			return line, nil
		}); err != nil {
		return err
	}

	// Non-billable entries take precedence over the project rules so internal
	// bookkeeping still accounts for that time, explicitly labeled.
	return register(9999, "non-billable",
		func(e timeentry.Entry) bool { return e.HasTag(nonBillableTag) },
		taskNamed("Non-billable"))
}
