package rules

import (
	"fmt"

	"tally/internal/convert"
	"tally/internal/timeentry"
)

// billableBase refuses non-billable entries outright: the matcher rejects
// them so lower-priority rules never see them as matches, and the transform
// hard-fails in case it is ever invoked directly.
func billableBase(opts convert.Options) convert.Rule {
	return convert.Refine(convert.Simple(opts), "billable",
		func(e timeentry.Entry) bool { return !e.HasTag(nonBillableTag) },
		func(line convert.Line, e timeentry.Entry) (convert.Line, error) {
			if e.HasTag(nonBillableTag) {
				return convert.Line{}, fmt.Errorf("%w: entry %d", ErrNonBillable, e.ID)
			}
			return line, nil
		})
}

func odooBillableBase(opts convert.Options) convert.Rule {
	return convert.Refine(billableBase(opts), "odoo", matchClient(clientOdoo), nil)
}

// registerOdoo installs the billable "odoo" chain targeting the company
// timesheet database.
func registerOdoo(reg *convert.Registry) error {
	chain, err := reg.NewChain("odoo")
	if err != nil {
		return err
	}

	register := func(priority float64, name string, match func(timeentry.Entry) bool, override func(convert.Line, timeentry.Entry) (convert.Line, error)) error {
		return chain.Register(priority, func(opts convert.Options) convert.Rule {
			return convert.Refine(odooBillableBase(opts), name, match, override)
		})
	}

	if err := register(110, "onboarding", matchProject("Odoo-onboarding"),
		func(line convert.Line, e timeentry.Entry) (convert.Line, error) {
			line.Project = convert.ByName("(PS) INT. TRAINING")
			line.Task = convert.ByName("Training ABT")
			line.Name = "[functional][onboarding] - " + e.Description
			return line, nil
		}); err != nil {
		return err
	}

	if err := register(120, "training", matchProject("Odoo-training"),
		func(line convert.Line, e timeentry.Entry) (convert.Line, error) {
			line.Project = convert.ByID(811) // "(PS) INT. TRAINING"
			line.Task = convert.ByName("Training ABT")
			line.Name = "[technical] " + e.Description
			return line, nil
		}); err != nil {
		return err
	}

	if err := register(180, "owndb", matchProject("Odoo-owndb"),
		func(line convert.Line, e timeentry.Entry) (convert.Line, error) {
			line.Project = convert.ByName("(PS) INT. TRAINING")
			line.Task = convert.ByName("Training ABT")
			line.Name = "[technical+functional] owndb: " + e.Description
			return line, nil
		}); err != nil {
		return err
	}

	if err := register(210, "misc", matchProject("Odoo-misc"),
		func(line convert.Line, _ timeentry.Entry) (convert.Line, error) {
			line.Project = convert.ByID(821)
			line.Task = convert.ByName("(PS) MISC")
			return line, nil
		}); err != nil {
		return err
	}

	if err := register(410, "improvement", matchProject("Odoo-improvement"),
		func(line convert.Line, e timeentry.Entry) (convert.Line, error) {
			taskID, _, rest, err := ExtractTask(e)
			if err != nil {
				return convert.Line{}, err
			}
			line.Project = convert.ByName("(PS) INT. IMPROVEMENT")
			line.Task = convert.ByID(taskID)
			line.Name = rest
			return line, nil
		}); err != nil {
		return err
	}

	if err := register(510, "coaching", matchProject("Odoo-coaching"),
		func(line convert.Line, _ timeentry.Entry) (convert.Line, error) {
			line.Project = convert.ByName("(PS) COACHING")
			line.Task = convert.ByID(2508170)
			return line, nil
		}); err != nil {
		return err
	}

	if err := register(610, "review", matchProject("Odoo-review"),
		func(line convert.Line, _ timeentry.Entry) (convert.Line, error) {
			line.Project = convert.ByName("(PS) COACHING")
			line.Task = convert.ByName("Code Review/PR Review")
			return line, nil
		}); err != nil {
		return err
	}

	// Task-style entries book directly on the task extracted from the
	// description; the project is derived remotely from the task.
	return register(810, "task", matchProject("Odoo-psbe", "Odoo-maintenance"),
		func(line convert.Line, e timeentry.Entry) (convert.Line, error) {
			taskID, _, rest, err := ExtractTask(e)
			if err != nil {
				return convert.Line{}, err
			}
			line.Project = nil
			line.Task = convert.ByID(taskID)
			line.Name = rest
			return line, nil
		})
}
