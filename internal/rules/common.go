package rules

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"

	"tally/internal/convert"
	"tally/internal/timeentry"
)

const (
	clientOdoo     = "Odoo"
	nonBillableTag = "non-billable"
)

var (
	// ErrExtract is returned when a rule requires the structured "[id]" or
	// "[id: short]" description prefix and the description lacks it. Always a
	// hard conversion error, never a non-match.
	ErrExtract = errors.New("cannot extract task from description")
	// ErrNonBillable is returned when a billable-only transform is invoked on
	// a non-billable entry.
	ErrNonBillable = errors.New("converting non-billable entries is forbidden")
)

var taskPattern = regexp.MustCompile(`^\[(?P<id>\d+)(?::\s*(?P<short>.*?))?\]\s*(?P<rest>.*)`)

// ExtractTask splits a description of the form "[id] rest" or
// "[id: short] rest" into its parts.
func ExtractTask(e timeentry.Entry) (id int64, short string, rest string, err error) {
	match := taskPattern.FindStringSubmatch(e.Description)
	if match == nil {
		return 0, "", "", fmt.Errorf("%w: entry %d (%q)", ErrExtract, e.ID, e.Description)
	}
	id, err = strconv.ParseInt(match[taskPattern.SubexpIndex("id")], 10, 64)
	if err != nil {
		return 0, "", "", fmt.Errorf("%w: entry %d: %v", ErrExtract, e.ID, err)
	}
	return id, match[taskPattern.SubexpIndex("short")], match[taskPattern.SubexpIndex("rest")], nil
}

// Register installs the built-in conversion chains into the registry.
func Register(reg *convert.Registry) error {
	if err := registerOdoo(reg); err != nil {
		return err
	}
	return registerOwndb(reg)
}

func matchClient(name string) func(timeentry.Entry) bool {
	return func(e timeentry.Entry) bool {
		return e.Project.Client.Name == name
	}
}

func matchProject(names ...string) func(timeentry.Entry) bool {
	return func(e timeentry.Entry) bool {
		return slices.Contains(names, e.Project.Name)
	}
}
