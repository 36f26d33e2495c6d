package rules_test

import (
	"errors"
	"testing"
	"time"

	"tally/internal/convert"
	"tally/internal/rules"
	"tally/internal/timeentry"
)

func odooEntry(id int64, project, description string, tags ...string) timeentry.Entry {
	start := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	return timeentry.Entry{
		ID:          id,
		Description: description,
		Start:       start,
		Stop:        start.Add(time.Hour),
		Project: timeentry.Project{
			ID:     51,
			Name:   project,
			Client: timeentry.Client{ID: 3, Name: "Odoo"},
		},
		Tags: tags,
	}
}

func newRegistry(t *testing.T) *convert.Registry {
	t.Helper()
	reg := convert.NewRegistry(nil)
	if err := rules.Register(reg); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return reg
}

func convertOne(t *testing.T, reg *convert.Registry, chainName string, e timeentry.Entry) convert.Line {
	t.Helper()
	chain, err := reg.Chain(chainName)
	if err != nil {
		t.Fatalf("Chain failed: %v", err)
	}
	lines, err := chain.Convert([]timeentry.Entry{e}, convert.ConvertOptions{MustMatch: true})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	return lines[0]
}

func TestExtractTask(t *testing.T) {
	cases := []struct {
		description string
		id          int64
		short       string
		rest        string
		wantErr     bool
	}{
		{"[42: setup] fix bug", 42, "setup", "fix bug", false},
		{"[42] fix bug", 42, "", "fix bug", false},
		{"[42]", 42, "", "", false},
		{"fix bug", 0, "", "", true},
		{"[abc] fix bug", 0, "", "", true},
	}
	for _, tc := range cases {
		id, short, rest, err := rules.ExtractTask(timeentry.Entry{ID: 1, Description: tc.description})
		if tc.wantErr {
			if !errors.Is(err, rules.ErrExtract) {
				t.Errorf("%q: expected ErrExtract, got %v", tc.description, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: ExtractTask failed: %v", tc.description, err)
			continue
		}
		if id != tc.id || short != tc.short || rest != tc.rest {
			t.Errorf("%q: got (%d, %q, %q), want (%d, %q, %q)",
				tc.description, id, short, rest, tc.id, tc.short, tc.rest)
		}
	}
}

func TestOdooTaskRule(t *testing.T) {
	reg := newRegistry(t)
	line := convertOne(t, reg, "odoo", odooEntry(1, "Odoo-psbe", "[42: setup] fix bug"))

	if line.Project != nil {
		t.Fatalf("task rule must drop the project, got %v", line.Project)
	}
	if !line.Task.IsID() || line.Task.ID != 42 {
		t.Fatalf("expected task #42, got %v", line.Task)
	}
	if line.Name != "fix bug" {
		t.Fatalf("unexpected name: %q", line.Name)
	}
	if line.Hours != 1.0 {
		t.Fatalf("unexpected hours: %v", line.Hours)
	}
	if !line.Refs.Equal(convert.NewRefSet(1)) {
		t.Fatalf("unexpected refs: %v", line.Refs)
	}
	if !line.Date.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date: %v", line.Date)
	}
}

func TestOdooTaskRuleRequiresExtractableDescription(t *testing.T) {
	reg := newRegistry(t)
	chain, err := reg.Chain("odoo")
	if err != nil {
		t.Fatalf("Chain failed: %v", err)
	}
	// A matching rule with a malformed description is a hard error, not a
	// fall-through to lower priorities.
	_, err = chain.Convert([]timeentry.Entry{odooEntry(1, "Odoo-psbe", "fix bug")}, convert.ConvertOptions{})
	if !errors.Is(err, rules.ErrExtract) {
		t.Fatalf("expected ErrExtract, got %v", err)
	}
}

func TestOdooChainRejectsNonBillable(t *testing.T) {
	reg := newRegistry(t)
	chain, err := reg.Chain("odoo")
	if err != nil {
		t.Fatalf("Chain failed: %v", err)
	}
	entry := odooEntry(1, "Odoo-psbe", "[42: setup] fix bug", "non-billable")
	_, err = chain.Convert([]timeentry.Entry{entry}, convert.ConvertOptions{MustMatch: true})
	if !errors.Is(err, convert.ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch for non-billable entry, got %v", err)
	}
}

func TestOwndbChainLabelsNonBillable(t *testing.T) {
	reg := newRegistry(t)
	line := convertOne(t, reg, "owndb", odooEntry(1, "Odoo-psbe", "[42] fix bug", "non-billable"))

	if line.Task.String() != "Non-billable" {
		t.Fatalf("expected non-billable task label, got %v", line.Task)
	}
	if line.Project.String() != "Odoo 2024" {
		t.Fatalf("expected per-year project, got %v", line.Project)
	}
}

func TestOwndbTaskRuleFormatsTaskName(t *testing.T) {
	reg := newRegistry(t)
	cases := []struct {
		description string
		task        string
		name        string
	}{
		{"[42: setup] fix bug", "[42] setup", "fix bug"},
		{"[42] fix bug", "[42]", "fix bug"},
	}
	for _, tc := range cases {
		line := convertOne(t, reg, "owndb", odooEntry(1, "Odoo-psbe", tc.description))
		if line.Task.String() != tc.task {
			t.Errorf("%q: expected task %q, got %v", tc.description, tc.task, line.Task)
		}
		if line.Name != tc.name {
			t.Errorf("%q: expected name %q, got %q", tc.description, tc.name, line.Name)
		}
	}
}

func TestOdooChainProjectRules(t *testing.T) {
	reg := newRegistry(t)
	cases := []struct {
		project     string
		wantName    string
		wantProject string
		wantTask    string
	}{
		{"Odoo-onboarding", "[functional][onboarding] - work", "(PS) INT. TRAINING", "Training ABT"},
		{"Odoo-training", "[technical] work", "#811", "Training ABT"},
		{"Odoo-owndb", "[technical+functional] owndb: work", "(PS) INT. TRAINING", "Training ABT"},
		{"Odoo-misc", "work", "#821", "(PS) MISC"},
		{"Odoo-coaching", "work", "(PS) COACHING", "#2508170"},
		{"Odoo-review", "work", "(PS) COACHING", "Code Review/PR Review"},
	}
	for _, tc := range cases {
		line := convertOne(t, reg, "odoo", odooEntry(1, tc.project, "work"))
		if line.Name != tc.wantName {
			t.Errorf("%s: expected name %q, got %q", tc.project, tc.wantName, line.Name)
		}
		if line.Project.String() != tc.wantProject {
			t.Errorf("%s: expected project %q, got %q", tc.project, tc.wantProject, line.Project.String())
		}
		if line.Task.String() != tc.wantTask {
			t.Errorf("%s: expected task %q, got %q", tc.project, tc.wantTask, line.Task.String())
		}
	}
}

func TestOtherClientFallsThrough(t *testing.T) {
	reg := newRegistry(t)
	chain, err := reg.Chain("odoo")
	if err != nil {
		t.Fatalf("Chain failed: %v", err)
	}
	entry := odooEntry(1, "Internal", "work")
	entry.Project.Client.Name = "SomeoneElse"
	_, err = chain.Convert([]timeentry.Entry{entry}, convert.ConvertOptions{MustMatch: true})
	if !errors.Is(err, convert.ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch for other client, got %v", err)
	}
}
