package convert_test

import (
	"testing"
	"time"

	"tally/internal/convert"
)

func mergeLine(day int, project, task *convert.Target, name string, hours float64, refs ...int64) convert.Line {
	return convert.Line{
		Date:    time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		Project: project,
		Task:    task,
		Name:    name,
		Hours:   hours,
		Refs:    convert.NewRefSet(refs...),
	}
}

func TestMergeLinesSumsHoursAndUnionsRefs(t *testing.T) {
	lines := []convert.Line{
		mergeLine(2, convert.ByName("Backlog"), nil, "fix", 1.0, 1),
		mergeLine(2, convert.ByName("Backlog"), nil, "fix", 0.5, 2),
	}
	merged := convert.MergeLines(lines, nil)
	if len(merged) != 1 {
		t.Fatalf("expected 1 merged line, got %d", len(merged))
	}
	if merged[0].Hours != 1.5 {
		t.Fatalf("expected summed hours 1.5, got %v", merged[0].Hours)
	}
	if !merged[0].Refs.Equal(convert.NewRefSet(1, 2)) {
		t.Fatalf("expected unioned refs, got %v", merged[0].Refs)
	}
	// Inputs must stay untouched.
	if !lines[0].Refs.Equal(convert.NewRefSet(1)) {
		t.Fatalf("merge mutated its input: %v", lines[0].Refs)
	}
}

func TestMergeLinesIdempotent(t *testing.T) {
	lines := []convert.Line{
		mergeLine(2, convert.ByName("Backlog"), convert.ByID(42), "fix", 1.0, 1, 2),
		mergeLine(3, convert.ByName("Backlog"), nil, "plan", 0.5, 3),
	}
	once := convert.MergeLines(lines, nil)
	twice := convert.MergeLines(once, nil)
	if len(once) != len(twice) {
		t.Fatalf("merge not idempotent: %d vs %d lines", len(once), len(twice))
	}
	for i := range once {
		if once[i].Hours != twice[i].Hours || !once[i].Refs.Equal(twice[i].Refs) {
			t.Fatalf("line %d changed on re-merge: %#v vs %#v", i, once[i], twice[i])
		}
	}
}

func TestMergeLinesBucketOrderIsFirstSeen(t *testing.T) {
	lines := []convert.Line{
		mergeLine(3, convert.ByName("Zeta"), nil, "late", 1.0, 1),
		mergeLine(2, convert.ByName("Alpha"), nil, "early", 1.0, 2),
		mergeLine(3, convert.ByName("Zeta"), nil, "late", 1.0, 3),
	}
	merged := convert.MergeLines(lines, nil)
	if len(merged) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(merged))
	}
	if merged[0].Name != "late" || merged[1].Name != "early" {
		t.Fatalf("buckets not in first-seen order: %q, %q", merged[0].Name, merged[1].Name)
	}
}

func TestMergeLinesDistinguishesTargetKinds(t *testing.T) {
	// Same display semantics, different field shape: id vs name must not merge.
	lines := []convert.Line{
		mergeLine(2, convert.ByID(811), nil, "fix", 1.0, 1),
		mergeLine(2, convert.ByName("811"), nil, "fix", 1.0, 2),
		mergeLine(2, nil, nil, "fix", 1.0, 3),
	}
	merged := convert.MergeLines(lines, nil)
	if len(merged) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(merged))
	}
}

func TestMergeLinesCustomKeys(t *testing.T) {
	lines := []convert.Line{
		mergeLine(2, convert.ByName("Backlog"), nil, "fix", 1.0, 1),
		mergeLine(3, convert.ByName("Backlog"), nil, "plan", 2.0, 2),
	}
	merged := convert.MergeLines(lines, []string{"project"})
	if len(merged) != 1 {
		t.Fatalf("expected 1 bucket when merging by project only, got %d", len(merged))
	}
	if merged[0].Hours != 3.0 {
		t.Fatalf("expected 3.0 hours, got %v", merged[0].Hours)
	}
	if merged[0].Name != "fix" {
		t.Fatalf("bucket should keep first-seen fields, got %q", merged[0].Name)
	}
}
