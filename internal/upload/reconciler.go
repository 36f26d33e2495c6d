package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tally/internal/convert"
	"tally/internal/ledger"
	"tally/internal/odoo"
)

// Remote model names used by the reconciler.
const (
	ModelTimesheet = "account.analytic.line"
	ModelProject   = "project.project"
	ModelTask      = "project.task"
)

// dryRunID is the synthetic id handed downstream when a remote create is
// suppressed by dry-run mode.
const dryRunID int64 = -1

// Fields are requested explicitly: it keeps the payloads small and avoids the
// backend's HTML field serialization quirks.
var (
	projectFields = []string{"id", "name"}
	taskFields    = []string{"id", "name", "project_id"}
)

// Options controls one reconciliation run.
type Options struct {
	// AllowTaskCreation permits creating a missing task when it was
	// referenced by name.
	AllowTaskCreation bool
	// DryRun suppresses every remote mutation and every ledger write while
	// still exercising resolution.
	DryRun bool
	// OverwriteConflicts deletes conflicting remote records instead of
	// aborting on partial ledger overlap.
	OverwriteConflicts bool
}

// Status is the terminal state of one line.
type Status string

const (
	StatusCreated Status = "created"
	StatusSkipped Status = "skipped"
)

// Summary aggregates the terminal states of a run.
type Summary struct {
	Created int
	Skipped int
}

type cacheKey struct {
	model string
	key   string
}

// Reconciler uploads converted lines to the remote backend, consulting the
// ledger to keep re-runs idempotent.
type Reconciler struct {
	client odoo.Client
	ledger *ledger.Ledger
	logger *slog.Logger
	opts   Options

	// Run-scoped memoization of (model, name-or-id) resolution. Safe because
	// a run holds exclusive short-lived access to the remote store.
	cache map[cacheKey]odoo.Record
}

// New constructs a reconciler. The ledger may be nil, in which case every
// line uploads unconditionally.
func New(client odoo.Client, led *ledger.Ledger, logger *slog.Logger, opts Options) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		client: client,
		ledger: led,
		logger: logger,
		opts:   opts,
		cache:  make(map[cacheKey]odoo.Record),
	}
}

// Upload processes lines strictly in order, one at a time. The first failing
// line aborts the run: records created before the failure stay both remotely
// and in the ledger, so a retry resolves them as already uploaded.
func (r *Reconciler) Upload(ctx context.Context, lines []convert.Line) (Summary, error) {
	var summary Summary
	for _, line := range lines {
		status, err := r.uploadLine(ctx, line)
		if err != nil {
			return summary, fmt.Errorf("upload line %q (%s, %.2fh, refs %v): %w",
				line.Name, line.Date.Format("2006-01-02"), line.Hours, line.Refs.Sorted(), err)
		}
		switch status {
		case StatusCreated:
			summary.Created++
		case StatusSkipped:
			summary.Skipped++
		}
	}
	return summary, nil
}

func (r *Reconciler) uploadLine(ctx context.Context, line convert.Line) (Status, error) {
	if r.ledger != nil {
		status, done, err := r.reconcileHistory(ctx, line)
		if err != nil || done {
			return status, err
		}
	}

	project, task, newTask, err := r.resolve(ctx, line)
	if err != nil {
		return "", err
	}

	projectID, _ := project.ID()
	if newTask {
		task, err = r.createTask(ctx, line.Task.Name, projectID)
		if err != nil {
			return "", err
		}
	}
	taskID, _ := task.ID()

	_, err = r.createRecord(ctx, ModelTimesheet, odoo.Record{
		"date":        line.Date.Format("2006-01-02"),
		"project_id":  projectID,
		"task_id":     taskID,
		"name":        line.Name,
		"unit_amount": line.Hours,
	}, line.Refs)
	if err != nil {
		return "", err
	}
	return StatusCreated, nil
}

// reconcileHistory classifies a line against the ledger. done reports that
// the line reached a terminal state without uploading.
func (r *Reconciler) reconcileHistory(ctx context.Context, line convert.Line) (Status, bool, error) {
	if len(line.Refs) == 0 {
		return "", false, fmt.Errorf("%w: line has no source refs", ErrConstraint)
	}
	stored, err := r.ledger.MatchRefs(ctx, ModelTimesheet, line.Refs)
	if err != nil {
		return "", false, err
	}
	switch {
	case len(stored) == 0:
		return "", false, nil
	case stored.Equal(line.Refs):
		r.logger.Debug("line already uploaded, skipping", "refs", line.Refs.Sorted())
		return StatusSkipped, true, nil
	case r.opts.OverwriteConflicts:
		conflictIDs, err := r.ledger.RemoteIDs(ctx, ModelTimesheet, stored)
		if err != nil {
			return "", false, err
		}
		if r.opts.DryRun {
			r.logger.Warn("dry-run: would delete conflicting records",
				"model", ModelTimesheet, "ids", conflictIDs)
			return "", false, nil
		}
		r.logger.Warn("deleting conflicting records", "model", ModelTimesheet, "ids", conflictIDs)
		ok, err := r.client.Unlink(ctx, ModelTimesheet, conflictIDs)
		if err != nil {
			return "", false, err
		}
		if !ok {
			return "", false, fmt.Errorf("failed deleting %s records %v", ModelTimesheet, conflictIDs)
		}
		if err := r.ledger.Remove(ctx, ModelTimesheet, conflictIDs); err != nil {
			return "", false, err
		}
		return "", false, nil
	default:
		return "", false, fmt.Errorf("%w: stored=%v current=%v",
			ErrHistoryConflict, stored.Sorted(), line.Refs.Sorted())
	}
}

// resolve maps the line's project and task references to remote records and
// cross-checks them. newTask reports that the task must be created under the
// resolved project.
func (r *Reconciler) resolve(ctx context.Context, line convert.Line) (project, task odoo.Record, newTask bool, err error) {
	if line.Project != nil {
		project, err = r.findOne(ctx, ModelProject, line.Project, projectFields)
		if err != nil {
			return nil, nil, false, err
		}
	}

	if line.Task != nil {
		task, err = r.findOne(ctx, ModelTask, line.Task, taskFields)
		switch {
		case errors.Is(err, ErrMissingRecord):
			if line.Task.IsID() {
				return nil, nil, false, fmt.Errorf("%w: task %s not found and reference is not a name", ErrConstraint, line.Task)
			}
			if !r.opts.AllowTaskCreation {
				return nil, nil, false, fmt.Errorf("%w: task %q not found and task creation is not enabled", ErrConstraint, line.Task.Name)
			}
			task, newTask = nil, true
		case err != nil:
			return nil, nil, false, err
		}
	}

	if project == nil {
		if newTask {
			return nil, nil, false, fmt.Errorf("%w: cannot create a task without a project", ErrConstraint)
		}
		if task == nil {
			return nil, nil, false, fmt.Errorf("%w: line has neither project nor task", ErrConstraint)
		}
		projectID, _, ok := task.Many2One("project_id")
		if !ok {
			return nil, nil, false, fmt.Errorf("%w: task %s has no project to derive", ErrConstraint, line.Task)
		}
		project, err = r.findOne(ctx, ModelProject, convert.ByID(projectID), projectFields)
		if err != nil {
			return nil, nil, false, err
		}
	} else if task != nil {
		projectID, _ := project.ID()
		taskProjectID, _, ok := task.Many2One("project_id")
		if !ok || taskProjectID != projectID {
			return nil, nil, false, fmt.Errorf("%w: task %s belongs to project %d, line specifies %d",
				ErrConstraint, line.Task, taskProjectID, projectID)
		}
	}

	if task == nil && !newTask {
		return nil, nil, false, fmt.Errorf("%w: line has no task", ErrConstraint)
	}
	return project, task, newTask, nil
}

func (r *Reconciler) createTask(ctx context.Context, name string, projectID int64) (odoo.Record, error) {
	values := odoo.Record{"name": name, "project_id": projectID}
	newID, err := r.createRecord(ctx, ModelTask, values, nil)
	if err != nil {
		return nil, err
	}
	if r.opts.DryRun && newID == dryRunID {
		// Synthetic placeholder so downstream steps can proceed.
		placeholder := odoo.Record{"id": dryRunID}
		for field, value := range values {
			placeholder[field] = value
		}
		return placeholder, nil
	}
	return r.readOne(ctx, ModelTask, newID, taskFields)
}

// createRecord performs the remote create and records the new id in the
// ledger under the given refs, durably, before returning. Dry-run reports
// the intended action and returns the sentinel id without touching anything.
func (r *Reconciler) createRecord(ctx context.Context, model string, values odoo.Record, refs convert.RefSet) (int64, error) {
	if r.opts.DryRun {
		r.logger.Info("dry-run: would create record", "model", model, "values", fmt.Sprintf("%v", values))
		return dryRunID, nil
	}
	newID, err := r.client.Create(ctx, model, values)
	if err != nil {
		return 0, err
	}
	r.logger.Info("created record", "model", model, "id", newID)
	if r.ledger != nil && len(refs) > 0 {
		if err := r.ledger.Record(ctx, model, newID, refs); err != nil {
			return 0, err
		}
	}
	return newID, nil
}

// findOne resolves a name-or-id target to exactly one remote record,
// memoized per (model, target) for the run.
func (r *Reconciler) findOne(ctx context.Context, model string, target *convert.Target, fields []string) (odoo.Record, error) {
	key := cacheKey{model: model, key: target.String()}
	if record, ok := r.cache[key]; ok {
		return record, nil
	}

	id := target.ID
	if !target.IsID() {
		pairs, err := r.client.NameSearch(ctx, model, target.Name, 10)
		if err != nil {
			return nil, err
		}
		pair, err := ensureOne(pairs, model, "name", target.Name)
		if err != nil {
			return nil, err
		}
		id = pair.ID
	}

	record, err := r.readOne(ctx, model, id, fields)
	if err != nil {
		return nil, err
	}
	r.cache[key] = record
	return record, nil
}

func (r *Reconciler) readOne(ctx context.Context, model string, id int64, fields []string) (odoo.Record, error) {
	records, err := r.client.Read(ctx, model, []int64{id}, fields)
	if err != nil {
		return nil, err
	}
	return ensureOne(records, model, "id", id)
}

func ensureOne[T any](results []T, model, field string, value any) (T, error) {
	var zero T
	if len(results) == 0 {
		return zero, fmt.Errorf("%w: %s with %s=%v", ErrMissingRecord, model, field, value)
	}
	if len(results) > 1 {
		return zero, fmt.Errorf("%w: %s with %s=%v", ErrTooManyRecords, model, field, value)
	}
	return results[0], nil
}
