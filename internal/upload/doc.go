// Package upload pushes converted timesheet lines to the remote backend.
//
// The reconciler consults the ledger before every create so that re-running
// an upload is safe: lines whose source refs were already uploaded are
// skipped, partial overlaps either abort the run or replace the stored
// records when overwriting is enabled, and every successful create is
// recorded durably before the next line starts. A failing line aborts the
// whole run; completed lines stay recorded, so a retry picks up where the
// run stopped.
package upload
