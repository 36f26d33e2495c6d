package upload

import "errors"

var (
	// ErrConstraint signals a structural contradiction found during
	// reconciliation: a line without refs, a missing project or task, a task
	// whose project disagrees with the line's, or disallowed task creation.
	ErrConstraint = errors.New("upload constraint violated")
	// ErrMissingRecord means a remote name lookup matched nothing.
	ErrMissingRecord = errors.New("no matching remote record")
	// ErrTooManyRecords means a remote name lookup was ambiguous.
	ErrTooManyRecords = errors.New("more than one matching remote record")
	// ErrHistoryConflict means the ledger's stored identities overlap but do
	// not equal the incoming line's. Fatal for the whole run; compounding an
	// inconsistent ledger is never recoverable per record.
	ErrHistoryConflict = errors.New("ledger history conflicts with current batch")
)
