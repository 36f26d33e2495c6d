// Package convert implements the priority-ordered conversion-chain engine
// that resolves raw time entries into timesheet lines.
//
// A Chain holds rule factories keyed by priority. Building a chain
// instantiates one rule per factory with shared run options; conversion tries
// rules highest priority first and the first matcher that accepts an entry
// produces the line. Rules are composed by delegation: Refine narrows a base
// rule's matcher by conjunction and post-processes its transform result, so
// specificity is expressed purely through priorities rather than a conflict
// solver.
//
// MergeLines optionally aggregates converted lines that share a key tuple,
// summing hours and unioning source-record identities.
package convert
