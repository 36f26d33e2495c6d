// Package logging builds the application's slog loggers: a human-oriented
// console handler and a machine-oriented JSON handler, selected and leveled
// through configuration. Records can be tagged with a per-invocation run id
// for correlation.
package logging
