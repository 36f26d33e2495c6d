// Package timeentry defines the raw time-tracking record model consumed by
// the conversion chains and the processing pipeline.
package timeentry
