package timeentry

import (
	"slices"
	"time"
)

// Client is the customer a project belongs to.
type Client struct {
	ID   int64
	Name string
}

// Project is the tracked project an entry was booked on.
type Project struct {
	ID     int64
	Name   string
	Client Client
}

// Entry is one raw time-tracking record fetched from the upstream tracker.
// Start and Stop are authoritative; Duration is derived from them so that
// boundary adjustments (snapping) stay consistent.
type Entry struct {
	ID          int64
	Description string
	Start       time.Time
	Stop        time.Time
	Project     Project
	Tags        []string
}

// Duration returns the tracked duration.
func (e Entry) Duration() time.Duration {
	return e.Stop.Sub(e.Start)
}

// Seconds returns the tracked duration in seconds.
func (e Entry) Seconds() float64 {
	return e.Duration().Seconds()
}

// Hours returns the tracked duration in decimal hours.
func (e Entry) Hours() float64 {
	return e.Seconds() / 3600
}

// Mid returns the instant halfway between start and stop.
func (e Entry) Mid() time.Time {
	return e.Start.Add(e.Duration() / 2)
}

// HasTag reports whether the entry carries the named tag.
func (e Entry) HasTag(name string) bool {
	return slices.Contains(e.Tags, name)
}
