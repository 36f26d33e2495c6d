// Package toggl talks to the upstream time tracker: workspace catalogs
// (clients, projects, tags) and the paged detailed report that yields raw
// time entries.
package toggl
