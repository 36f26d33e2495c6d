package toggl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tally/internal/timeentry"
)

// CatalogItem is one workspace-scoped named object: a client, project or
// tag. ClientID is set only for projects.
type CatalogItem struct {
	ID       int64 `json:"id"`
	Name     string
	ClientID int64 `json:"cid"`
}

// ReportQuery narrows a detailed report request. Zero times and empty id
// slices are omitted from the request.
type ReportQuery struct {
	Since      time.Time
	Until      time.Time
	ClientIDs  []int64
	ProjectIDs []int64
	TagIDs     []int64
}

// Service covers the time-tracker operations the fetch pipeline consumes.
type Service interface {
	Clients(ctx context.Context) ([]CatalogItem, error)
	Projects(ctx context.Context) ([]CatalogItem, error)
	Tags(ctx context.Context) ([]CatalogItem, error)
	DetailedReport(ctx context.Context, query ReportQuery) ([]timeentry.Entry, error)
}

var (
	// ErrAuthentication is returned when the tracker rejects the API token.
	ErrAuthentication = errors.New("toggl authentication failed")
	// ErrUnknownName is returned when a configured client, project or tag
	// name does not exist in the workspace.
	ErrUnknownName = errors.New("unknown toggl name")
)

// ResolveNames maps names to catalog ids, case-sensitively, preserving input
// order. Every name must resolve.
func ResolveNames(items []CatalogItem, kind string, names []string) ([]int64, error) {
	if len(names) == 0 {
		return nil, nil
	}
	byName := make(map[string]int64, len(items))
	for _, item := range items {
		byName[item.Name] = item.ID
	}
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		id, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s %q", ErrUnknownName, kind, name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
