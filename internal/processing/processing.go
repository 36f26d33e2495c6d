// Package processing applies local post-fetch passes to raw time entries:
// boundary snapping, name-based filtering, and chronological ordering.
package processing

import (
	"log/slog"
	"math"
	"slices"
	"sort"
	"time"

	"tally/internal/textutil"
	"tally/internal/timeentry"
)

// FilterOptions narrows a fetched entry set by name. Empty slices leave the
// corresponding dimension unfiltered.
type FilterOptions struct {
	// Clients keeps only entries whose project belongs to one of the named
	// clients.
	Clients []string
	// Projects keeps only entries booked on one of the named projects.
	Projects []string
	// ProjectsExclude drops entries booked on one of the named projects.
	ProjectsExclude []string
	// TagsExclude drops entries carrying any of the named tags.
	TagsExclude []string
}

// Filter returns the entries passing every configured predicate, preserving
// input order.
func Filter(entries []timeentry.Entry, opts FilterOptions) []timeentry.Entry {
	out := make([]timeentry.Entry, 0, len(entries))
	for _, entry := range entries {
		if keep(entry, opts) {
			out = append(out, entry)
		}
	}
	return out
}

func keep(entry timeentry.Entry, opts FilterOptions) bool {
	if len(opts.Clients) > 0 && !slices.Contains(opts.Clients, entry.Project.Client.Name) {
		return false
	}
	if len(opts.Projects) > 0 && !slices.Contains(opts.Projects, entry.Project.Name) {
		return false
	}
	if slices.Contains(opts.ProjectsExclude, entry.Project.Name) {
		return false
	}
	for _, tag := range opts.TagsExclude {
		if entry.HasTag(tag) {
			return false
		}
	}
	return true
}

// SortByStart orders entries chronologically in place.
func SortByStart(entries []timeentry.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Start.Before(entries[j].Start)
	})
}

type midIndex struct {
	mid float64
	idx int
}

// Snap closes small gaps between consecutive entries by moving both
// boundary times to meet halfway. A pair qualifies when the later entry (by
// midpoint) starts within window seconds of the earlier entry's stop; each
// stop boundary snaps only to its single closest candidate. Entries are
// adjusted in place. Returns the total gap time absorbed, in seconds.
func Snap(entries []timeentry.Entry, window float64, logger *slog.Logger) float64 {
	if window <= 0 || len(entries) < 2 {
		return 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	windowID := func(t time.Time) int64 {
		return int64(float64(t.UnixNano()) / 1e9 / window)
	}

	order := make([]midIndex, len(entries))
	for i, entry := range entries {
		order[i] = midIndex{mid: float64(entry.Mid().UnixNano()) / 1e9, idx: i}
	}
	sort.Slice(order, func(i, j int) bool { return order[i].mid < order[j].mid })

	// Bucket start times by window so candidate lookup stays local.
	startWindows := make(map[int64][]midIndex)
	for _, mi := range order {
		id := windowID(entries[mi.idx].Start)
		startWindows[id] = append(startWindows[id], mi)
	}

	var snapped float64
	for _, mi := range order {
		entry := &entries[mi.idx]
		stopWindow := windowID(entry.Stop)

		var best *midIndex
		var bestDelta float64
		for w := stopWindow - 1; w <= stopWindow+1; w++ {
			for _, cand := range startWindows[w] {
				if cand.idx == mi.idx || cand.mid < mi.mid {
					continue
				}
				delta := entries[cand.idx].Start.Sub(entry.Stop).Seconds()
				if math.Abs(delta) > window {
					continue
				}
				if best == nil || math.Abs(delta) < math.Abs(bestDelta) {
					c := cand
					best, bestDelta = &c, delta
				}
			}
		}
		if best == nil {
			continue
		}
		if bestDelta < 0 {
			logger.Warn("entry times overlap", "overlap", textutil.FormatSeconds(-bestDelta))
		}
		neighbor := &entries[best.idx]
		logger.Debug("snapping entry boundaries",
			"gap", textutil.FormatSeconds(bestDelta),
			"stop_entry", entry.ID, "start_entry", neighbor.ID)
		half := time.Duration(bestDelta / 2 * float64(time.Second))
		entry.Stop = entry.Stop.Add(half)
		neighbor.Start = neighbor.Start.Add(-half)
		snapped += bestDelta
	}
	logger.Info("snapping pass complete", "total", textutil.FormatSeconds(snapped))
	return snapped
}
