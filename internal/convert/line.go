package convert

import (
	"fmt"
	"slices"
	"strconv"
	"time"
)

// Target identifies a remote project or task either by numeric id or by
// display name. Exactly one of the two is set.
type Target struct {
	ID   int64
	Name string
}

// ByID builds a target referencing a remote record directly by id.
func ByID(id int64) *Target {
	return &Target{ID: id}
}

// ByName builds a target that will be resolved by name lookup.
func ByName(name string) *Target {
	return &Target{Name: name}
}

// IsID reports whether the target references a record by numeric id.
func (t *Target) IsID() bool {
	return t != nil && t.ID != 0
}

func (t *Target) String() string {
	if t == nil {
		return ""
	}
	if t.ID != 0 {
		return "#" + strconv.FormatInt(t.ID, 10)
	}
	return t.Name
}

// mergeKey returns the target's contribution to a merge-key tuple. A nil
// target contributes the empty component, matching an absent field.
func (t *Target) mergeKey() string {
	if t == nil {
		return ""
	}
	if t.ID != 0 {
		return "id:" + strconv.FormatInt(t.ID, 10)
	}
	return "name:" + t.Name
}

// RefSet is a set of source-record identities.
type RefSet map[int64]struct{}

// NewRefSet builds a set from the given identities.
func NewRefSet(ids ...int64) RefSet {
	set := make(RefSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Add inserts an identity.
func (s RefSet) Add(id int64) {
	s[id] = struct{}{}
}

// Union adds every identity from other.
func (s RefSet) Union(other RefSet) {
	for id := range other {
		s[id] = struct{}{}
	}
}

// Clone returns an independent copy of the set.
func (s RefSet) Clone() RefSet {
	clone := make(RefSet, len(s))
	for id := range s {
		clone[id] = struct{}{}
	}
	return clone
}

// Equal reports whether both sets hold the same identities.
func (s RefSet) Equal(other RefSet) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if _, ok := other[id]; !ok {
			return false
		}
	}
	return true
}

// Intersects reports whether the sets share at least one identity.
func (s RefSet) Intersects(other RefSet) bool {
	for id := range s {
		if _, ok := other[id]; ok {
			return true
		}
	}
	return false
}

// Sorted returns the identities in ascending order.
func (s RefSet) Sorted() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (s RefSet) String() string {
	return fmt.Sprint(s.Sorted())
}

// Line is one converted, upload-ready timesheet line. Refs records which
// source entries produced it; after merging, Hours equals the sum of the
// contributing entries' durations in hours.
type Line struct {
	Date    time.Time
	Project *Target
	Task    *Target
	Name    string
	Hours   float64
	Refs    RefSet
}

// Clone returns a copy of the line with an independent ref set.
func (l Line) Clone() Line {
	clone := l
	clone.Refs = l.Refs.Clone()
	return clone
}
