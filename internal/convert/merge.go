package convert

import "strings"

// DefaultMergeKeys are the line fields used to group lines when no explicit
// key set is given.
var DefaultMergeKeys = []string{"date", "project", "task", "name"}

// KnownMergeKey reports whether the given field name can be used as a
// merge key.
func KnownMergeKey(key string) bool {
	switch key {
	case "date", "project", "task", "name":
		return true
	}
	return false
}

// MergeLines groups lines by the value tuple of the given key fields, summing
// hours and unioning ref sets within a bucket. The first line seen for a key
// seeds its bucket; output preserves first-seen bucket order. An absent field
// contributes an empty component to the tuple.
func MergeLines(lines []Line, keys []string) []Line {
	if len(keys) == 0 {
		keys = DefaultMergeKeys
	}

	buckets := make(map[string]int, len(lines))
	merged := make([]Line, 0, len(lines))
	for _, line := range lines {
		key := mergeKey(line, keys)
		idx, ok := buckets[key]
		if !ok {
			buckets[key] = len(merged)
			merged = append(merged, line.Clone())
			continue
		}
		merged[idx].Hours += line.Hours
		merged[idx].Refs.Union(line.Refs)
	}
	return merged
}

func mergeKey(line Line, keys []string) string {
	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteByte('\x00')
		}
		switch key {
		case "date":
			b.WriteString(line.Date.Format("2006-01-02"))
		case "project":
			b.WriteString(line.Project.mergeKey())
		case "task":
			b.WriteString(line.Task.mergeKey())
		case "name":
			b.WriteString(line.Name)
		}
	}
	return b.String()
}
