package domain

import "sort"

// AssignmentDiff describes how the assignments of two results differ.
// It is designed to be serialized to JSON when comparing graph revisions.
type AssignmentDiff struct {
	// Added holds keys present only in the newer result.
	Added Assignments `json:"added,omitempty"`
	// Removed lists keys present only in the older result.
	Removed []string `json:"removed,omitempty"`
	// Changed holds keys whose value differs, with the newer value.
	Changed map[string]ValueChange `json:"changed,omitempty"`
}

// ValueChange pairs the old and new value of one key.
type ValueChange struct {
	Before Value `json:"before"`
	After  Value `json:"after"`
}

// Empty reports whether the two sides were identical.
func (d *AssignmentDiff) Empty() bool {
	return d == nil || (len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0)
}

// Diff calculates the difference between before and after.
// A nil before is treated as empty, so everything in after is Added.
// Returns nil when nothing changed.
func Diff(before, after Assignments) *AssignmentDiff {
	diff := &AssignmentDiff{
		Added:   make(Assignments),
		Changed: make(map[string]ValueChange),
	}

	for k, v := range after {
		old, ok := before[k]
		if !ok {
			diff.Added[k] = v
			continue
		}
		if !old.Equal(v) {
			diff.Changed[k] = ValueChange{Before: old, After: v}
		}
	}
	for k := range before {
		if _, ok := after[k]; !ok {
			diff.Removed = append(diff.Removed, k)
		}
	}
	sort.Strings(diff.Removed)

	if diff.Empty() {
		return nil
	}
	return diff
}
