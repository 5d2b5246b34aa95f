package domain

import (
	"reflect"
	"sort"
)

// StateDiff lists the slices that changed between two trees.
// It is designed to be serialized to JSON for partial updates on a client.
type StateDiff struct {
	// Changed maps each added or modified slice key to its new state.
	Changed map[string]any `json:"changed,omitempty"`

	// Removed lists keys present in the old tree but not in the new one.
	Removed []string `json:"removed,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// A slice counts as changed when its pointer differs and its content is not
// deeply equal. If oldState is nil, every slice of newState is reported.
// Returns nil when nothing changed.
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil || oldState == newState {
		return nil
	}

	diff := &StateDiff{Changed: make(map[string]any)}

	for _, key := range newState.keys {
		newVal := newState.slices[key]
		oldVal, exists := oldState.Get(key)
		if !exists {
			diff.Changed[key] = newVal
			continue
		}
		if SameSlice(oldVal, newVal) {
			continue
		}
		if !reflect.DeepEqual(oldVal, newVal) {
			diff.Changed[key] = newVal
		}
	}

	for _, key := range oldState.Keys() {
		if _, exists := newState.slices[key]; !exists {
			diff.Removed = append(diff.Removed, key)
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	if len(diff.Changed) == 0 {
		diff.Changed = nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d == nil || (len(d.Changed) == 0 && len(d.Removed) == 0)
}

// Keys returns the changed keys (sorted) followed by the removed ones.
func (d *StateDiff) Keys() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, 0, len(d.Changed)+len(d.Removed))
	for k := range d.Changed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return append(keys, d.Removed...)
}

// SameSlice reports whether a and b are the same pointer.
// Slice states may be uncomparable values, so == on the interfaces is not safe.
func SameSlice(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() != reflect.Pointer || vb.Kind() != reflect.Pointer {
		return false
	}
	return va.Type() == vb.Type() && va.Pointer() == vb.Pointer()
}
