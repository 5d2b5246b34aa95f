package reducer

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/flux/pkg/domain"
)

// Func is a slice reducer. A nil state must yield the slice's initial state.
type Func[S any] func(state *S, action domain.Action) *S

// Slice binds a reducer to its key in the state tree.
type Slice interface {
	// Key is the slice's name in the state tree.
	Key() string
	// Reduce applies the reducer to an untyped sub-state.
	Reduce(state any, action domain.Action) any
	// Decode restores a sub-state from its JSON form.
	Decode(raw json.RawMessage) (any, error)
}

type typedSlice[S any] struct {
	key string
	fn  Func[S]
}

// New binds fn to key.
func New[S any](key string, fn Func[S]) Slice {
	return typedSlice[S]{key: key, fn: fn}
}

func (s typedSlice[S]) Key() string {
	return s.key
}

func (s typedSlice[S]) Reduce(state any, action domain.Action) any {
	typed, _ := state.(*S)
	return s.fn(typed, action)
}

func (s typedSlice[S]) Decode(raw json.RawMessage) (any, error) {
	var v S
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("failed to decode slice %q: %w", s.key, err)
	}
	return &v, nil
}

// Root is the combined reducer over a fixed, ordered set of slices.
type Root struct {
	slices []Slice
}

// Combine builds the root reducer. Slices are reduced in the given order.
// It panics on an empty or duplicate key, which is a programming error.
func Combine(slices ...Slice) *Root {
	seen := make(map[string]bool, len(slices))
	for _, sl := range slices {
		if sl.Key() == "" {
			panic("reducer: slice key must not be empty")
		}
		if seen[sl.Key()] {
			panic(fmt.Sprintf("reducer: duplicate slice key %q", sl.Key()))
		}
		seen[sl.Key()] = true
	}
	return &Root{slices: slices}
}

// Keys returns the slice keys in reduce order.
func (r *Root) Keys() []string {
	keys := make([]string, len(r.slices))
	for i, sl := range r.slices {
		keys[i] = sl.Key()
	}
	return keys
}

// With returns a new root with extra slices appended. Existing keys are replaced in place.
func (r *Root) With(slices ...Slice) *Root {
	merged := make([]Slice, len(r.slices))
	copy(merged, r.slices)
	for _, extra := range slices {
		replaced := false
		for i, sl := range merged {
			if sl.Key() == extra.Key() {
				merged[i] = extra
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, extra)
		}
	}
	return Combine(merged...)
}

// Reduce implements domain.Reducer.
// Every slice sees every action. Keys without a slice are dropped from the result.
func (r *Root) Reduce(state *domain.State, action domain.Action) *domain.State {
	changed := state == nil || state.Len() != len(r.slices)
	next := make(map[string]any, len(r.slices))

	for _, sl := range r.slices {
		prev, ok := state.Get(sl.Key())
		updated := sl.Reduce(prev, action)
		next[sl.Key()] = updated
		if !ok || !domain.SameSlice(prev, updated) {
			changed = true
		}
	}

	if !changed {
		return state
	}
	return domain.StateOf(r.Keys(), next)
}

// Hydrate rebuilds a tree from a snapshot. Slices missing from the snapshot
// start from their initial state.
func (r *Root) Hydrate(snap *domain.Snapshot) (*domain.State, error) {
	values := make(map[string]any, len(r.slices))
	for _, sl := range r.slices {
		raw, ok := snap.Slices[sl.Key()]
		if !ok {
			values[sl.Key()] = sl.Reduce(nil, domain.Action{Type: domain.ActionInit})
			continue
		}
		v, err := sl.Decode(raw)
		if err != nil {
			return nil, err
		}
		values[sl.Key()] = v
	}
	return domain.StateOf(r.Keys(), values), nil
}
