package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// State is the store's state tree: slice key -> slice state.
// It is immutable by convention. With returns a new tree that shares every
// other slice with the receiver. Keys keep their insertion order.
type State struct {
	keys   []string
	slices map[string]any
}

// NewState creates an empty tree.
func NewState() *State {
	return &State{slices: make(map[string]any)}
}

// StateOf builds a tree from ordered keys and their slice states.
// Keys missing from slices are skipped.
func StateOf(keys []string, slices map[string]any) *State {
	s := &State{
		keys:   make([]string, 0, len(keys)),
		slices: make(map[string]any, len(keys)),
	}
	for _, k := range keys {
		v, ok := slices[k]
		if !ok {
			continue
		}
		if _, dup := s.slices[k]; !dup {
			s.keys = append(s.keys, k)
		}
		s.slices[k] = v
	}
	return s
}

// Get returns the raw state of a slice.
func (s *State) Get(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.slices[key]
	return v, ok
}

// Keys returns slice keys in insertion order.
func (s *State) Keys() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Len returns the number of slices.
func (s *State) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// With returns a copy of the tree where key holds value.
func (s *State) With(key string, value any) *State {
	next := &State{slices: make(map[string]any, s.Len()+1)}
	if s != nil {
		next.keys = make([]string, len(s.keys), len(s.keys)+1)
		copy(next.keys, s.keys)
		for k, v := range s.slices {
			next.slices[k] = v
		}
	}
	if _, exists := next.slices[key]; !exists {
		next.keys = append(next.keys, key)
	}
	next.slices[key] = value
	return next
}

// MarshalJSON encodes the tree as an object with keys in insertion order.
func (s *State) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s.slices[k])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal slice %q: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// SliceOf returns the typed state stored under key.
func SliceOf[S any](s *State, key string) (*S, bool) {
	raw, ok := s.Get(key)
	if !ok {
		return nil, false
	}
	typed, ok := raw.(*S)
	return typed, ok
}
