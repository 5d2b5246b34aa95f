package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot is the serialized form of a State tree for a session.
type Snapshot struct {
	SessionID string                     `json:"session_id"`
	Keys      []string                   `json:"keys"`
	Slices    map[string]json.RawMessage `json:"slices"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// NewSnapshot serializes every slice of state.
func NewSnapshot(sessionID string, state *State) (*Snapshot, error) {
	snap := &Snapshot{
		SessionID: sessionID,
		Keys:      state.Keys(),
		Slices:    make(map[string]json.RawMessage, state.Len()),
		UpdatedAt: time.Now().UTC(),
	}
	for _, key := range snap.Keys {
		raw, _ := state.Get(key)
		data, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal slice %q: %w", key, err)
		}
		snap.Slices[key] = data
	}
	return snap, nil
}

// Clone returns a deep copy so stores can isolate what they hold from callers.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.Keys = append([]string(nil), s.Keys...)
	out.Slices = make(map[string]json.RawMessage, len(s.Slices))
	for k, v := range s.Slices {
		out.Slices[k] = append(json.RawMessage(nil), v...)
	}
	return &out
}
