package domain

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// ActionType names what happened. Reducers switch on it.
type ActionType string

// Core action vocabulary. The spelling is part of the wire contract.
const (
	ActionIncrement    ActionType = "INCREMENT"
	ActionDecrement    ActionType = "DECREMENT"
	ActionAdd          ActionType = "ADD"
	ActionSubtract     ActionType = "SUBTRACT"
	ActionStoreResult  ActionType = "STORE_RESULT"
	ActionDeleteResult ActionType = "DELETE_RESULT"
)

// Reserved action types dispatched by the store itself.
// No reducer should handle them; they exist so every slice falls through to its default state.
const (
	ActionInit    ActionType = "@@flux/INIT"
	ActionReplace ActionType = "@@flux/REPLACE"
)

// Dispatchable is anything accepted by Dispatch: a plain Action or an Effect.
type Dispatchable interface {
	dispatchable()
}

// Payload carries action-specific fields (e.g. "val", "result", "resultElId").
type Payload map[string]any

// Action is a plain descriptor of "what happened".
type Action struct {
	Type    ActionType `json:"type" yaml:"type" mapstructure:"type"`
	Payload Payload    `json:"payload,omitempty" yaml:"payload,omitempty" mapstructure:"payload"`
}

func (Action) dispatchable() {}

// NewAction builds an action from alternating key/value pairs.
// A trailing key without value is ignored.
func NewAction(t ActionType, kv ...any) Action {
	a := Action{Type: t}
	if len(kv) < 2 {
		return a
	}
	a.Payload = make(Payload, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		a.Payload[key] = kv[i+1]
	}
	return a
}

// Get returns a raw payload field.
func (a Action) Get(key string) (any, bool) {
	if a.Payload == nil {
		return nil, false
	}
	v, ok := a.Payload[key]
	return v, ok
}

// Decode copies the payload into target (a pointer to a struct with mapstructure tags).
// Decoding is weakly typed so values coming from JSON, YAML or the command line
// ("10", 10.0, json.Number) land in int fields alike.
func (a Action) Decode(target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("failed to build payload decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(a.Payload)); err != nil {
		return fmt.Errorf("invalid payload for %s: %w", a.Type, err)
	}
	return nil
}

// String renders the action for logs.
func (a Action) String() string {
	if len(a.Payload) == 0 {
		return string(a.Type)
	}
	return fmt.Sprintf("%s %v", a.Type, map[string]any(a.Payload))
}

// GetState returns the current state tree.
type GetState func() *State

// Dispatch sends a Dispatchable through the store pipeline.
// It returns the action (or whatever the innermost middleware returned).
type Dispatch func(d Dispatchable) (Dispatchable, error)

// Effect is a callable action (thunk). The thunk middleware invokes Run with the
// store's composed dispatch and getState instead of forwarding it to reducers.
// Run may schedule deferred work; anything that fails after Run returns is the
// effect's own business.
type Effect struct {
	Name string
	Run  func(dispatch Dispatch, getState GetState) error
}

func (Effect) dispatchable() {}

// NewEffect is a convenience constructor.
func NewEffect(name string, run func(dispatch Dispatch, getState GetState) error) Effect {
	return Effect{Name: name, Run: run}
}

// Reducer is the root reducer signature operating on the full state tree.
// A nil state means "not initialised yet".
type Reducer func(state *State, action Action) *State

// MiddlewareAPI is the store surface handed to middleware.
// Dispatch is the fully composed dispatch, so effects re-enter the chain from the top.
type MiddlewareAPI struct {
	GetState GetState
	Dispatch Dispatch
}

// Middleware wraps dispatch: store -> next -> action -> result.
// A middleware must call next to let the action reach the reducers.
type Middleware func(api MiddlewareAPI) func(next Dispatch) Dispatch
