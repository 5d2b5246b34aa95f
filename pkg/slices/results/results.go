// Package results keeps an ordered list of stored values, each with a unique id.
package results

import (
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/aretw0/flux/internal/logging"
	"github.com/aretw0/flux/pkg/domain"
	"github.com/aretw0/flux/pkg/reducer"
	"github.com/aretw0/flux/pkg/slices/counter"
)

// Key is the slice's name in the state tree.
const Key = "results"

// EffectStoreResult names the deferred store effect.
const EffectStoreResult = "STORE_RESULT_ASYNC"

// Result is one stored value.
type Result struct {
	ID    string `json:"id" yaml:"id"`
	Value any    `json:"value" yaml:"value"`
}

// State of the results slice.
type State struct {
	Results []Result `json:"results" yaml:"results"`
}

type storePayload struct {
	ID     string `mapstructure:"id"`
	Result any    `mapstructure:"result"`
}

type deletePayload struct {
	ResultElID string `mapstructure:"resultElId"`
}

// NewID returns a fresh, sortable id.
func NewID() string {
	return ulid.Make().String()
}

// SaveResult stores value under a freshly stamped id.
func SaveResult(value any) domain.Action {
	return domain.NewAction(domain.ActionStoreResult, "result", value, "id", NewID())
}

// DeleteResult removes the entry with the given id.
func DeleteResult(id string) domain.Action {
	return domain.NewAction(domain.ActionDeleteResult, "resultElId", id)
}

type effectConfig struct {
	logger *slog.Logger
}

// EffectOption configures StoreResultAfter.
type EffectOption func(*effectConfig)

// WithLogger sets the logger used by the deferred callback.
func WithLogger(logger *slog.Logger) EffectOption {
	return func(c *effectConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// StoreResultAfter dispatches SaveResult(value) once delay has elapsed.
// Pending calls cannot be cancelled.
func StoreResultAfter(value any, delay time.Duration, opts ...EffectOption) domain.Effect {
	cfg := effectConfig{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	return domain.NewEffect(EffectStoreResult, func(dispatch domain.Dispatch, getState domain.GetState) error {
		time.AfterFunc(delay, func() {
			if c, ok := domain.SliceOf[counter.State](getState(), counter.Key); ok {
				cfg.logger.Info("Storing deferred result", "counter", c.Counter, "value", value)
			}
			if _, err := dispatch(SaveResult(value)); err != nil {
				cfg.logger.Warn("Deferred result dropped", "value", value, "err", err)
			}
		})
		return nil
	})
}

// Reduce is the results reducer.
func Reduce(state *State, action domain.Action) *State {
	if state == nil {
		state = &State{Results: []Result{}}
	}

	switch action.Type {
	case domain.ActionStoreResult:
		var p storePayload
		if err := action.Decode(&p); err != nil {
			return state
		}
		id := p.ID
		if id == "" || state.indexOf(id) >= 0 {
			id = NewID()
		}
		next := make([]Result, len(state.Results), len(state.Results)+1)
		copy(next, state.Results)
		return &State{Results: append(next, Result{ID: id, Value: p.Result})}

	case domain.ActionDeleteResult:
		var p deletePayload
		if err := action.Decode(&p); err != nil {
			return state
		}
		idx := state.indexOf(p.ResultElID)
		if idx < 0 {
			return state
		}
		next := make([]Result, 0, len(state.Results)-1)
		next = append(next, state.Results[:idx]...)
		next = append(next, state.Results[idx+1:]...)
		return &State{Results: next}

	default:
		return state
	}
}

func (s *State) indexOf(id string) int {
	for i, r := range s.Results {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Slice binds Reduce to Key.
func Slice() reducer.Slice {
	return reducer.New(Key, Reduce)
}
