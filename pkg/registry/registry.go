package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/flux/pkg/domain"
)

// ErrInvalidEffect is returned when a factory rejects its payload.
var ErrInvalidEffect = errors.New("invalid effect")

// EffectFactory builds an effect from a serialized payload.
type EffectFactory func(ctx context.Context, payload domain.Payload) (domain.Effect, error)

// Registry maps effect names to factories so that serialized inputs
// (CLI, HTTP, MCP, scripts) can request effects.
type Registry struct {
	mu      sync.RWMutex
	effects map[string]EffectFactory
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		effects: make(map[string]EffectFactory),
	}
}

// Register adds an effect to the registry.
// If an effect with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn EffectFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effects[name] = fn
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.effects[name]
	return ok
}

// Names returns the registered effect names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.effects))
	for name := range r.effects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build looks up an effect by name and builds it.
// Returns domain.ErrUnknownEffect if the effect is not found.
func (r *Registry) Build(ctx context.Context, name string, payload domain.Payload) (domain.Effect, error) {
	r.mu.RLock()
	fn, ok := r.effects[name]
	r.mu.RUnlock()

	if !ok {
		return domain.Effect{}, fmt.Errorf("%w: %s", domain.ErrUnknownEffect, name)
	}

	effect, err := fn(ctx, payload)
	if err != nil {
		return domain.Effect{}, fmt.Errorf("%w %s: %w", ErrInvalidEffect, name, err)
	}
	return effect, nil
}

// Resolve turns a serialized action into something dispatchable: an effect when
// its type names a registered effect, the action itself otherwise.
func (r *Registry) Resolve(ctx context.Context, action domain.Action) (domain.Dispatchable, error) {
	if r == nil || !r.Has(string(action.Type)) {
		return action, nil
	}
	return r.Build(ctx, string(action.Type), action.Payload)
}
