package flux

import (
	"log/slog"

	"github.com/aretw0/flux/internal/logging"
	"github.com/aretw0/flux/internal/runtime"
	"github.com/aretw0/flux/pkg/domain"
)

// Enhancer wraps the composed dispatch from the outside.
type Enhancer = runtime.Enhancer

// Store is the high-level entry point for the Flux library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Store struct {
	runtime    *runtime.Store
	middleware []domain.Middleware
	enhancers  []Enhancer
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	initial    *domain.State
	Name       string
}

// Option defines a functional option for configuring the Store.
type Option func(*Store)

// WithMiddleware appends middleware. The first one listed wraps all the others.
func WithMiddleware(mw ...domain.Middleware) Option {
	return func(s *Store) {
		s.middleware = append(s.middleware, mw...)
	}
}

// WithEnhancer appends dispatch enhancers, applied outside the middleware chain.
func WithEnhancer(enh ...Enhancer) Option {
	return func(s *Store) {
		s.enhancers = append(s.enhancers, enh...)
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Store) {
		s.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithInitialState seeds the tree, e.g. from a hydrated snapshot.
func WithInitialState(state *domain.State) Option {
	return func(s *Store) {
		s.initial = state
	}
}

// WithName labels the store in logs.
func WithName(name string) Option {
	return func(s *Store) {
		s.Name = name
	}
}

// New creates a store around the root reducer and performs the bootstrap dispatch.
func New(root domain.Reducer, opts ...Option) *Store {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if s.Name != "" {
		s.logger = s.logger.With("store", s.Name)
	}

	runtimeOpts := []runtime.Option{
		runtime.WithLogger(s.logger),
		runtime.WithLifecycleHooks(s.hooks),
		runtime.WithMiddleware(s.middleware...),
		runtime.WithEnhancer(s.enhancers...),
	}
	if s.initial != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithInitialState(s.initial))
	}

	s.runtime = runtime.NewStore(root, runtimeOpts...)
	return s
}

// GetState returns the current state tree.
func (s *Store) GetState() *domain.State {
	return s.runtime.GetState()
}

// Dispatch sends an action or effect through the middleware chain.
func (s *Store) Dispatch(d domain.Dispatchable) (domain.Dispatchable, error) {
	return s.runtime.Dispatch(d)
}

// Subscribe registers a listener called after every dispatch.
// It returns the function that removes the listener.
func (s *Store) Subscribe(listener func()) func() {
	return s.runtime.Subscribe(listener)
}

// ReplaceReducer swaps the root reducer, e.g. after loading a feature lazily.
func (s *Store) ReplaceReducer(root domain.Reducer) {
	s.runtime.ReplaceReducer(root)
}

// Logger returns the store's logger.
func (s *Store) Logger() *slog.Logger {
	return s.logger
}

// Select reads a typed slice from the current tree.
func Select[S any](s *Store, key string) (*S, bool) {
	return domain.SliceOf[S](s.GetState(), key)
}
