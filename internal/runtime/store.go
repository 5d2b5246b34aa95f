package runtime

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/flux/internal/logging"
	"github.com/aretw0/flux/pkg/domain"
)

var errStoreNotReady = errors.New("dispatch called while the middleware chain is being built")

// Enhancer wraps the composed dispatch from the outside.
// Enhancers see every dispatch before the middleware chain does.
type Enhancer func(next domain.Dispatch) domain.Dispatch

type subscriber struct {
	id       uint64
	listener func()
}

// Store is the core state container.
// Reduce-and-replace is serialised; middleware and subscribers run outside the lock.
type Store struct {
	mu      sync.Mutex
	reducer domain.Reducer
	state   *domain.State

	subsMu sync.Mutex
	subs   []subscriber
	nextID uint64

	dispatch    domain.Dispatch
	middleware  []domain.Middleware
	enhancers   []Enhancer
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	initialized bool
}

// Option configures the Store.
type Option func(*Store)

// WithMiddleware appends middleware. The first one listed is the outermost.
func WithMiddleware(mw ...domain.Middleware) Option {
	return func(s *Store) {
		s.middleware = append(s.middleware, mw...)
	}
}

// WithEnhancer appends dispatch enhancers.
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

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithInitialState seeds the tree before the bootstrap dispatch.
// Slices missing from it are initialised by their reducers.
func WithInitialState(state *domain.State) Option {
	return func(s *Store) {
		s.state = state
	}
}

// NewStore creates a store around the root reducer and runs the bootstrap dispatch.
func NewStore(root domain.Reducer, opts ...Option) *Store {
	s := &Store{
		reducer: root,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Bootstrap bypasses middleware: nothing observes the store yet.
	s.reduce(domain.Action{Type: domain.ActionInit})

	api := domain.MiddlewareAPI{
		GetState: s.GetState,
		Dispatch: s.Dispatch,
	}
	chain := domain.Dispatch(s.baseDispatch)
	for i := len(s.middleware) - 1; i >= 0; i-- {
		chain = s.middleware[i](api)(chain)
	}
	for i := len(s.enhancers) - 1; i >= 0; i-- {
		chain = s.enhancers[i](chain)
	}
	s.dispatch = chain
	s.initialized = true

	return s
}

// GetState returns the current tree.
func (s *Store) GetState() *domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch sends d through the composed chain.
func (s *Store) Dispatch(d domain.Dispatchable) (domain.Dispatchable, error) {
	if !s.initialized {
		return nil, errStoreNotReady
	}
	return s.dispatch(d)
}

// Subscribe registers a listener called after every completed dispatch.
// The returned func removes it; calling it more than once is a no-op.
func (s *Store) Subscribe(listener func()) func() {
	if listener == nil {
		return func() {}
	}

	s.subsMu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, listener: listener})
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			defer s.subsMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// ReplaceReducer swaps the root reducer and dispatches the replace action
// so newly added slices pick up their initial state.
func (s *Store) ReplaceReducer(root domain.Reducer) {
	s.mu.Lock()
	s.reducer = root
	s.mu.Unlock()

	s.logger.Debug("Reducer replaced")
	s.reduce(domain.Action{Type: domain.ActionReplace})
	s.notify()
}

func (s *Store) baseDispatch(d domain.Dispatchable) (domain.Dispatchable, error) {
	var action domain.Action
	switch v := d.(type) {
	case nil:
		return nil, domain.ErrNilAction
	case domain.Action:
		action = v
	case *domain.Action:
		if v == nil {
			return nil, domain.ErrNilAction
		}
		action = *v
	case domain.Effect:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnhandledEffect, v.Name)
	case *domain.Effect:
		return nil, domain.ErrUnhandledEffect
	default:
		return nil, fmt.Errorf("unsupported dispatchable %T", d)
	}

	s.reduce(action)
	s.notify()
	return action, nil
}

// reduce applies the root reducer and fires hooks. It does not notify subscribers.
func (s *Store) reduce(action domain.Action) {
	start := time.Now()

	s.mu.Lock()
	prev := s.state
	next := s.reducer(prev, action)
	if next == nil {
		next = prev
	}
	s.state = next
	s.mu.Unlock()

	duration := time.Since(start)
	s.logger.Debug("Action reduced",
		"type", action.Type,
		"changed", next != prev,
		"duration", duration,
	)

	if s.hooks.OnDispatch != nil {
		s.hooks.OnDispatch(&domain.DispatchEvent{
			EventBase: domain.EventBase{Timestamp: start, Type: domain.EventDispatch},
			Action:    action,
			Duration:  duration,
		})
	}
	if next != prev && s.hooks.OnStateChange != nil {
		s.hooks.OnStateChange(&domain.StateEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStateChange},
			Action:    action,
			Diff:      domain.Diff(prev, next),
		})
	}
}

func (s *Store) notify() {
	s.subsMu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.subsMu.Unlock()

	for _, sub := range subs {
		sub.listener()
	}
}
