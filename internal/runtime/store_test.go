package runtime_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/flux/internal/runtime"
	"github.com/aretw0/flux/pkg/domain"
	"github.com/aretw0/flux/pkg/reducer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type count struct {
	N int `json:"n"`
}

func countReducer(state *count, action domain.Action) *count {
	if state == nil {
		state = &count{}
	}
	switch action.Type {
	case domain.ActionIncrement:
		return &count{N: state.N + 1}
	default:
		return state
	}
}

type flag struct {
	On bool `json:"on"`
}

func flagReducer(state *flag, action domain.Action) *flag {
	if state == nil {
		state = &flag{}
	}
	switch action.Type {
	case "TOGGLE":
		return &flag{On: !state.On}
	default:
		return state
	}
}

func newRoot() *reducer.Root {
	return reducer.Combine(reducer.New("count", countReducer))
}

func countOf(t *testing.T, s *runtime.Store) int {
	t.Helper()
	c, ok := domain.SliceOf[count](s.GetState(), "count")
	require.True(t, ok)
	return c.N
}

func TestStore_Bootstrap(t *testing.T) {
	var seen []domain.ActionType
	hooks := domain.LifecycleHooks{
		OnDispatch: func(e *domain.DispatchEvent) {
			seen = append(seen, e.Action.Type)
		},
	}

	store := runtime.NewStore(newRoot().Reduce, runtime.WithLifecycleHooks(hooks))

	assert.Equal(t, 0, countOf(t, store))
	assert.Equal(t, []domain.ActionType{domain.ActionInit}, seen)
}

func TestStore_InitialStateIsKept(t *testing.T) {
	seed := domain.NewState().With("count", &count{N: 7})
	store := runtime.NewStore(newRoot().Reduce, runtime.WithInitialState(seed))

	assert.Equal(t, 7, countOf(t, store))
	assert.Same(t, seed, store.GetState())
}

func TestStore_DispatchReturnsAction(t *testing.T) {
	store := runtime.NewStore(newRoot().Reduce)

	action := domain.NewAction(domain.ActionIncrement)
	out, err := store.Dispatch(action)
	require.NoError(t, err)
	assert.Equal(t, action, out)
	assert.Equal(t, 1, countOf(t, store))

	out, err = store.Dispatch(&action)
	require.NoError(t, err)
	assert.Equal(t, action, out)
	assert.Equal(t, 2, countOf(t, store))
}

func TestStore_DispatchErrors(t *testing.T) {
	store := runtime.NewStore(newRoot().Reduce)

	_, err := store.Dispatch(nil)
	assert.ErrorIs(t, err, domain.ErrNilAction)

	var nilAction *domain.Action
	_, err = store.Dispatch(nilAction)
	assert.ErrorIs(t, err, domain.ErrNilAction)

	effect := domain.NewEffect("noop", func(domain.Dispatch, domain.GetState) error { return nil })
	_, err = store.Dispatch(effect)
	assert.ErrorIs(t, err, domain.ErrUnhandledEffect)
	assert.Contains(t, err.Error(), "noop")
}

func TestStore_UnknownActionKeepsState(t *testing.T) {
	store := runtime.NewStore(newRoot().Reduce)
	before := store.GetState()

	_, err := store.Dispatch(domain.NewAction("UNKNOWN"))
	require.NoError(t, err)
	assert.Same(t, before, store.GetState())
}

func TestStore_SubscribersNotifiedInOrder(t *testing.T) {
	store := runtime.NewStore(newRoot().Reduce)

	var calls []string
	store.Subscribe(func() { calls = append(calls, "a") })
	store.Subscribe(func() { calls = append(calls, "b") })

	_, err := store.Dispatch(domain.NewAction(domain.ActionIncrement))
	require.NoError(t, err)
	_, err = store.Dispatch(domain.NewAction("UNKNOWN"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "a", "b"}, calls)
}

func TestStore_SubscriberSeesNewState(t *testing.T) {
	store := runtime.NewStore(newRoot().Reduce)

	var observed int
	store.Subscribe(func() { observed = countOf(t, store) })

	_, err := store.Dispatch(domain.NewAction(domain.ActionIncrement))
	require.NoError(t, err)
	assert.Equal(t, 1, observed)
}

func TestStore_Unsubscribe(t *testing.T) {
	store := runtime.NewStore(newRoot().Reduce)

	var a, b int
	unsubA := store.Subscribe(func() { a++ })
	store.Subscribe(func() { b++ })

	_, _ = store.Dispatch(domain.NewAction(domain.ActionIncrement))
	unsubA()
	unsubA()
	_, _ = store.Dispatch(domain.NewAction(domain.ActionIncrement))

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestStore_UnsubscribeDuringNotify(t *testing.T) {
	store := runtime.NewStore(newRoot().Reduce)

	var second int
	var unsub func()
	unsub = store.Subscribe(func() { unsub() })
	store.Subscribe(func() { second++ })

	_, _ = store.Dispatch(domain.NewAction(domain.ActionIncrement))
	_, _ = store.Dispatch(domain.NewAction(domain.ActionIncrement))
	assert.Equal(t, 2, second)
}

func TestStore_NilSubscriberIgnored(t *testing.T) {
	store := runtime.NewStore(newRoot().Reduce)
	unsub := store.Subscribe(nil)
	unsub()

	_, err := store.Dispatch(domain.NewAction(domain.ActionIncrement))
	assert.NoError(t, err)
}

func TestStore_MiddlewareOrder(t *testing.T) {
	var trace []string
	tag := func(name string) domain.Middleware {
		return func(api domain.MiddlewareAPI) func(next domain.Dispatch) domain.Dispatch {
			return func(next domain.Dispatch) domain.Dispatch {
				return func(d domain.Dispatchable) (domain.Dispatchable, error) {
					trace = append(trace, name+">")
					out, err := next(d)
					trace = append(trace, "<"+name)
					return out, err
				}
			}
		}
	}

	store := runtime.NewStore(newRoot().Reduce,
		runtime.WithMiddleware(tag("first"), tag("second")),
		runtime.WithEnhancer(func(next domain.Dispatch) domain.Dispatch {
			return func(d domain.Dispatchable) (domain.Dispatchable, error) {
				trace = append(trace, "enhancer")
				return next(d)
			}
		}),
	)

	_, err := store.Dispatch(domain.NewAction(domain.ActionIncrement))
	require.NoError(t, err)
	assert.Equal(t, []string{"enhancer", "first>", "second>", "<second", "<first"}, trace)
}

func TestStore_MiddlewareApiDispatchReentersChain(t *testing.T) {
	var entries int
	counting := func(api domain.MiddlewareAPI) func(next domain.Dispatch) domain.Dispatch {
		return func(next domain.Dispatch) domain.Dispatch {
			return func(d domain.Dispatchable) (domain.Dispatchable, error) {
				entries++
				return next(d)
			}
		}
	}
	// Turns every "DOUBLE" into two increments through api.Dispatch.
	doubling := func(api domain.MiddlewareAPI) func(next domain.Dispatch) domain.Dispatch {
		return func(next domain.Dispatch) domain.Dispatch {
			return func(d domain.Dispatchable) (domain.Dispatchable, error) {
				if a, ok := d.(domain.Action); ok && a.Type == "DOUBLE" {
					for range 2 {
						if _, err := api.Dispatch(domain.NewAction(domain.ActionIncrement)); err != nil {
							return nil, err
						}
					}
					return d, nil
				}
				return next(d)
			}
		}
	}

	store := runtime.NewStore(newRoot().Reduce, runtime.WithMiddleware(counting, doubling))

	_, err := store.Dispatch(domain.NewAction("DOUBLE"))
	require.NoError(t, err)
	assert.Equal(t, 2, countOf(t, store))
	assert.Equal(t, 3, entries)
}

func TestStore_DispatchDuringSetupFails(t *testing.T) {
	var setupErr error
	eager := func(api domain.MiddlewareAPI) func(next domain.Dispatch) domain.Dispatch {
		_, setupErr = api.Dispatch(domain.NewAction(domain.ActionIncrement))
		return func(next domain.Dispatch) domain.Dispatch { return next }
	}

	store := runtime.NewStore(newRoot().Reduce, runtime.WithMiddleware(eager))
	require.Error(t, setupErr)
	assert.Equal(t, 0, countOf(t, store))
}

func TestStore_MiddlewareErrorStopsDispatch(t *testing.T) {
	boom := errors.New("blocked")
	blocker := func(api domain.MiddlewareAPI) func(next domain.Dispatch) domain.Dispatch {
		return func(next domain.Dispatch) domain.Dispatch {
			return func(d domain.Dispatchable) (domain.Dispatchable, error) {
				return nil, boom
			}
		}
	}
	store := runtime.NewStore(newRoot().Reduce, runtime.WithMiddleware(blocker))

	notified := false
	store.Subscribe(func() { notified = true })

	_, err := store.Dispatch(domain.NewAction(domain.ActionIncrement))
	assert.ErrorIs(t, err, boom)
	assert.False(t, notified)
	assert.Equal(t, 0, countOf(t, store))
}

func TestStore_StateChangeHook(t *testing.T) {
	var diffs []*domain.StateDiff
	hooks := domain.LifecycleHooks{
		OnStateChange: func(e *domain.StateEvent) {
			diffs = append(diffs, e.Diff)
		},
	}
	store := runtime.NewStore(newRoot().Reduce, runtime.WithLifecycleHooks(hooks))
	require.Len(t, diffs, 1, "bootstrap creates the tree")

	_, _ = store.Dispatch(domain.NewAction("UNKNOWN"))
	require.Len(t, diffs, 1)

	_, _ = store.Dispatch(domain.NewAction(domain.ActionIncrement))
	require.Len(t, diffs, 2)
	assert.Equal(t, []string{"count"}, diffs[1].Keys())
}

func TestStore_ReplaceReducer(t *testing.T) {
	root := newRoot()
	store := runtime.NewStore(root.Reduce)
	_, _ = store.Dispatch(domain.NewAction(domain.ActionIncrement))

	notified := 0
	store.Subscribe(func() { notified++ })

	store.ReplaceReducer(root.With(reducer.New("flag", flagReducer)).Reduce)

	assert.Equal(t, []string{"count", "flag"}, store.GetState().Keys())
	assert.Equal(t, 1, countOf(t, store), "existing slices keep their state")
	assert.Equal(t, 1, notified)

	_, err := store.Dispatch(domain.NewAction("TOGGLE"))
	require.NoError(t, err)
	f, ok := domain.SliceOf[flag](store.GetState(), "flag")
	require.True(t, ok)
	assert.True(t, f.On)
}

func TestStore_ConcurrentDispatch(t *testing.T) {
	store := runtime.NewStore(newRoot().Reduce)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Dispatch(domain.NewAction(domain.ActionIncrement))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, countOf(t, store))
}
