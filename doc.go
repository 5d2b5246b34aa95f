/*
Package flux is a predictable state container for Go programs: one state tree,
pure reducers, plain and effect actions, a middleware chain around dispatch,
and subscribers notified after every dispatch.

# Concept

The whole application state lives in a single immutable tree of slices. The
only way to change it is to dispatch an action. Each slice reducer receives the
current slice state and the action, and returns either the same pointer (nothing
to do) or a new value. Middleware wraps dispatch to log, record, persist, or run
effects (thunks) that dispatch later.

# Key Features

  - Pure Reducers: Same state and action always produce the same next state.
  - Effects: Thunks receive dispatch and getState and may dispatch asynchronously.
  - Middleware: Composed once at construction; the first one listed is the outermost.
  - Persistence: Snapshots of the tree can be saved to memory, files or Redis.

# Usage

	package main

	import (
		"fmt"

		"github.com/aretw0/flux"
		"github.com/aretw0/flux/pkg/middleware"
		"github.com/aretw0/flux/pkg/reducer"
		"github.com/aretw0/flux/pkg/slices/counter"
		"github.com/aretw0/flux/pkg/slices/results"
	)

	func main() {
		root := reducer.Combine(counter.Slice(), results.Slice())
		store := flux.New(root.Reduce, flux.WithMiddleware(middleware.Thunk()))

		store.Subscribe(func() {
			c, _ := flux.Select[counter.State](store, counter.Key)
			fmt.Println("counter:", c.Counter)
		})

		_, _ = store.Dispatch(counter.Increment())
		_, _ = store.Dispatch(counter.Add(5))
	}
*/
package flux
