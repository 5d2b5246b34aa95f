package domain

import "errors"

// ErrNilAction is returned when Dispatch receives nothing to dispatch.
var ErrNilAction = errors.New("nil action")

// ErrUnhandledEffect is returned when an Effect reaches the reducers,
// which happens when no thunk middleware is installed.
var ErrUnhandledEffect = errors.New("effect reached reducers without thunk middleware")

// ErrUnknownEffect is returned when a named effect is not registered.
var ErrUnknownEffect = errors.New("unknown effect")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")
