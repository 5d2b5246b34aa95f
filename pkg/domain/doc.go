/*
Package domain contains the core data model of the flux store.

It defines the values that flow through the pipeline and is kept free of I/O and
persistence concerns.

# Key Entities

  - Action: a plain descriptor of "what happened" (type + payload).
  - Effect: a callable action (thunk) run by the thunk middleware.
  - State: the immutable-by-convention tree of slice states.
  - Snapshot: a serialized State used by persistence adapters.
  - Middleware: a wrapper around dispatch, composed at store construction.
*/
package domain
