/*
Package middleware provides stock dispatch middleware for a flux store.

  - Logger logs each dispatch and the slices it changed.
  - Thunk runs effects instead of forwarding them to the reducers.
  - Metrics exports Prometheus counters and latency histograms.
  - Persist saves a snapshot after each state change.
  - Recorder keeps the ordered history of reduced actions.

Install them with flux.WithMiddleware; the first one listed is the outermost.
Thunk usually goes first so that everything after it only sees plain actions.
*/
package middleware
