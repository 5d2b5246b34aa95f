// Package slices groups the feature slices shipped with flux.
// Each sub-package owns one key of the state tree: its state type, its reducer,
// its action creators, and the selectors views read from it.
package slices
