/*
Package reducer turns typed slice reducers into the store's root reducer.

A slice reducer is a pure, total function over the action vocabulary:

	func reduce(state *State, action domain.Action) *State {
		if state == nil {
			state = initial()
		}
		switch action.Type {
		case ...:
			return &State{...}
		default:
			return state
		}
	}

Combine applies every slice reducer to its own sub-state for every action and
reassembles the tree. When no slice returned a new pointer, the input tree is
returned as is, so referential identity survives no-op dispatches.
*/
package reducer
