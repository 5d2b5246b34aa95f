package middleware

import "github.com/aretw0/flux/pkg/ports"

// Middleware allows wrapping a SnapshotStore to add behavior.
type Middleware = ports.StoreMiddleware

// Chain applies mws so that the first one listed is the outermost.
func Chain(store ports.SnapshotStore, mws ...Middleware) ports.SnapshotStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
