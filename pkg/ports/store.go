package ports

import (
	"context"

	"github.com/aretw0/flux/pkg/domain"
)

// SnapshotStore defines the interface for persisting state trees.
// This allows a session to be resumed after the process restarts.
type SnapshotStore interface {
	// Save persists the snapshot for a given session ID.
	Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error

	// Load retrieves the snapshot for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Snapshot, error)

	// Delete removes the snapshot for a given session ID.
	// Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}

// StoreMiddleware wraps a SnapshotStore to add behavior (e.g. encryption).
type StoreMiddleware func(SnapshotStore) SnapshotStore
