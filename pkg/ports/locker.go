package ports

import (
	"context"
	"time"
)

// ReleaseFunc gives a session lock back. On error the lock is left to expire.
type ReleaseFunc func(ctx context.Context) error

// DistributedLocker serializes dispatches and snapshot writes of one session
// across every process sharing a SnapshotStore.
type DistributedLocker interface {
	// Lock blocks until sessionID is held or ctx is done. The hold lapses
	// after ttl so a crashed process cannot pin a session.
	Lock(ctx context.Context, sessionID string, ttl time.Duration) (ReleaseFunc, error)
}
