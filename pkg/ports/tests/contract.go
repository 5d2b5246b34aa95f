package tests

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/flux/pkg/domain"
	"github.com/aretw0/flux/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterSlice struct {
	Counter int `json:"counter"`
}

type resultsSlice struct {
	Results []string `json:"results"`
}

func sampleSnapshot(t *testing.T, sessionID string, counter int) *domain.Snapshot {
	t.Helper()
	state := domain.NewState().
		With("counter", &counterSlice{Counter: counter}).
		With("results", &resultsSlice{Results: []string{"a", "b"}})
	snap, err := domain.NewSnapshot(sessionID, state)
	require.NoError(t, err)
	return snap
}

// SnapshotStoreContract is a reusable test suite that verifies if an adapter
// complies with ports.SnapshotStore.
func SnapshotStoreContract(t *testing.T, store ports.SnapshotStore) {
	t.Helper()
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := sampleSnapshot(t, sessionID, 42)

		require.NoError(t, store.Save(ctx, sessionID, snap), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sessionID, loaded.SessionID)
		assert.Equal(t, []string{"counter", "results"}, loaded.Keys, "key order is preserved")

		var c counterSlice
		require.NoError(t, json.Unmarshal(loaded.Slices["counter"], &c))
		assert.Equal(t, 42, c.Counter)

		var r resultsSlice
		require.NoError(t, json.Unmarshal(loaded.Slices["results"], &r))
		assert.Equal(t, []string{"a", "b"}, r.Results)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, sampleSnapshot(t, sessionID, 1)))
		require.NoError(t, store.Save(ctx, sessionID, sampleSnapshot(t, sessionID, 2)))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		var c counterSlice
		require.NoError(t, json.Unmarshal(loaded.Slices["counter"], &c))
		assert.Equal(t, 2, c.Counter)
	})

	t.Run("Isolation", func(t *testing.T) {
		snap := sampleSnapshot(t, sessionID, 5)
		require.NoError(t, store.Save(ctx, sessionID, snap))

		snap.Keys[0] = "mutated"
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "counter", loaded.Keys[0], "callers cannot mutate stored snapshots")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, sampleSnapshot(t, sessionID, 0)))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, sampleSnapshot(t, id1, 0)))
		require.NoError(t, store.Save(ctx, id2, sampleSnapshot(t, id2, 0)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
