package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/flux/pkg/adapters/redis"
	"github.com/aretw0/flux/pkg/domain"
	"github.com/aretw0/flux/pkg/ports/tests"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	tests.SnapshotStoreContract(t, store)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("app:"))

	snap, err := domain.NewSnapshot("s1", domain.NewState())
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), "s1", snap))

	assert.True(t, mr.Exists("app:s:s1"))
	assert.True(t, mr.Exists("app:index"))
}

func TestRedisStore_SessionNamedIndex(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	ctx := context.Background()

	for _, id := range []string{"a", "index"} {
		snap, err := domain.NewSnapshot(id, domain.NewState().With("counter", map[string]int{"counter": 1}))
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, id, snap))
	}

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "index"}, sessions)

	loaded, err := store.Load(ctx, "index")
	require.NoError(t, err)
	assert.Equal(t, "index", loaded.SessionID)
}

func TestRedisStore_TTL(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithTTL(time.Minute))
	ctx := context.Background()

	snap, err := domain.NewSnapshot("short", domain.NewState())
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "short", snap))
	assert.Equal(t, time.Minute, mr.TTL(redis.DefaultPrefix+"s:short"))

	mr.FastForward(2 * time.Minute)
	_, err = store.Load(ctx, "short")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRedisStore_SliceFields(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)
	ctx := context.Background()

	state := domain.NewState().
		With("counter", map[string]int{"counter": 3}).
		With("auth", map[string]bool{"authenticated": true})
	snap, err := domain.NewSnapshot("s1", state)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "s1", snap))

	assert.JSONEq(t, `{"counter":3}`, mr.HGet(redis.DefaultPrefix+"s:s1", "slice:counter"))

	raw, err := store.LoadSlice(ctx, "s1", "auth")
	require.NoError(t, err)
	assert.JSONEq(t, `{"authenticated":true}`, string(raw))

	_, err = store.LoadSlice(ctx, "s1", "blog")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// A later save without "auth" drops the field.
	snap, err = domain.NewSnapshot("s1", domain.NewState().With("counter", map[string]int{"counter": 4}))
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "s1", snap))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"counter"}, loaded.Keys)
	assert.NotContains(t, loaded.Slices, "auth")
}
