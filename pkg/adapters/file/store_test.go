package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/flux/pkg/adapters/file"
	"github.com/aretw0/flux/pkg/domain"
	"github.com/aretw0/flux/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	tests.SnapshotStoreContract(t, store)
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "nope"))

	sessions, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestFileStore_RejectsBadIDs(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()
	snap, err := domain.NewSnapshot("x", domain.NewState())
	require.NoError(t, err)

	assert.Error(t, store.Save(ctx, "", snap))
	assert.Error(t, store.Save(ctx, "../escape", snap))
	assert.Error(t, store.Save(ctx, ".hidden", snap))
	_, err = store.Load(ctx, "a/b")
	assert.Error(t, err)
}

func TestFileStore_ListsTmpNamedSession(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()
	snap, err := domain.NewSnapshot("tmp-x", domain.NewState())
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "tmp-x", snap))

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tmp-x"}, sessions)

	_, err = store.Load(ctx, "tmp-x")
	assert.NoError(t, err)
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))

	_, err := file.New(dir).Load(context.Background(), "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestFileStore_DefaultPath(t *testing.T) {
	assert.Equal(t, filepath.Join(".flux", "sessions"), file.New("").BasePath)
}

func TestFileStore_YAMLContract(t *testing.T) {
	store := file.New(t.TempDir(), file.WithFormat(file.FormatYAML))
	tests.SnapshotStoreContract(t, store)
}

func TestFileStore_YAMLReadable(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir, file.WithFormat(file.FormatYAML))
	ctx := context.Background()

	state := domain.NewState().
		With("counter", map[string]int{"counter": 7}).
		With("auth", map[string]bool{"authenticated": true})
	snap, err := domain.NewSnapshot("s1", state)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "s1", snap))

	data, err := os.ReadFile(filepath.Join(dir, "s1.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "counter: 7")
	assert.Contains(t, string(data), "authenticated: true")

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"counter", "auth"}, loaded.Keys)
	assert.JSONEq(t, `{"counter":7}`, string(loaded.Slices["counter"]))

	// JSON files are invisible to a YAML store and vice versa.
	require.NoError(t, file.New(dir).Save(ctx, "other", snap))
	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]file.Format{"": file.FormatJSON, "JSON": file.FormatJSON, "yml": file.FormatYAML, "yaml": file.FormatYAML} {
		got, err := file.ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := file.ParseFormat("toml")
	assert.Error(t, err)
}
