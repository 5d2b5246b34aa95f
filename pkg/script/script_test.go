package script_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/flux"
	"github.com/aretw0/flux/pkg/domain"
	"github.com/aretw0/flux/pkg/middleware"
	"github.com/aretw0/flux/pkg/reducer"
	"github.com/aretw0/flux/pkg/registry"
	"github.com/aretw0/flux/pkg/script"
	"github.com/aretw0/flux/pkg/slices/counter"
	"github.com/aretw0/flux/pkg/slices/results"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlScript = `
name: demo
steps:
  - type: INCREMENT
  - type: ADD
    payload: {val: 5}
  - type: SUBTRACT
    payload:
      val: "2"
`

func newStore() *flux.Store {
	root := reducer.Combine(counter.Slice(), results.Slice())
	return flux.New(root.Reduce, flux.WithMiddleware(middleware.Thunk()))
}

func counterValue(t *testing.T, s *flux.Store) int {
	t.Helper()
	c, ok := flux.Select[counter.State](s, counter.Key)
	require.True(t, ok)
	return c.Counter
}

func TestParse_YAML(t *testing.T) {
	s, err := script.Parse([]byte(yamlScript))
	require.NoError(t, err)

	assert.Equal(t, "demo", s.Name)
	require.Len(t, s.Steps, 3)
	assert.Equal(t, domain.ActionType("ADD"), s.Steps[1].Type)
	assert.Equal(t, 5, s.Steps[1].Payload["val"])
}

func TestParse_JSONList(t *testing.T) {
	s, err := script.Parse([]byte(`[{"type":"INCREMENT"},{"type":"ADD","payload":{"val":10}}]`))
	require.NoError(t, err)
	require.Len(t, s.Steps, 2)
	assert.Equal(t, domain.ActionType("INCREMENT"), s.Steps[0].Type)
}

func TestParse_Wait(t *testing.T) {
	s, err := script.Parse([]byte("- type: INCREMENT\n  wait: 20ms\n"))
	require.NoError(t, err)
	assert.Equal(t, 20*time.Millisecond, s.Steps[0].Wait)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", "   "},
		{"no steps", "name: nothing\n"},
		{"missing type", "steps:\n  - payload: {val: 1}\n"},
		{"malformed", "steps: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := script.Parse([]byte(tt.input))
			assert.Error(t, err)
		})
	}

	_, err := script.Parse(nil)
	assert.ErrorIs(t, err, script.ErrEmptyScript)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlScript), 0644))

	s, err := script.Load(path)
	require.NoError(t, err)
	assert.Len(t, s.Steps, 3)

	_, err = script.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestReplay(t *testing.T) {
	s, err := script.Parse([]byte(yamlScript))
	require.NoError(t, err)

	store := newStore()
	n, err := script.Replay(context.Background(), store, registry.NewDefault(registry.Config{}), s)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 4, counterValue(t, store))
}

func TestReplay_EffectWithWait(t *testing.T) {
	s, err := script.Parse([]byte(`
steps:
  - type: INCREMENT
  - type: STORE_RESULT_ASYNC
    payload: {result: 1, delay_ms: 5}
    wait: 200ms
`))
	require.NoError(t, err)

	store := newStore()
	_, err = script.Replay(context.Background(), store, registry.NewDefault(registry.Config{}), s)
	require.NoError(t, err)

	r, ok := flux.Select[results.State](store, results.Key)
	require.True(t, ok)
	assert.Len(t, r.Results, 1)
}

func TestReplay_StopsOnError(t *testing.T) {
	s := &script.Script{Steps: []script.Step{
		{Type: "INCREMENT"},
		{Type: "STORE_RESULT_ASYNC", Payload: domain.Payload{"delay_ms": "soon"}},
		{Type: "INCREMENT"},
	}}

	store := newStore()
	n, err := script.Replay(context.Background(), store, registry.NewDefault(registry.Config{}), s)
	assert.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, counterValue(t, store))
}

func TestReplay_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := script.Replay(ctx, newStore(), nil, &script.Script{Steps: []script.Step{{Type: "INCREMENT"}}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
}
