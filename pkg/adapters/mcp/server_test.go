package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/flux/pkg/adapters/memory"
	"github.com/aretw0/flux/pkg/reducer"
	"github.com/aretw0/flux/pkg/registry"
	"github.com/aretw0/flux/pkg/session"
	"github.com/aretw0/flux/pkg/slices/counter"
	"github.com/aretw0/flux/pkg/slices/results"
)

func newServer(t *testing.T) *Server {
	t.Helper()
	mgr := session.NewManager(memory.NewStore(), reducer.Combine(counter.Slice(), results.Slice()),
		session.WithRegistry(registry.NewDefault(registry.Config{})),
	)
	return NewServer(mgr)
}

func call(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content %T", res.Content[0])
	return ""
}

func counterFrom(t *testing.T, raw string) int {
	t.Helper()
	var tree struct {
		Counter struct {
			Counter int `json:"counter"`
		} `json:"counter"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &tree))
	return tree.Counter.Counter
}

func TestDispatchTool(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	res, err := s.handleDispatch(ctx, call("dispatch", map[string]any{
		"type":    "ADD",
		"payload": map[string]any{"val": 4.0},
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, 4, counterFrom(t, text(t, res)))

	res, err = s.handleDispatch(ctx, call("dispatch", map[string]any{
		"type":    "SUBTRACT",
		"payload": `{"val": 1}`,
	}))
	require.NoError(t, err)
	assert.Equal(t, 3, counterFrom(t, text(t, res)))

	res, err = s.handleGetState(ctx, call("get_state", nil))
	require.NoError(t, err)
	assert.Equal(t, 3, counterFrom(t, text(t, res)))
}

func TestDispatchTool_Errors(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing type", map[string]any{}},
		{"bad payload json", map[string]any{"type": "ADD", "payload": "{"}},
		{"bad payload type", map[string]any{"type": "ADD", "payload": 3.0}},
		{"invalid effect", map[string]any{"type": "STORE_RESULT_ASYNC", "payload": map[string]any{"delay_ms": "soon"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.handleDispatch(ctx, call("dispatch", tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
		})
	}
}

func TestSessionScopedTools(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	_, err := s.handleDispatch(ctx, call("dispatch", map[string]any{
		"type":       "INCREMENT",
		"payload":    map[string]any{"val": 1},
		"session_id": "other",
	}))
	require.NoError(t, err)

	res, err := s.handleGetState(ctx, call("get_state", map[string]any{"session_id": "missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleGetHistory(ctx, call("get_history", map[string]any{"session_id": "other"}))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "INCREMENT")

	list, err := s.handleListSessions(ctx, call("list_sessions", nil), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, list.Sessions)
}

func TestStateResource(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	read := func(uri string) ([]mcp.ResourceContents, error) {
		req := mcp.ReadResourceRequest{}
		req.Params.URI = uri
		return s.readState(ctx, req)
	}

	// The default session reads as an empty tree before first use.
	contents, err := read(StateURI)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Equal(t, "{}", contents[0].(mcp.TextResourceContents).Text)

	_, err = s.handleDispatch(ctx, call("dispatch", map[string]any{"type": "ADD", "payload": map[string]any{"val": 2}}))
	require.NoError(t, err)

	contents, err = read(StateURI)
	require.NoError(t, err)
	assert.Equal(t, 2, counterFrom(t, contents[0].(mcp.TextResourceContents).Text))

	contents, err = read("flux://sessions/default/state")
	require.NoError(t, err)
	assert.Equal(t, 2, counterFrom(t, contents[0].(mcp.TextResourceContents).Text))

	_, err = read("flux://sessions/ghost/state")
	assert.Error(t, err)

	_, err = read("flux://elsewhere")
	assert.Error(t, err)
}
