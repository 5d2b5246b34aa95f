package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/flux/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	Counter int `json:"counter"`
}

func TestState_WithSharesUnchangedSlices(t *testing.T) {
	ctr := &counter{Counter: 1}
	res := &counter{Counter: 99}

	original := domain.NewState().With("ctr", ctr).With("res", res)
	next := original.With("ctr", &counter{Counter: 2})

	// Original is untouched
	got, ok := domain.SliceOf[counter](original, "ctr")
	require.True(t, ok)
	assert.Same(t, ctr, got)

	// Unchanged slice is shared, not copied
	shared, ok := domain.SliceOf[counter](next, "res")
	require.True(t, ok)
	assert.Same(t, res, shared)

	assert.Equal(t, []string{"ctr", "res"}, next.Keys())
}

func TestState_NilReceiver(t *testing.T) {
	var s *domain.State

	_, ok := s.Get("ctr")
	assert.False(t, ok)
	assert.Zero(t, s.Len())
	assert.Nil(t, s.Keys())

	next := s.With("ctr", &counter{})
	assert.Equal(t, 1, next.Len())
}

func TestState_SliceOfWrongType(t *testing.T) {
	s := domain.NewState().With("ctr", "not a counter")
	_, ok := domain.SliceOf[counter](s, "ctr")
	assert.False(t, ok)
}

func TestState_MarshalJSONKeepsOrder(t *testing.T) {
	s := domain.NewState().
		With("res", []int{1, 2}).
		With("ctr", &counter{Counter: 5})

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `{"res":[1,2],"ctr":{"counter":5}}`, string(data))
}

func TestSnapshot_RoundTripsSlices(t *testing.T) {
	s := domain.NewState().With("ctr", &counter{Counter: 7})

	snap, err := domain.NewSnapshot("sess-1", s)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", snap.SessionID)
	assert.Equal(t, []string{"ctr"}, snap.Keys)
	assert.JSONEq(t, `{"counter":7}`, string(snap.Slices["ctr"]))

	clone := snap.Clone()
	clone.Slices["ctr"][2] = 'X'
	assert.JSONEq(t, `{"counter":7}`, string(snap.Slices["ctr"]), "clone must not alias the original")
}
