package counter_test

import (
	"testing"

	"github.com/aretw0/flux/pkg/domain"
	"github.com/aretw0/flux/pkg/slices/counter"
	"github.com/stretchr/testify/assert"
)

func TestReduce(t *testing.T) {
	tests := []struct {
		name   string
		start  int
		action domain.Action
		want   int
	}{
		{"increment", 5, domain.NewAction(domain.ActionIncrement, "val", 1), 6},
		{"decrement", 5, counter.Decrement(), 4},
		{"add", 5, counter.Add(10), 15},
		{"subtract below zero", 5, domain.NewAction(domain.ActionSubtract, "val", 15), -10},
		{"float payload from json", 1, domain.NewAction(domain.ActionAdd, "val", 2.0), 3},
		{"string payload from cli", 1, domain.NewAction(domain.ActionAdd, "val", "4"), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := counter.Reduce(&counter.State{Counter: tt.start}, tt.action)
			assert.Equal(t, tt.want, got.Counter)
		})
	}
}

func TestReduce_InitialState(t *testing.T) {
	got := counter.Reduce(nil, domain.Action{Type: domain.ActionInit})
	assert.Equal(t, &counter.State{}, got)
}

func TestReduce_IdentityFallback(t *testing.T) {
	state := &counter.State{Counter: 5}

	for _, a := range []domain.Action{
		domain.NewAction("UNKNOWN", "val", 3),
		{},
		domain.NewAction(domain.ActionAdd),
		domain.NewAction(domain.ActionAdd, "val", "lots"),
	} {
		assert.Same(t, state, counter.Reduce(state, a), a.String())
	}
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	state := &counter.State{Counter: 5}
	action := counter.Add(3)

	next := counter.Reduce(state, action)

	assert.Equal(t, 5, state.Counter)
	assert.Equal(t, 8, next.Counter)
	assert.Equal(t, domain.Payload{"val": 3}, action.Payload)
}

func TestReduce_Deterministic(t *testing.T) {
	state := &counter.State{Counter: 2}
	a := counter.Reduce(state, counter.Subtract(7))
	b := counter.Reduce(state, counter.Subtract(7))
	assert.Equal(t, a, b)
	assert.NotSame(t, a, b)
}
