// Package counter holds a single integer adjusted by INCREMENT, DECREMENT, ADD and SUBTRACT.
package counter

import (
	"github.com/aretw0/flux/pkg/domain"
	"github.com/aretw0/flux/pkg/reducer"
)

// Key is the slice's name in the state tree.
const Key = "counter"

// State of the counter slice.
type State struct {
	Counter int `json:"counter" yaml:"counter"`
}

type payload struct {
	Val int `mapstructure:"val"`
}

// Increment adds one.
func Increment() domain.Action {
	return domain.NewAction(domain.ActionIncrement, "val", 1)
}

// Decrement subtracts one.
func Decrement() domain.Action {
	return domain.NewAction(domain.ActionDecrement, "val", 1)
}

// Add adds val.
func Add(val int) domain.Action {
	return domain.NewAction(domain.ActionAdd, "val", val)
}

// Subtract subtracts val.
func Subtract(val int) domain.Action {
	return domain.NewAction(domain.ActionSubtract, "val", val)
}

// Reduce is the counter reducer.
func Reduce(state *State, action domain.Action) *State {
	if state == nil {
		state = &State{}
	}

	var sign int
	switch action.Type {
	case domain.ActionIncrement, domain.ActionAdd:
		sign = 1
	case domain.ActionDecrement, domain.ActionSubtract:
		sign = -1
	default:
		return state
	}

	var p payload
	if err := action.Decode(&p); err != nil || p.Val == 0 {
		return state
	}

	next := *state
	next.Counter += sign * p.Val
	return &next
}

// Slice binds Reduce to Key.
func Slice() reducer.Slice {
	return reducer.New(Key, Reduce)
}
