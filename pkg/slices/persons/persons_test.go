package persons_test

import (
	"testing"

	"github.com/aretw0/flux/pkg/domain"
	"github.com/aretw0/flux/pkg/slices/persons"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduce_InitialState(t *testing.T) {
	state := persons.Reduce(nil, domain.Action{Type: domain.ActionInit})

	require.Len(t, state.Persons, 3)
	assert.Equal(t, persons.Person{ID: 0, Name: "Adam", Age: 29}, state.Persons[0])
	assert.False(t, state.ShowPersons)
}

func TestReduce_Toggle(t *testing.T) {
	state := persons.Initial()

	shown := persons.Reduce(state, persons.Toggle())
	assert.True(t, shown.ShowPersons)
	assert.False(t, state.ShowPersons)

	hidden := persons.Reduce(shown, persons.Toggle())
	assert.False(t, hidden.ShowPersons)
}

func TestReduce_Delete(t *testing.T) {
	state := persons.Initial()

	next := persons.Reduce(state, persons.Delete(1))
	require.Len(t, next.Persons, 2)
	assert.Equal(t, "Adam", next.Persons[0].Name)
	assert.Equal(t, "Derpa", next.Persons[1].Name)
	assert.Len(t, state.Persons, 3)

	assert.Same(t, state, persons.Reduce(state, persons.Delete(3)))
	assert.Same(t, state, persons.Reduce(state, persons.Delete(-1)))
	assert.Same(t, state, persons.Reduce(state, domain.NewAction(persons.ActionDelete)))
}

func TestReduce_ChangeName(t *testing.T) {
	state := persons.Initial()

	next := persons.Reduce(state, persons.ChangeName(2, "Max"))
	assert.Equal(t, "Max", next.Persons[2].Name)
	assert.Equal(t, "Derpa", state.Persons[2].Name)

	assert.Same(t, state, persons.Reduce(state, persons.ChangeName(9, "Nobody")))
	assert.Same(t, state, persons.Reduce(state, persons.ChangeName(0, "Adam")))
}

func TestEmphasis(t *testing.T) {
	state := persons.Initial()
	assert.Empty(t, state.Emphasis())

	state = persons.Reduce(state, persons.Delete(0))
	assert.Equal(t, []string{"red"}, state.Emphasis())

	state = persons.Reduce(state, persons.Delete(0))
	assert.Equal(t, []string{"red", "bold"}, state.Emphasis())
}
