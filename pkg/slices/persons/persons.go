// Package persons manages the person list with a visibility toggle.
package persons

import (
	"github.com/aretw0/flux/pkg/domain"
	"github.com/aretw0/flux/pkg/reducer"
)

// Key is the slice's name in the state tree.
const Key = "persons"

// Action types handled by the persons slice.
const (
	ActionToggle     domain.ActionType = "TOGGLE_PERSONS"
	ActionDelete     domain.ActionType = "DELETE_PERSON"
	ActionChangeName domain.ActionType = "CHANGE_PERSON_NAME"
)

// Person is one entry of the list.
type Person struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Age  int    `json:"age" yaml:"age"`
}

// State of the persons slice.
type State struct {
	Persons     []Person `json:"persons" yaml:"persons"`
	ShowPersons bool     `json:"show_persons" yaml:"show_persons"`
}

// Initial returns the seeded list, hidden.
func Initial() *State {
	return &State{
		Persons: []Person{
			{ID: 0, Name: "Adam", Age: 29},
			{ID: 1, Name: "Herpa", Age: 30},
			{ID: 2, Name: "Derpa", Age: 31},
		},
	}
}

type deletePayload struct {
	Index *int `mapstructure:"index"`
}

type renamePayload struct {
	ID   *int   `mapstructure:"id"`
	Name string `mapstructure:"name"`
}

// Toggle flips visibility.
func Toggle() domain.Action {
	return domain.NewAction(ActionToggle)
}

// Delete removes the person at index.
func Delete(index int) domain.Action {
	return domain.NewAction(ActionDelete, "index", index)
}

// ChangeName renames the person with id.
func ChangeName(id int, name string) domain.Action {
	return domain.NewAction(ActionChangeName, "id", id, "name", name)
}

// Reduce is the persons reducer.
func Reduce(state *State, action domain.Action) *State {
	if state == nil {
		state = Initial()
	}

	switch action.Type {
	case ActionToggle:
		next := *state
		next.ShowPersons = !state.ShowPersons
		return &next

	case ActionDelete:
		var p deletePayload
		if err := action.Decode(&p); err != nil || p.Index == nil {
			return state
		}
		i := *p.Index
		if i < 0 || i >= len(state.Persons) {
			return state
		}
		next := *state
		next.Persons = make([]Person, 0, len(state.Persons)-1)
		next.Persons = append(next.Persons, state.Persons[:i]...)
		next.Persons = append(next.Persons, state.Persons[i+1:]...)
		return &next

	case ActionChangeName:
		var p renamePayload
		if err := action.Decode(&p); err != nil || p.ID == nil {
			return state
		}
		idx := -1
		for i, person := range state.Persons {
			if person.ID == *p.ID {
				idx = i
				break
			}
		}
		if idx < 0 || state.Persons[idx].Name == p.Name {
			return state
		}
		next := *state
		next.Persons = make([]Person, len(state.Persons))
		copy(next.Persons, state.Persons)
		next.Persons[idx].Name = p.Name
		return &next

	default:
		return state
	}
}

// Emphasis returns the style classes for the headline: "red" once two or fewer
// persons remain, plus "bold" at one or none.
func (s *State) Emphasis() []string {
	var classes []string
	if len(s.Persons) <= 2 {
		classes = append(classes, "red")
	}
	if len(s.Persons) <= 1 {
		classes = append(classes, "bold")
	}
	return classes
}

// Slice binds Reduce to Key.
func Slice() reducer.Slice {
	return reducer.New(Key, Reduce)
}
