// Package auth tracks whether the user is logged in.
package auth

import (
	"github.com/aretw0/flux/pkg/domain"
	"github.com/aretw0/flux/pkg/reducer"
)

// Key is the slice's name in the state tree.
const Key = "auth"

// Action types handled by the auth slice.
const (
	ActionLogin  domain.ActionType = "AUTH_LOGIN"
	ActionLogout domain.ActionType = "AUTH_LOGOUT"
)

// State of the auth slice.
type State struct {
	Authenticated bool `json:"authenticated" yaml:"authenticated"`
}

// NavigationItem is one entry of the navigation bar.
type NavigationItem struct {
	Link   string `json:"link"`
	Label  string `json:"label"`
	Active bool   `json:"active,omitempty"`
}

// Login marks the user as authenticated.
func Login() domain.Action { return domain.NewAction(ActionLogin) }

// Logout clears authentication.
func Logout() domain.Action { return domain.NewAction(ActionLogout) }

// Reduce is the auth reducer.
func Reduce(state *State, action domain.Action) *State {
	if state == nil {
		state = &State{}
	}
	switch action.Type {
	case ActionLogin:
		if state.Authenticated {
			return state
		}
		return &State{Authenticated: true}
	case ActionLogout:
		if !state.Authenticated {
			return state
		}
		return &State{Authenticated: false}
	default:
		return state
	}
}

// NavigationItems lists the navigation entries; logout only appears when authenticated.
func (s *State) NavigationItems() []NavigationItem {
	items := []NavigationItem{
		{Link: "/", Label: "Burger Builder", Active: true},
		{Link: "/", Label: "Checkout"},
	}
	if s != nil && s.Authenticated {
		items = append(items, NavigationItem{Link: "/logout", Label: "Logout"})
	}
	return items
}

// Slice binds Reduce to Key.
func Slice() reducer.Slice {
	return reducer.New(Key, Reduce)
}
