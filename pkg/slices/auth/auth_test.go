package auth_test

import (
	"testing"

	"github.com/aretw0/flux/pkg/domain"
	"github.com/aretw0/flux/pkg/slices/auth"
	"github.com/stretchr/testify/assert"
)

func TestNavigationItems(t *testing.T) {
	state := auth.Reduce(nil, domain.Action{Type: domain.ActionInit})
	assert.Len(t, state.NavigationItems(), 2, "two items when not authenticated")

	state = auth.Reduce(state, auth.Login())
	items := state.NavigationItems()
	assert.Len(t, items, 3, "three items when authenticated")
	assert.Contains(t, items, auth.NavigationItem{Link: "/logout", Label: "Logout"})
}

func TestReduce(t *testing.T) {
	state := &auth.State{}

	assert.Same(t, state, auth.Reduce(state, auth.Logout()))
	in := auth.Reduce(state, auth.Login())
	assert.True(t, in.Authenticated)
	assert.False(t, state.Authenticated)
	assert.Same(t, in, auth.Reduce(in, auth.Login()))
	assert.False(t, auth.Reduce(in, auth.Logout()).Authenticated)
	assert.Same(t, in, auth.Reduce(in, domain.NewAction("UNKNOWN")))
}
