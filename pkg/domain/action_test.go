package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/flux/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAction(t *testing.T) {
	a := domain.NewAction(domain.ActionAdd, "val", 10, "dangling")
	assert.Equal(t, domain.ActionAdd, a.Type)
	assert.Equal(t, domain.Payload{"val": 10}, a.Payload)

	bare := domain.NewAction(domain.ActionIncrement)
	assert.Nil(t, bare.Payload)
	_, ok := bare.Get("val")
	assert.False(t, ok)
}

func TestAction_DecodeIsWeaklyTyped(t *testing.T) {
	var payload struct {
		Val int `mapstructure:"val"`
	}

	cases := map[string]any{
		"int":         5,
		"float":       5.0,
		"string":      "5",
		"json.Number": json.Number("5"),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			payload.Val = 0
			a := domain.NewAction(domain.ActionIncrement, "val", raw)
			require.NoError(t, a.Decode(&payload))
			assert.Equal(t, 5, payload.Val)
		})
	}
}

func TestAction_DecodeRejectsGarbage(t *testing.T) {
	var payload struct {
		Val int `mapstructure:"val"`
	}
	a := domain.NewAction(domain.ActionIncrement, "val", "five")
	err := a.Decode(&payload)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "INCREMENT")
}

func TestAction_JSONShape(t *testing.T) {
	var a domain.Action
	require.NoError(t, json.Unmarshal([]byte(`{"type":"ADD","payload":{"val":10}}`), &a))
	assert.Equal(t, domain.ActionAdd, a.Type)
	assert.Equal(t, "ADD map[val:10]", a.String())
}
