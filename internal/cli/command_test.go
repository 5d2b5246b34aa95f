package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/flux/pkg/domain"
)

func TestParseCommand_Meta(t *testing.T) {
	for line, want := range map[string]CommandKind{
		"":        CommandNone,
		"   ":     CommandNone,
		"state":   CommandState,
		"history": CommandHistory,
		"effects": CommandEffects,
		"help":    CommandHelp,
		"q":       CommandQuit,
		"exit":    CommandQuit,
	} {
		cmd, err := ParseCommand(line)
		require.NoError(t, err, line)
		assert.Equal(t, want, cmd.Kind, line)
	}
}

func TestParseCommand_Actions(t *testing.T) {
	tests := []struct {
		line string
		want domain.Action
	}{
		{"INCREMENT", domain.Action{Type: "INCREMENT"}},
		{"add val=5", domain.Action{Type: "ADD", Payload: domain.Payload{"val": 5.0}}},
		{`STORE_RESULT result="hello world"`, domain.Action{Type: "STORE_RESULT", Payload: domain.Payload{"result": "hello world"}}},
		{`CHANGE_PERSON_NAME id=1 name=Max`, domain.Action{Type: "CHANGE_PERSON_NAME", Payload: domain.Payload{"id": 1.0, "name": "Max"}}},
		{`ADD {"val": 7}`, domain.Action{Type: "ADD", Payload: domain.Payload{"val": 7.0}}},
		{`STORE_RESULT result="say \"hi\""`, domain.Action{Type: "STORE_RESULT", Payload: domain.Payload{"result": `say "hi"`}}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cmd, err := ParseCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, CommandDispatch, cmd.Kind)
			assert.Equal(t, tt.want, cmd.Action)
		})
	}
}

func TestParseCommand_Errors(t *testing.T) {
	for _, line := range []string{
		`ADD {"val":`,
		`ADD val`,
		`ADD =5`,
		`STORE_RESULT result="open`,
	} {
		_, err := ParseCommand(line)
		assert.Error(t, err, line)
	}
}
