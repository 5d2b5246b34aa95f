package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/flux/pkg/domain"
)

// CommandKind tells the REPL what a line asks for.
type CommandKind int

const (
	CommandNone CommandKind = iota
	CommandDispatch
	CommandState
	CommandHistory
	CommandEffects
	CommandHelp
	CommandQuit
)

// Command is a parsed REPL line.
type Command struct {
	Kind   CommandKind
	Action domain.Action
}

var metaCommands = map[string]CommandKind{
	"state":   CommandState,
	"history": CommandHistory,
	"effects": CommandEffects,
	"help":    CommandHelp,
	"?":       CommandHelp,
	"q":       CommandQuit,
	"quit":    CommandQuit,
	"exit":    CommandQuit,
}

// ParseCommand reads a REPL line. Lower-case meta commands (state, history,
// effects, help, quit) are matched first. Anything else is an action:
//
//	INCREMENT
//	add val=5
//	STORE_RESULT result="hello world"
//	ADD {"val": 5}
//
// The action type is upper-cased. key=value values are decoded as JSON when
// they parse as JSON and kept as strings otherwise.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{Kind: CommandNone}, nil
	}

	head, rest, _ := strings.Cut(line, " ")
	if kind, ok := metaCommands[head]; ok && rest == "" {
		return Command{Kind: kind}, nil
	}

	action := domain.Action{Type: domain.ActionType(strings.ToUpper(head))}
	rest = strings.TrimSpace(rest)

	switch {
	case rest == "":
	case strings.HasPrefix(rest, "{"):
		if err := json.Unmarshal([]byte(rest), &action.Payload); err != nil {
			return Command{}, fmt.Errorf("invalid JSON payload: %w", err)
		}
	default:
		payload, err := parsePairs(rest)
		if err != nil {
			return Command{}, err
		}
		action.Payload = payload
	}

	return Command{Kind: CommandDispatch, Action: action}, nil
}

func parsePairs(s string) (domain.Payload, error) {
	tokens, err := splitFields(s)
	if err != nil {
		return nil, err
	}

	payload := make(domain.Payload, len(tokens))
	for _, tok := range tokens {
		key, raw, ok := strings.Cut(tok, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", tok)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		payload[key] = v
	}
	return payload, nil
}

// splitFields splits on spaces outside double quotes. Quotes are kept so that
// quoted values decode as JSON strings.
func splitFields(s string) ([]string, error) {
	var (
		fields  []string
		current strings.Builder
		quoted  bool
		escaped bool
	)
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && quoted:
			escaped = true
		case r == '"':
			quoted = !quoted
		case r == ' ' && !quoted:
			if current.Len() > 0 {
				fields = append(fields, current.String())
				current.Reset()
			}
			continue
		}
		current.WriteRune(r)
	}
	if quoted {
		return nil, fmt.Errorf("unterminated quote in %q", s)
	}
	if current.Len() > 0 {
		fields = append(fields, current.String())
	}
	return fields, nil
}
