package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/flux/internal/presentation/tui"
	"github.com/aretw0/flux/pkg/domain"
	"github.com/aretw0/flux/pkg/session"
)

const helpText = `Commands:
  <TYPE> [key=value ...]   dispatch an action, e.g. ADD val=5
  <TYPE> {json}            dispatch with a JSON payload
  state                    print the current state
  history                  print dispatched actions
  effects                  list named effects (e.g. STORE_RESULT_ASYNC result=1)
  help                     show this help
  quit                     leave
`

// REPL reads commands from In and dispatches them into one session.
type REPL struct {
	In       io.Reader
	Out      io.Writer
	Stack    *Stack
	Session  string
	Renderer tui.Renderer
	// JSON prints states as single-line JSON instead of rendered markdown.
	JSON bool
	// Prompt prints a prompt before each line (interactive terminals).
	Prompt       bool
	MaxInputSize int

	outMu sync.Mutex
	last  *domain.State
}

// Run loops until quit, EOF or ctx cancellation. State changes made later by
// deferred effects are printed as they land.
func (r *REPL) Run(ctx context.Context) error {
	if r.Renderer == nil {
		r.Renderer = tui.PlainRenderer
	}

	sess, err := r.Stack.Manager.Open(ctx, r.Session)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	r.last = sess.State()
	unsubscribe := sess.Store.Subscribe(func() { r.onChange(sess) })
	defer unsubscribe()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(r.In)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		r.prompt()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case line := <-lines:
			quit, err := r.handle(ctx, sess, line)
			if err != nil {
				r.printf("%s\n", tui.Errorf("error: %v", err))
			}
			if quit {
				return nil
			}
		}
	}
}

func (r *REPL) handle(ctx context.Context, sess *session.Session, line string) (bool, error) {
	clean, err := SanitizeInput(line, r.MaxInputSize)
	if err != nil {
		return false, err
	}
	cmd, err := ParseCommand(clean)
	if err != nil {
		return false, err
	}

	switch cmd.Kind {
	case CommandNone:
	case CommandQuit:
		return true, nil
	case CommandHelp:
		r.printf("%s", helpText)
	case CommandEffects:
		r.printf("%s\n", strings.Join(r.Stack.Registry.Names(), "\n"))
	case CommandState:
		return false, r.printState(sess.State(), nil)
	case CommandHistory:
		for _, e := range sess.Recorder.History() {
			r.printf("%4d  %s  %s\n", e.Seq, e.At.Format("15:04:05.000"), e.Action)
		}
	case CommandDispatch:
		if _, err := r.Stack.Manager.Dispatch(ctx, r.Session, cmd.Action); err != nil {
			if errors.Is(err, domain.ErrUnhandledEffect) {
				return false, fmt.Errorf("%s is an effect: %w", cmd.Action.Type, err)
			}
			return false, err
		}
	}
	return false, nil
}

// onChange prints what changed since the last print.
func (r *REPL) onChange(sess *session.Session) {
	r.outMu.Lock()
	curr := sess.State()
	diff := domain.Diff(r.last, curr)
	r.last = curr
	r.outMu.Unlock()

	if diff.IsEmpty() {
		return
	}
	if err := r.printState(curr, diff); err != nil {
		r.printf("%s\n", tui.Errorf("render failed: %v", err))
	}
}

func (r *REPL) printState(state *domain.State, diff *domain.StateDiff) error {
	if r.JSON {
		data, err := json.Marshal(state)
		if err != nil {
			return err
		}
		r.printf("%s\n", data)
		return nil
	}
	out, err := tui.RenderState(r.Renderer, state, diff)
	if err != nil {
		return err
	}
	r.printf("%s", out)
	return nil
}

func (r *REPL) prompt() {
	if r.Prompt {
		r.printf("%s", tui.Prompt(r.Session))
	}
}

func (r *REPL) printf(format string, args ...any) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	fmt.Fprintf(r.Out, format, args...)
}
