package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/aretw0/flux"
	"github.com/aretw0/flux/internal/config"
	"github.com/aretw0/flux/internal/presentation/tui"
)

// RunOptions contains the configuration for the run command.
type RunOptions struct {
	SessionID string
	Fresh     bool
	JSON      bool
	Debug     bool
	// Script is replayed into the session before the prompt opens.
	Script string

	In  io.Reader
	Out io.Writer
}

// Run opens an interactive session on stdin/stdout.
func Run(cfg config.Config, opts RunOptions) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.SessionID == "" {
		opts.SessionID = cfg.DefaultSession
	}

	interactive := !opts.JSON && isTerminal(opts.In)

	stack, err := NewStack(cfg, StackOptions{Debug: opts.Debug, LogDispatches: opts.Debug})
	if err != nil {
		return err
	}
	defer stack.Close()

	sigCtx := NotifyInterrupt(context.Background())
	defer sigCtx.Stop()

	if opts.Fresh {
		if err := stack.Manager.Delete(sigCtx, opts.SessionID); err != nil {
			return fmt.Errorf("failed to reset session: %w", err)
		}
	}

	if opts.Script != "" {
		if _, err := ReplayFile(sigCtx, stack, opts.SessionID, opts.Script); err != nil {
			return err
		}
	}

	renderer := tui.PlainRenderer
	if interactive {
		tui.PrintBanner(opts.Out, flux.Version)
		fmt.Fprintf(opts.Out, ">>> Session '%s' active. Type 'help' for commands.\n", opts.SessionID)
		renderer = tui.NewRenderer()
	}

	repl := &REPL{
		In:           opts.In,
		Out:          opts.Out,
		Stack:        stack,
		Session:      opts.SessionID,
		Renderer:     renderer,
		JSON:         opts.JSON,
		Prompt:       interactive,
		MaxInputSize: cfg.MaxInputSize,
	}

	err = repl.Run(sigCtx)
	if errors.Is(err, context.Canceled) {
		if interactive && sigCtx.Signal() == os.Interrupt {
			fmt.Fprintf(opts.Out, "[CTRL+C]\n")
		}
		return nil
	}
	return err
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
