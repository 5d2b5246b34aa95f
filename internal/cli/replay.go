package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/flux/pkg/script"
)

// ReplayFile replays the script at path into a session and returns the number
// of dispatched steps.
func ReplayFile(ctx context.Context, stack *Stack, sessionID, path string) (int, error) {
	s, err := script.Load(path)
	if err != nil {
		return 0, err
	}

	sess, err := stack.Manager.Open(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to open session: %w", err)
	}

	n, err := script.Replay(ctx, sess.Store, stack.Registry, s)
	stack.Logger.Info("Script replayed", "session_id", sessionID, "script", path, "steps", n, "err", err)
	if err != nil {
		return n, fmt.Errorf("replay %s: %w", path, err)
	}
	return n, nil
}
