package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// ListSessions prints persisted session ids.
func ListSessions(ctx context.Context, stack *Stack, out io.Writer) error {
	ids, err := stack.Manager.List(ctx)
	if err != nil {
		return fmt.Errorf("error listing sessions: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(out, "No sessions found.")
		return nil
	}
	fmt.Fprintln(out, "Sessions:")
	for _, id := range ids {
		fmt.Fprintln(out, "- "+id)
	}
	return nil
}

// InspectSession prints the stored snapshot of a session as indented JSON.
func InspectSession(ctx context.Context, stack *Stack, sessionID string, out io.Writer) error {
	snap, err := stack.Manager.Snapshot(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("error loading session '%s': %w", sessionID, err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))
	return nil
}

// RemoveSessions deletes the given sessions.
func RemoveSessions(ctx context.Context, stack *Stack, out io.Writer, ids ...string) error {
	for _, id := range ids {
		if err := stack.Manager.Delete(ctx, id); err != nil {
			return fmt.Errorf("error removing session '%s': %w", id, err)
		}
		fmt.Fprintf(out, "Session '%s' removed.\n", id)
	}
	return nil
}
