package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/flux/internal/cli"
)

var replayCmd = &cobra.Command{
	Use:   "replay <script>",
	Short: "Replay an action script into a session",
	Long:  `Dispatches every step of a YAML or JSON action script in order, then prints the resulting state.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		debug, _ := cmd.Flags().GetBool("debug")
		if sessionID == "" {
			sessionID = cfg.DefaultSession
		}

		stack, err := cli.NewStack(cfg, cli.StackOptions{Debug: debug, LogDispatches: debug})
		if err != nil {
			return err
		}
		defer stack.Close()

		sigCtx := cli.NotifyInterrupt(context.Background())
		defer sigCtx.Stop()

		n, err := cli.ReplayFile(sigCtx, stack, sessionID, args[0])
		if err != nil {
			return err
		}

		state, err := stack.Manager.State(sigCtx, sessionID)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), ">>> %d steps replayed into '%s'.\n", n, sessionID)
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringP("session", "s", "", "Session id (FLUX_SESSION, default \"default\")")
}
