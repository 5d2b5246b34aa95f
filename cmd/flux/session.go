package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/flux/internal/cli"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persisted sessions",
	Long:  `List, inspect, and remove sessions held by the configured snapshot store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStack(func(stack *cli.Stack) error {
			return cli.ListSessions(cmd.Context(), stack, cmd.OutOrStdout())
		})
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print the stored snapshot of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStack(func(stack *cli.Stack) error {
			return cli.InspectSession(cmd.Context(), stack, args[0], cmd.OutOrStdout())
		})
	},
}

var sessionRmCmd = &cobra.Command{
	Use:     "rm <session-id>...",
	Aliases: []string{"delete"},
	Short:   "Remove sessions",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStack(func(stack *cli.Stack) error {
			return cli.RemoveSessions(cmd.Context(), stack, cmd.OutOrStdout(), args...)
		})
	},
}

func withStack(fn func(*cli.Stack) error) error {
	stack, err := cli.NewStack(cfg, cli.StackOptions{})
	if err != nil {
		return err
	}
	defer stack.Close()
	return fn(stack)
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd, sessionInspectCmd, sessionRmCmd)
}
