package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aretw0/flux/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Exposes sessions over a JSON API:

  GET    /sessions
  GET    /sessions/{id}/state
  POST   /sessions/{id}/dispatch   {"type": "ADD", "payload": {"val": 5}}
  GET    /sessions/{id}/history
  GET    /sessions/{id}/events     (SSE state diffs)
  DELETE /sessions/{id}
  GET    /metrics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		debug, _ := cmd.Flags().GetBool("debug")
		if !cmd.Flags().Changed("addr") {
			addr = cfg.HTTPAddr
		}

		stack, err := cli.NewStack(cfg, cli.StackOptions{Debug: debug, LogDispatches: true})
		if err != nil {
			return err
		}
		defer stack.Close()

		sigCtx := cli.NotifyInterrupt(context.Background())
		defer sigCtx.Stop()

		err = cli.Serve(sigCtx, stack, addr)
		if sig := sigCtx.Signal(); sig != nil {
			stack.Logger.Info("Server stopped", "signal", sig.String())
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on (FLUX_HTTP_ADDR)")
}
