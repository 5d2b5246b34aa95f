package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/flux/internal/cli"
	"github.com/aretw0/flux/internal/logging"
	"github.com/aretw0/flux/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes sessions as an MCP server so that agents can dispatch actions and read state.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		sessionID, _ := cmd.Flags().GetString("session")
		debug, _ := cmd.Flags().GetBool("debug")
		if sessionID == "" {
			sessionID = cfg.DefaultSession
		}

		// Logs go to stderr so they never corrupt JSON-RPC on stdout.
		level, _ := logging.ParseLevel(cfg.LogLevel)
		logger := logging.NewWithWriter(os.Stderr, level)
		log.SetOutput(os.Stderr)

		stack, err := cli.NewStack(cfg, cli.StackOptions{Debug: debug, Logger: logger})
		if err != nil {
			return err
		}
		defer stack.Close()

		srv := mcp.NewServer(stack.Manager,
			mcp.WithDefaultSession(sessionID),
			mcp.WithLogger(logger),
		)

		switch transport {
		case "stdio":
			logger.Info("Starting flux MCP Server (Stdio)", "session", sessionID)
			return srv.ServeStdio()
		case "sse":
			sigCtx := cli.NotifyInterrupt(context.Background())
			defer sigCtx.Stop()

			if err := srv.ServeSSE(sigCtx, port); err != nil && err != http.ErrServerClosed {
				return err
			}
			logger.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
	mcpCmd.Flags().StringP("session", "s", "", "Default session id (FLUX_SESSION, default \"default\")")
}
