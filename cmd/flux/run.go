package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/flux/internal/cli"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open an interactive session",
	Long: `Opens a session and reads commands from stdin, one per line:

  INCREMENT
  ADD val=5
  STORE_RESULT_ASYNC result=10
  state | history | effects | help | quit

When stdin is not a terminal the banner and prompt are skipped, so commands can be piped in.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		fresh, _ := cmd.Flags().GetBool("fresh")
		jsonMode, _ := cmd.Flags().GetBool("json")
		debug, _ := cmd.Flags().GetBool("debug")
		scriptPath, _ := cmd.Flags().GetString("script")

		return cli.Run(cfg, cli.RunOptions{
			SessionID: sessionID,
			Fresh:     fresh,
			JSON:      jsonMode,
			Debug:     debug,
			Script:    scriptPath,
			In:        cmd.InOrStdin(),
			Out:       cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("session", "s", "", "Session id (FLUX_SESSION, default \"default\")")
	runCmd.Flags().Bool("fresh", false, "Delete the session before starting")
	runCmd.Flags().Bool("json", false, "Print states as JSON lines")
	runCmd.Flags().String("script", "", "Replay this script before reading stdin")
}
