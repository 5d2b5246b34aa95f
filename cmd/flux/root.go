package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/flux/internal/config"
)

// cfg is loaded from the environment before any command runs; flags override it.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "flux",
	Short: "flux is a unidirectional data flow store",
	Long: `flux keeps a single state tree per session, changed only by dispatched actions
that flow through middleware into pure slice reducers.

Configuration is read from FLUX_* environment variables; flags take precedence.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("backend") {
			cfg.Backend, _ = flags.GetString("backend")
		}
		if flags.Changed("session-dir") {
			cfg.SessionDir, _ = flags.GetString("session-dir")
		}
		if flags.Changed("format") {
			cfg.SessionFormat, _ = flags.GetString("format")
		}
		if flags.Changed("redis") {
			cfg.RedisAddr, _ = flags.GetString("redis")
			if !flags.Changed("backend") {
				cfg.Backend = config.BackendRedis
			}
		}
		if flags.Changed("log-level") {
			cfg.LogLevel, _ = flags.GetString("log-level")
		}
		return cfg.Validate()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("backend", config.BackendFile, "Snapshot store: memory, file or redis (FLUX_BACKEND)")
	rootCmd.PersistentFlags().String("session-dir", ".flux/sessions", "Directory of the file backend (FLUX_SESSION_DIR)")
	rootCmd.PersistentFlags().String("format", "json", "Snapshot encoding of the file backend: json or yaml (FLUX_SESSION_FORMAT)")
	rootCmd.PersistentFlags().String("redis", "", "Redis address; implies --backend redis (FLUX_REDIS_ADDR)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error (FLUX_LOG_LEVEL)")
	rootCmd.PersistentFlags().Bool("debug", false, "Log every dispatch at debug level")
}
