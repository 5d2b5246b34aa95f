package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/flux"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of flux",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "flux version %s\n", flux.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
