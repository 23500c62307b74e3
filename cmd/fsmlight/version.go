package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/fsmlight"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of fsmlight",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "fsmlight version %s\n", strings.TrimSpace(fsmlight.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
