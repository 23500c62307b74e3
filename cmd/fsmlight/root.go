package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/fsmlight/internal/config"
	"github.com/aretw0/fsmlight/internal/logging"
	"github.com/spf13/cobra"
)

var (
	// cfg and logger are populated by the root pre-run hook.
	cfg    config.Config
	logger = logging.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "fsmlight",
	Short: "fsmlight is a lightweight finite state machine engine",
	Long: `fsmlight validates, draws, runs and serves state machines described in YAML or JSON
definition files. Settings come from FSMLIGHT_* environment variables (and an optional .env
file); flags override them.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default from FSMLIGHT_LOG_LEVEL)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json (default from FSMLIGHT_LOG_FORMAT)")
	rootCmd.PersistentFlags().StringSlice("env-file", nil, "Dotenv files to load before reading the environment")
}

func setup(cmd *cobra.Command, args []string) error {
	envFiles, _ := cmd.Flags().GetStringSlice("env-file")
	loaded, err := config.Load(envFiles...)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("log-level") {
		loaded.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("log-format") {
		loaded.LogFormat, _ = cmd.Flags().GetString("log-format")
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	l, err := loaded.Logger()
	if err != nil {
		return err
	}
	cfg = loaded
	logger = l
	slog.SetDefault(logger)
	return nil
}
