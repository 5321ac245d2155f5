package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/cli"
	"github.com/aretw0/espalier/internal/config"
	"github.com/aretw0/espalier/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "espalier",
	Short: "Espalier infers building-energy parameters with decision graphs",
	Long: `Espalier loads a decision graph, validates it against the field and parameter
schemas, and resolves building records into model parameters, one at a time or
in batch sweeps.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a TOML config file (default ./espalier.toml when present)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides config)")
}

// setup loads the configuration and builds the logger. Flags win over the
// config file and the environment.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(level), nil
}

// openEngine is setup followed by cli.NewEngine with the optional graph
// argument.
func openEngine(ctx context.Context, cmd *cobra.Command, args []string, extra ...espalier.Option) (*espalier.Engine, *config.Config, *slog.Logger, error) {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	var graphPath string
	if len(args) > 0 {
		graphPath = args[0]
	}
	eng, err := cli.NewEngine(ctx, cfg, graphPath, logger, extra...)
	if err != nil {
		return nil, nil, nil, err
	}
	return eng, cfg, logger, nil
}
