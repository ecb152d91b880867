// Package cmd implements the stackline command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/stackline/internal/config"
	"github.com/zjrosen/stackline/internal/log"
	"github.com/zjrosen/stackline/internal/tracing"
)

// skipConfig marks commands that run without loading the config file.
const skipConfig = "skip-config"

var (
	cfgFile string
	cfg     config.Config

	shutdownTracing = func(context.Context) error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "stackline",
	Short: "Reorder commits across stacked series",
	Long: `stackline keeps virtual branches made of stacked series and reorders
their commits the way a drag and drop in the desktop client would.

It also lists recorded sessions and the review templates of a project's
forge.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		defer log.Sync()
		return shutdownTracing(cmd.Context())
	},
}

// Execute runs the root command with a context cancelled on SIGINT or SIGTERM.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/stackline/config.yaml)")
}

func initConfig(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[skipConfig] == "true" {
		cfg = config.Defaults()
		return nil
	}

	loaded, err := config.Load(config.NewViper(cfgFile), cfgFile != "")
	if err != nil {
		return err
	}
	cfg = loaded

	if err := log.Init(log.Options{Level: cfg.Log.Level, File: cfg.Log.File}); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}

	shutdown, err := tracing.Setup(cmd.Context(), "stackline", tracing.Options{
		Exporter: cfg.Tracing.Exporter,
		Endpoint: cfg.Tracing.Endpoint,
		Writer:   cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	shutdownTracing = func(ctx context.Context) error {
		err := shutdown(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	log.Debug(log.CatCLI, "Configuration loaded", "command", cmd.CommandPath(), "db", cfg.ResolvedDBPath())
	return nil
}
