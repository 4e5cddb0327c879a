package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"souschef/internal/app"
	"souschef/internal/config"
	"souschef/internal/logging"
	"souschef/internal/observability"
)

const version = "0.2.0"

// CLI carries the wired dependencies across commands
type CLI struct {
	config    *config.Manager
	container *app.Container
	observer  *observability.Observer

	verbose       bool
	maxIterations int
}

func newRootCommand() *cobra.Command {
	configureColor()
	cli := &CLI{}

	rootCmd := &cobra.Command{
		Use:   "souschef",
		Short: "souschef plans a dish from recipe to doorstep",
		Long: "souschef looks up a recipe, checks it against your pantry, orders whatever\n" +
			"is missing, and mails you the order confirmation before presenting the steps.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&cli.verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().IntVarP(&cli.maxIterations, "max-iterations", "n", 0, "Iteration cap (0 uses config)")

	rootCmd.AddCommand(newCookCommand(cli))
	rootCmd.AddCommand(newStatusCommand(cli))
	rootCmd.AddCommand(newCapabilitiesCommand(cli))
	rootCmd.AddCommand(newServeCommand(cli))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// initialize loads configuration and wires the capability stack
func (cli *CLI) initialize(ctx context.Context) error {
	manager, err := config.NewManager()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	cli.config = manager

	cfg := manager.Get()
	if cli.maxIterations > 0 {
		if err := manager.Set("max_iterations", cli.maxIterations); err != nil {
			return err
		}
		cfg = manager.Get()
	}

	logging.Default().SetLevel(logging.ParseLevel(cfg.LogLevel))
	logger := logging.NewComponentLogger("CLI")

	observer, err := observability.NewObserver(ctx, observability.Config{
		Enabled:         cfg.Metrics.Enabled,
		PrometheusPort:  cfg.Metrics.PrometheusPort,
		TracingEnabled:  cfg.Tracing.Enabled,
		TracingEndpoint: cfg.Tracing.Endpoint,
	})
	if err != nil {
		return fmt.Errorf("start observability: %w", err)
	}
	cli.observer = observer

	container, err := app.Build(ctx, app.Options{
		Config:   cfg,
		Logger:   logger,
		Observer: observer,
	})
	if err != nil {
		return fmt.Errorf("wire capability stack: %w", err)
	}
	cli.container = container
	return nil
}

func (cli *CLI) shutdown(ctx context.Context) {
	if cli.observer != nil {
		if err := cli.observer.Shutdown(ctx); err != nil {
			logging.Default().Warn("observability shutdown: %v", err)
		}
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the souschef version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("souschef %s\n", version)
		},
	}
}

func dishFromArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
