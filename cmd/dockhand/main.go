package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/loykin/dockhand"
)

// version is overridden at build time via -ldflags.
var version = "dev"

// GlobalFlags holds the persistent flags shared by subcommands.
type GlobalFlags struct {
	ConfigPath string
}

func main() {
	if err := buildRoot().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}

	root := &cobra.Command{
		Use:   "dockhand",
		Short: "Batch job orchestrator running containers on a schedule",
		Long: `Dockhand runs one-shot batch jobs as docker containers from versioned
task definitions, either on demand or on a cron schedule.

Examples:
  dockhand serve                      # Start with built-in defaults (SQLite)
  dockhand serve --config=config.toml # Start with a config file`,
	}
	root.PersistentFlags().StringVar(&globalFlags.ConfigPath, "config", "", "path to TOML config file (optional)")

	root.AddCommand(
		createServeCommand(globalFlags),
		createVersionCommand(),
	)
	return root
}

func createServeCommand(globalFlags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve [config.toml]",
		Short: "Start the dockhand daemon",
		Long: `Start the HTTP API and the background loops (runner, tracker,
scheduler). Configuration comes from the optional TOML file plus
DOCKHAND_* environment overrides.

Examples:
  dockhand serve
  dockhand serve config.toml
  dockhand serve --config=config.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := globalFlags.ConfigPath
			if len(args) > 0 {
				configPath = args[0]
			}
			return runServe(configPath)
		},
	}
}

func runServe(configPath string) error {
	cfg, err := dockhand.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	app, err := dockhand.New(cfg)
	if err != nil {
		return fmt.Errorf("error building application: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return app.Run(ctx)
}

func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the dockhand version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("dockhand %s\n", version)
		},
	}
}
