package console

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/orris-inc/helpdesk/internal/infrastructure/config"
	"github.com/orris-inc/helpdesk/internal/infrastructure/database"
	"github.com/orris-inc/helpdesk/internal/infrastructure/migration"
	"github.com/orris-inc/helpdesk/internal/interfaces/cli/runtime"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

var (
	env        string
	configPath string
	output     string
	verbose    bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Start an interactive helpdesk session",
		Long: `Start an interactive session against the configured database. The console
signs in like a front end would and follows the same navigation rules.`,
		RunE: run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "default", "Server mode override (debug, release, test)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", FormatText, "Output format (text, json, yaml)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log at the configured level instead of warn")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.Options{File: configPath, Env: env, Optional: true})
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Log lines must not interleave with command output on stdout.
	if !verbose {
		cfg.Logger.Level = "warn"
	}
	if cfg.Logger.OutputPath == "" || cfg.Logger.OutputPath == "stdout" {
		cfg.Logger.OutputPath = "stderr"
	}
	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if err := migration.NewManager(cfg.Database.Driver, false).Migrate(database.Get()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	app, err := runtime.New(ctx, cfg, database.Get(), log, runtime.Options{})
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer app.Close()

	shell, err := NewShell(ctx, app, ShellOptions{
		In:     cmd.InOrStdin(),
		Out:    cmd.OutOrStdout(),
		Format: output,
	})
	if err != nil {
		return err
	}
	defer shell.Close()

	return shell.Run(ctx)
}
