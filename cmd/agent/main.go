package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Spok95/catalog-agent/internal/config"
	"github.com/Spok95/catalog-agent/internal/infra/db"
	"github.com/Spok95/catalog-agent/internal/infra/logger"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "catalog-agent",
		Short: "Virtual agent for the product catalog",
		Long: `catalog-agent walks users through creating, viewing, updating and
deleting product specifications and offerings over Telegram and WebSocket.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "config/example.yaml", "Path to the YAML config")

	rootCmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := logger.New(cfg.App.Env)
			if cfg.Postgres.DSN == "" {
				return fmt.Errorf("postgres.dsn is not set")
			}
			if err := db.Migrate(cmd.Context(), cfg.Postgres.DSN); err != nil {
				return fmt.Errorf("migrations failed: %w", err)
			}
			log.Info("migrations applied")
			return nil
		},
	}
}
