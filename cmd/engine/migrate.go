package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/config"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/persistence/postgres"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Database.Driver != "postgres" {
				return fmt.Errorf("migrations need the postgres driver, got %q", cfg.Database.Driver)
			}
			return applyMigrations(cmd.Context(), cfg, logger)
		},
	}
}

func applyMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("applying database migrations", "host", cfg.Database.Host, "database", cfg.Database.Name)

	if err := postgres.Migrate(ctx, cfg.Database.DSN()); err != nil {
		return err
	}

	logger.Info("database migrations applied")
	return nil
}
