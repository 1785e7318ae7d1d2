package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fanfirst-engagement-service/internal/config"
	"fanfirst-engagement-service/internal/infra/sqlstore"
	"fanfirst-engagement-service/internal/infra/sqlstore/migrations"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return runMigrationsWithConfig(cmd.Context(), cfg, newLogger(cfg.Server.LogLevel))
		},
	}
}

// databaseTarget picks the bun driver and DSN. A bare postgres url still works.
func databaseTarget(cfg config.Config) (driver, dsn string) {
	if cfg.Database.Driver != "" {
		return cfg.Database.Driver, cfg.Database.DSN
	}
	if cfg.Postgres.URL != "" {
		return sqlstore.DriverPostgres, cfg.Postgres.URL
	}
	return "", ""
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	driver, dsn := databaseTarget(cfg)
	if driver == "" {
		return fmt.Errorf("database not configured")
	}

	db, err := sqlstore.Open(driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.Apply(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("migrations applied", "driver", driver)
	return nil
}
