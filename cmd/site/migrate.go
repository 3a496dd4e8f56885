package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"animalzone/site/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply PostgreSQL migrations for the postgres storage backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := storage.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer db.Close()

		applied, err := storage.ApplyMigrations(ctx, db, cfg.MigrationsDir)
		if err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}
		if len(applied) == 0 {
			logger.Info("database is up to date")
			return nil
		}
		logger.Info("applied migrations", zap.Strings("versions", applied))
		return nil
	},
}
