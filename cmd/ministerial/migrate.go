package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sistema-ministerial-api/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := database.NewPostgres(cmd.Context(), cfg.Database)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer db.Close() //nolint:errcheck

		applied, err := database.Migrate(cmd.Context(), db)
		if err != nil {
			return err
		}
		logr.Info("migrations applied", zap.Strings("files", applied))
		return nil
	},
}
