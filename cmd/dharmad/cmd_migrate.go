package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sandeepkv93/dharmasync/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back the store schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all migrations (creates indexes on mongo)",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer repo.Close()
		logger.Info("migrations applied", zap.String("store", cfg.Store.Driver))
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all migrations (sql stores only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Store.Driver == storage.DriverMongo {
			return fmt.Errorf("migrate down is not supported for %s", storage.DriverMongo)
		}
		repo, err := storage.OpenSQL(cmd.Context(), cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			return err
		}
		defer repo.Close()
		if err := repo.Rollback(cmd.Context()); err != nil {
			return err
		}
		logger.Info("migrations rolled back", zap.String("store", cfg.Store.Driver))
		fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}
