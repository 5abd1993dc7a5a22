package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status|version|reset]",
	Short:     "Manage database migrations",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status", "version", "reset"},
	RunE:      runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	// Initialize already applies pending migrations, so "up" only reports.
	store, err := openStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	switch args[0] {
	case "up":
		if err := store.RunMigrations(); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		fmt.Fprintln(out, "Migrations completed successfully")

	case "down":
		if err := store.RollbackMigration(); err != nil {
			return fmt.Errorf("failed to rollback migration: %w", err)
		}
		fmt.Fprintln(out, "Migration rolled back successfully")

	case "status":
		if err := store.MigrationStatus(); err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}

	case "version":
		version, err := store.GetDatabaseVersion()
		if err != nil {
			return fmt.Errorf("failed to get database version: %w", err)
		}
		fmt.Fprintf(out, "Current database version: %d\n", version)

	case "reset":
		if err := store.ResetDatabase(); err != nil {
			return fmt.Errorf("failed to reset database: %w", err)
		}
		fmt.Fprintln(out, "Database reset successfully")
	}
	return nil
}
