package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/config"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Run all pending database migrations`,
	RunE:  runMigrate,
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE:  runMigrateDown,
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied migration version",
	RunE:  runMigrateVersion,
}

var migrateDownSteps int

func init() {
	migrateDownCmd.Flags().IntVar(&migrateDownSteps, "steps", 1, "number of migrations to roll back")
	migrateCmd.AddCommand(migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}

// postgresURL loads config and rejects the memory driver, which has no schema.
func postgresURL() (string, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.StorageDriver != config.StoragePostgres {
		return "", fmt.Errorf("migrations require STORAGE_DRIVER=%s", config.StoragePostgres)
	}
	return cfg.DatabaseURL, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	dsn, err := postgresURL()
	if err != nil {
		return err
	}

	fmt.Println("Running database migrations...")
	if err := database.RunMigrations(dsn); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	fmt.Println("✓ Migrations completed successfully")
	return nil
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	dsn, err := postgresURL()
	if err != nil {
		return err
	}
	if err := database.RollbackMigrations(dsn, migrateDownSteps); err != nil {
		return err
	}
	fmt.Printf("✓ Rolled back %d migration(s)\n", migrateDownSteps)
	return nil
}

func runMigrateVersion(cmd *cobra.Command, args []string) error {
	dsn, err := postgresURL()
	if err != nil {
		return err
	}
	v, dirty, err := database.MigrationVersion(dsn)
	if err != nil {
		return err
	}
	fmt.Printf("version=%d dirty=%t\n", v, dirty)
	return nil
}
