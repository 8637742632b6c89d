package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/config"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/store"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Cleanup expired idempotency keys",
	Long:  `Remove idempotency keys older than 24 hours from the database`,
	RunE:  runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.OTELServiceName, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	set, pool, err := openStore(ctx, cfg, log, false)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	rowsDeleted, err := cleanupIdempotency(ctx, set.Idempotency, log)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Cleanup completed: %d expired keys removed\n", rowsDeleted)
	return nil
}

func cleanupIdempotency(ctx context.Context, keys store.Idempotency, log *logger.Logger) (int64, error) {
	log.Info(ctx, "starting idempotency keys cleanup", logger.Module("idempotency"), logger.Action("cleanup"))

	rowsDeleted, err := keys.CleanupExpired(ctx)
	if err != nil {
		log.Error(ctx, "cleanup failed", logger.Module("idempotency"), logger.Action("cleanup"), zap.Error(err))
		return 0, fmt.Errorf("failed to cleanup expired keys: %w", err)
	}

	log.Info(ctx, "cleanup completed",
		logger.Module("idempotency"),
		logger.Action("cleanup"),
		zap.Int64("rows_deleted", rowsDeleted),
	)
	return rowsDeleted, nil
}
