package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/config"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/database"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/repo"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/store"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/store/memory"
)

// openStore returns the store set for cfg.StorageDriver. The pool is nil for
// the memory driver; callers close it otherwise.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger, runMigrations bool) (store.Set, *pgxpool.Pool, error) {
	if cfg.StorageDriver == config.StorageMemory {
		log.Warn(ctx, "using in-memory storage, data is lost on restart",
			logger.Module("main"),
			logger.Action("open_store"),
		)
		return memory.New().Set(), nil, nil
	}

	if runMigrations {
		log.Info(ctx, "running database migrations", logger.Module("main"), logger.Action("migrate"))
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return store.Set{}, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, database.PoolOptions{})
	if err != nil {
		return store.Set{}, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info(ctx, "database connected", logger.Module("main"), logger.Action("open_store"))
	return repo.NewSet(pool), pool, nil
}
