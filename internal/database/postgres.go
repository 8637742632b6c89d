package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolOptions tunes NewPool. The zero value uses the defaults below.
type PoolOptions struct {
	MaxConns int32
	MinConns int32
	// SimpleProtocol disables the prepared statement cache; required behind
	// PgBouncer in transaction mode (SQLSTATE 42P05 otherwise).
	SimpleProtocol bool
	PingRetries    int
}

func (o PoolOptions) withDefaults() PoolOptions {
	if o.MaxConns <= 0 {
		o.MaxConns = 25
	}
	if o.MinConns <= 0 {
		o.MinConns = 5
	}
	if o.PingRetries <= 0 {
		o.PingRetries = 3
	}
	return o
}

// NewPool creates a new PostgreSQL connection pool with retry logic
func NewPool(ctx context.Context, databaseURL string, opts PoolOptions) (*pgxpool.Pool, error) {
	opts = opts.withDefaults()

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = opts.MaxConns
	config.MinConns = opts.MinConns
	config.HealthCheckPeriod = 1 * time.Minute
	config.MaxConnLifetime = 1 * time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	if opts.SimpleProtocol {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	// Retry ping with exponential backoff
	retryDelay := 1 * time.Second
	for i := 0; i < opts.PingRetries; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = pool.Ping(pingCtx)
		cancel()

		if err == nil {
			return pool, nil
		}

		if i < opts.PingRetries-1 {
			select {
			case <-ctx.Done():
				pool.Close()
				return nil, fmt.Errorf("database ping aborted: %w", ctx.Err())
			case <-time.After(retryDelay):
			}
			retryDelay *= 2
		}
	}

	pool.Close()
	return nil, fmt.Errorf("failed to ping database after %d retries: %w", opts.PingRetries, err)
}
