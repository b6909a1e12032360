package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vogiaan1904/sessiongate/config"
	repo "github.com/vogiaan1904/sessiongate/internal/repository/postgres"
	"github.com/vogiaan1904/sessiongate/pkg/logger"
)

func Connect(ctx context.Context, cfg config.DatabaseConfig, l logger.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.RunMigrations {
		if err := repo.RunMigration(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migration: %w", err)
		}
	}

	l.Info(ctx, "Connected to Postgres.")

	return pool, nil
}

func Disconnect(ctx context.Context, pool *pgxpool.Pool, l logger.Logger) {
	if pool == nil {
		return
	}

	pool.Close()

	l.Info(ctx, "Connection to Postgres closed.")
}
