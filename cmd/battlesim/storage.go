package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cory-johannsen/tactics/internal/config"
	"github.com/cory-johannsen/tactics/internal/storage"
	"github.com/cory-johannsen/tactics/internal/storage/postgres"
	"github.com/cory-johannsen/tactics/internal/storage/sqlite"
)

// openRepository opens the repository cfg.Storage.Driver names, or returns
// nil for "none".
func openRepository(ctx context.Context, cfg config.Config) (storage.BattleRepository, error) {
	switch cfg.Storage.Driver {
	case "", "none":
		return nil, nil
	case "sqlite":
		repo, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := pool.Ready(ctx, 5*time.Second); err != nil {
			pool.Close()
			return nil, err
		}
		return postgres.OpenBattleRepository(pool), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
