// Package postgres keeps battle snapshots in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/tactics/internal/config"
)

// applicationName tags every connection in pg_stat_activity.
const applicationName = "tactics"

// ErrNotMigrated reports a database that lacks the battles table.
var ErrNotMigrated = errors.New("postgres: battles table missing; run cmd/migrate")

// Pool is a pgx connection pool for battle storage.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to the database cfg describes.
//
// Precondition: cfg passes config validation.
// Postcondition: Returns a pinged Pool or a non-nil error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database %s: %w", cfg.Name, err)
	}
	return &Pool{pool: pool}, nil
}

// Ready checks within timeout that the database answers and carries the
// battles schema.
//
// Postcondition: Returns ErrNotMigrated when the schema is missing.
func (p *Pool) Ready(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	var present bool
	err := p.pool.QueryRow(ctx, `SELECT to_regclass('public.battles') IS NOT NULL`).Scan(&present)
	if err != nil {
		return fmt.Errorf("checking battles schema: %w", err)
	}
	if !present {
		return ErrNotMigrated
	}
	return nil
}

// Close releases all pool resources.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}
