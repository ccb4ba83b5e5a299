// Package postgres persists the boss kill ledger in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kaetram/mobengine/internal/config"
)

// applicationName tags every ledger connection in pg_stat_activity.
const applicationName = "mobengine"

// ErrLedgerMissing is returned by CheckLedger when the database is reachable
// but the boss_kills table has not been migrated.
var ErrLedgerMissing = errors.New("boss_kills table is missing")

// Pool is the kill ledger's connection pool.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to the ledger database described by cfg.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a Pool whose database answered a ping, or a non-nil
// error with no connections left open.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing ledger dsn: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("opening ledger pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("reaching ledger database %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return &Pool{pool: pool}, nil
}

// Health reports whether the database answers a ping within timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

// CheckLedger reports whether kills can be recorded: the database must answer
// within timeout and the boss_kills table must exist.
//
// Postcondition: Returns ErrLedgerMissing when the schema is not migrated.
func (p *Pool) CheckLedger(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var present bool
	if err := p.pool.QueryRow(ctx, `SELECT to_regclass('public.boss_kills') IS NOT NULL`).Scan(&present); err != nil {
		return fmt.Errorf("checking kill ledger: %w", err)
	}
	if !present {
		return ErrLedgerMissing
	}
	return nil
}

// Close releases every connection. The pool is unusable afterwards.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool for repositories.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}
