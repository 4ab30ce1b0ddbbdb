package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"replyflow.app/relay/core/db/sqlc"
)

// DB wraps a pgxpool.Pool. Every store in the reply engine reads and writes through it,
// including the ledger whose unique insert is the engine's only synchronization point.
type DB struct {
	pool *pgxpool.Pool
}

type Config struct {
	DSN string

	// Server and worker both open a pool; keep these small behind PgBouncer.
	MaxConns int32
	MinConns int32

	// StatementTimeout bounds every statement on the pool's connections. Zero leaves the server default.
	StatementTimeout time.Duration
}

// New connects a pool and pings it once before handing it out.
func New(ctx context.Context, cfg Config) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	poolCfg.MaxConns = 10
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MinConns = 2
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.StatementTimeout > 0 {
		poolCfg.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%d", cfg.StatementTimeout.Milliseconds())
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// NewFromPool wraps an existing pool. Integration tests use it with a container-backed pool.
func NewFromPool(pool *pgxpool.Pool) *DB {
	return &DB{pool: pool}
}

func (db *DB) Close() {
	db.pool.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Queries returns a Queries bound to the pool. Statements autocommit, so a ledger reservation
// is visible to every other trigger path before the publisher is called.
func (db *DB) Queries() *sqlc.Queries {
	return sqlc.New(db.pool)
}
