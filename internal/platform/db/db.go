// Package db opens the shared Postgres pool and validates the persisted
// schema before the bot is allowed to serve events.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Open opens a pgxpool for the given DSN with safe pool defaults.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// requiredTables are the tables the rating core cannot run without.
var requiredTables = []string{"movies", "ratings", "settings"}

// ValidateSchema probes every required table and returns an error naming the
// first missing one. Callers treat a missing table as startup-fatal.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, table := range requiredTables {
		var one int
		err := pool.QueryRow(ctx, fmt.Sprintf("SELECT 1 FROM %s LIMIT 1", table)).Scan(&one)
		if err == nil {
			continue
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
			return fmt.Errorf("schema validation: table %q does not exist (apply schema.sql)", table)
		}
		// An empty table scans no row; that is fine.
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		return fmt.Errorf("schema validation: probing %q: %w", table, err)
	}
	return nil
}
