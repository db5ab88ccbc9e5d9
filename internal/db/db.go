// Package db owns the PostgreSQL connection and schema migrations.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/vuxuanquyet204/webantoan/pkg/debug"
)

// DB wraps the connection pool shared by the repositories
type DB struct {
	*sql.DB
}

// New wraps an existing pool
func New(sqlDB *sql.DB) *DB {
	return &DB{DB: sqlDB}
}

// Open connects to databaseURL and verifies the connection
func Open(ctx context.Context, databaseURL string) (*DB, error) {
	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return New(sqlDB), nil
}

// Connect retries Open until it succeeds or ctx is done
func Connect(ctx context.Context, databaseURL string, retryDelay time.Duration) (*DB, error) {
	for attempt := 1; ; attempt++ {
		database, err := Open(ctx, databaseURL)
		if err == nil {
			debug.Info("Connected to database after %d attempt(s)", attempt)
			return database, nil
		}
		debug.Warning("Database not ready (attempt %d): %v", attempt, err)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("gave up connecting to database: %w", ctx.Err())
		case <-time.After(retryDelay):
		}
	}
}
