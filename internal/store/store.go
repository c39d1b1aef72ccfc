// Package store opens the configured storage backend.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/sazalo101/mindis/internal/auth"
	"github.com/sazalo101/mindis/internal/config"
	"github.com/sazalo101/mindis/internal/db"
	"github.com/sazalo101/mindis/internal/history"
	"github.com/sazalo101/mindis/internal/models"
	"github.com/sazalo101/mindis/internal/store/postgres"
	"github.com/sazalo101/mindis/internal/store/sqlite"
)

type Store interface {
	auth.UserStore
	history.Store
	Ping(ctx context.Context) error
	Close() error
}

// Open connects to the backend named by cfg.DatabaseDriver and applies
// pending migrations.
func Open(ctx context.Context, cfg config.Config, clock models.Clock, logger *slog.Logger) (Store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("database connect failed: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("database ping failed: %w", err)
		}
		if err := db.MigratePool(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, err
		}
		return postgres.New(pool, clock), nil

	case config.DriverSQLite:
		conn, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx, conn, db.DialectSQLite, logger); err != nil {
			conn.Close()
			return nil, err
		}
		return sqlite.New(conn, clock), nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}

// SchemaVersion reports the applied migration version of s.
func SchemaVersion(ctx context.Context, s Store) (int64, error) {
	switch backend := s.(type) {
	case *postgres.Store:
		conn := stdlib.OpenDBFromPool(backend.Pool())
		defer conn.Close()
		return db.Version(ctx, conn, db.DialectPostgres)
	case *sqlite.Store:
		return db.Version(ctx, backend.DB(), db.DialectSQLite)
	default:
		return 0, fmt.Errorf("unknown store type %T", s)
	}
}
