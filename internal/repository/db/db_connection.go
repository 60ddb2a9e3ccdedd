// Package db opens the relational store, applies migrations and hides the
// placeholder differences between sqlite and postgres.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sethvargo/go-retry"
	_ "modernc.org/sqlite"

	"conduit/internal/config"
	"conduit/internal/logger"
)

const (
	sqliteDriverName   = "sqlite"
	postgresDriverName = "pgx"
)

// Conn is a connection pool together with the SQL dialect it speaks.
type Conn struct {
	*sql.DB
	Dialect Dialect
}

// NewConn wraps an already opened pool. Tests use it with sqlmock.
func NewConn(sqlDB *sql.DB, dialect Dialect) *Conn {
	return &Conn{DB: sqlDB, Dialect: dialect}
}

// Rebind rewrites a query written with ? placeholders for this connection's dialect.
func (c *Conn) Rebind(query string) string {
	return c.Dialect.Rebind(query)
}

// InitDB opens the configured store, waits for it to answer and, when enabled,
// migrates it to the latest schema.
func InitDB(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (*Conn, error) {
	var (
		conn *Conn
		err  error
	)
	switch cfg.Driver {
	case config.DriverSQLite:
		conn, err = openSQLite(cfg.Path)
	case config.DriverPostgres:
		conn, err = openPostgres(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := waitForDB(ctx, conn.DB, cfg.ConnectRetries, cfg.ConnectBackoff, log); err != nil {
		_ = conn.Close()
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := Migrate(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	log.Infow("db_ready", "driver", cfg.Driver, "auto_migrate", cfg.AutoMigrate)
	return conn, nil
}

// openSQLite opens/creates a SQLite DB file.
func openSQLite(path string) (*Conn, error) {
	sqlDB, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// Conservative pool settings for SQLite; the pragmas below are per connection.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}
	return NewConn(sqlDB, SQLite), nil
}

func openPostgres(dsn string) (*Conn, error) {
	sqlDB, err := sql.Open(postgresDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	return NewConn(sqlDB, Postgres), nil
}

// waitForDB pings with exponential backoff so the server can start before the
// database container is ready.
func waitForDB(ctx context.Context, sqlDB *sql.DB, retries uint64, base time.Duration, log *logger.Logger) error {
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	attempt := 0
	backoff := retry.WithMaxRetries(retries, retry.NewExponential(base))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := sqlDB.PingContext(ctx); err != nil {
			log.Warnw("db_ping_failed", "attempt", attempt, "err", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ping database after %d attempts: %w", attempt, err)
	}
	return nil
}
