package db

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"

	"conduit/internal/repository/db/migrations"
)

// Migrate applies every pending embedded migration.
func Migrate(ctx context.Context, conn *Conn) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(conn.Dialect.gooseDialect()); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, conn.DB, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// MigrationVersion reports the currently applied schema version.
func MigrationVersion(ctx context.Context, conn *Conn) (int64, error) {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(conn.Dialect.gooseDialect()); err != nil {
		return 0, fmt.Errorf("set goose dialect: %w", err)
	}
	return goose.GetDBVersionContext(ctx, conn.DB)
}
