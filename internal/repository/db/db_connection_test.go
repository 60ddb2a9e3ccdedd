package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"conduit/internal/config"
	"conduit/internal/logger"
)

func TestInitDB_SQLiteMigrates(t *testing.T) {
	ctx := context.Background()
	cfg := config.DBConfig{
		Driver:         config.DriverSQLite,
		Path:           filepath.Join(t.TempDir(), "conduit.db"),
		ConnectRetries: 1,
		ConnectBackoff: time.Millisecond,
		AutoMigrate:    true,
	}

	conn, err := InitDB(ctx, cfg, logger.Nop())
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	defer conn.Close()

	version, err := MigrationVersion(ctx, conn)
	if err != nil {
		t.Fatalf("MigrationVersion: %v", err)
	}
	if version != 1 {
		t.Fatalf("version = %d, want 1", version)
	}

	for _, table := range []string{"users", "follows", "articles", "article_tags", "favorites", "comments"} {
		var name string
		err := conn.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}

	// Migrating twice is a no-op.
	if err := Migrate(ctx, conn); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestInitDB_UnknownDriver(t *testing.T) {
	_, err := InitDB(context.Background(), config.DBConfig{Driver: "oracle"}, logger.Nop())
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestWaitForDB_RetriesThenFails(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()

	pingErr := errors.New("connection refused")
	for i := 0; i < 3; i++ {
		mock.ExpectPing().WillReturnError(pingErr)
	}

	err = waitForDB(context.Background(), sqlDB, 2, time.Millisecond, logger.Nop())
	if !errors.Is(err, pingErr) {
		t.Fatalf("waitForDB error = %v, want %v", err, pingErr)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestWaitForDB_RecoversAfterFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectPing().WillReturnError(errors.New("not yet"))
	mock.ExpectPing()

	if err := waitForDB(context.Background(), sqlDB, 3, time.Millisecond, logger.Nop()); err != nil {
		t.Fatalf("waitForDB: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestWithTx(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()
	conn := NewConn(sqlDB, SQLite)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM comments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	err = conn.WithTx(context.Background(), func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM comments")
		return err
	})
	if err != nil {
		t.Fatalf("commit path: %v", err)
	}

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()
	err = conn.WithTx(context.Background(), func(context.Context, DBTX) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("rollback path error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
