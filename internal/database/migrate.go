// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var embedMigrations embed.FS

// Dialect selects the migration set and goose dialect.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) dir() string {
	if d == DialectPostgres {
		return path.Join("migrations", "postgres")
	}
	return path.Join("migrations", "sqlite")
}

func setup(dialect Dialect) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	return goose.SetDialect(string(dialect))
}

// RunMigrations runs all pending goose migrations.
func RunMigrations(db *sql.DB, dialect Dialect) error {
	if err := setup(dialect); err != nil {
		return err
	}
	return goose.Up(db, dialect.dir())
}

// MigrateDown rolls back the last migration.
func MigrateDown(db *sql.DB, dialect Dialect) error {
	if err := setup(dialect); err != nil {
		return err
	}
	return goose.Down(db, dialect.dir())
}

// MigrateReset rolls back all migrations.
func MigrateReset(db *sql.DB, dialect Dialect) error {
	if err := setup(dialect); err != nil {
		return err
	}
	return goose.Reset(db, dialect.dir())
}

// MigrationVersion returns the current schema version.
func MigrationVersion(db *sql.DB, dialect Dialect) (int64, error) {
	if err := setup(dialect); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(db)
}

// OpenSQL opens a plain database/sql handle for the given driver, for
// tooling such as the migrate command. The returned func releases it.
func OpenSQL(ctx context.Context, driver, dsn string) (*sql.DB, Dialect, func(), error) {
	switch driver {
	case "", "sqlite", "sqlite3":
		db, err := Open(dsn)
		if err != nil {
			return nil, "", nil, err
		}
		return db.DB, DialectSQLite, func() { _ = db.Close() }, nil
	case "postgres", "postgresql":
		pool, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, "", nil, err
		}
		sqlDB := SQLFromPool(pool)
		return sqlDB, DialectPostgres, func() {
			_ = sqlDB.Close()
			pool.Close()
		}, nil
	default:
		return nil, "", nil, fmt.Errorf("unsupported database driver: %s (supported: sqlite, postgres)", driver)
	}
}
