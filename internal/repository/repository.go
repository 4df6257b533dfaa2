// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codeberg.org/oliverandrich/securelink/internal/config"
	"codeberg.org/oliverandrich/securelink/internal/database"
	"codeberg.org/oliverandrich/securelink/internal/models"
	"github.com/vinovest/sqlx"
)

// ErrNotFound is returned when a record is not found
var ErrNotFound = errors.New("record not found")

// Store is the secure link persistence used by the service.
type Store interface {
	FindSecureLinksByToken(ctx context.Context, token string) ([]models.SecureLink, error)
	MarkSecureLinkVerified(ctx context.Context, id string, verifiedAt time.Time) (bool, error)
	CreateSecureLink(ctx context.Context, link *models.SecureLink) error
	GetSecureLink(ctx context.Context, id string) (*models.SecureLink, error)
	DeleteExpiredSecureLinks(ctx context.Context, before time.Time) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// Repository wraps sqlx for SQLite operations
type Repository struct {
	db *sqlx.DB
}

// New creates a new Repository instance
func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// DB returns the underlying sqlx DB for direct access
func (r *Repository) DB() *sqlx.DB {
	return r.db
}

// Ping checks the database connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Open creates a migrated Store for the configured driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite", "sqlite3":
		db, err := database.Open(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite: %w", err)
		}
		if err := database.RunMigrations(db.DB, database.DialectSQLite); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrating sqlite: %w", err)
		}
		return New(db), nil
	case "postgres", "postgresql":
		pool, err := database.OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		sqlDB := database.SQLFromPool(pool)
		migrateErr := database.RunMigrations(sqlDB, database.DialectPostgres)
		_ = sqlDB.Close()
		if migrateErr != nil {
			pool.Close()
			return nil, fmt.Errorf("migrating postgres: %w", migrateErr)
		}
		return NewPostgres(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: sqlite, postgres)", cfg.Driver)
	}
}
