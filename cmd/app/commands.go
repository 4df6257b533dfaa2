// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"codeberg.org/oliverandrich/securelink/internal/config"
	"codeberg.org/oliverandrich/securelink/internal/database"
	"codeberg.org/oliverandrich/securelink/internal/repository"
	"codeberg.org/oliverandrich/securelink/internal/server"
	"github.com/urfave/cli/v3"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Commands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Apply all pending migrations",
				Action: migrateAction("up", database.RunMigrations),
			},
			{
				Name:   "down",
				Usage:  "Roll back the most recent migration",
				Action: migrateAction("down", database.MigrateDown),
			},
			{
				Name:   "reset",
				Usage:  "Roll back all migrations",
				Action: migrateAction("reset", database.MigrateReset),
			},
		},
	}
}

func migrateAction(name string, fn func(*sql.DB, database.Dialect) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg := config.NewFromCLI(cmd)
		server.SetupLogger(cfg.Log.Level, cfg.Log.Format)

		db, dialect, release, err := database.OpenSQL(ctx, cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer release()

		if err := fn(db, dialect); err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}

		version, err := database.MigrationVersion(db, dialect)
		if err != nil {
			return fmt.Errorf("reading migration version: %w", err)
		}
		slog.Info("migration finished", "direction", name, "dialect", string(dialect), "version", version)
		return nil
	}
}

func cleanupCommand() *cli.Command {
	return &cli.Command{
		Name:  "cleanup",
		Usage: "Delete secure links that expired before now minus --older-than",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "older-than",
				Usage: "Grace period after expiry before a link is deleted",
				Value: 30 * 24 * time.Hour,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.NewFromCLI(cmd)
			server.SetupLogger(cfg.Log.Level, cfg.Log.Format)

			store, err := repository.Open(ctx, cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer func() { _ = store.Close() }()

			_, err = cleanupExpired(ctx, store, time.Now(), cmd.Duration("older-than"))
			return err
		},
	}
}

// cleanupExpired deletes links whose expiry lies more than olderThan before now.
func cleanupExpired(ctx context.Context, store repository.Store, now time.Time, olderThan time.Duration) (int64, error) {
	if olderThan < 0 {
		return 0, fmt.Errorf("--older-than must not be negative")
	}
	cutoff := now.Add(-olderThan)

	n, err := store.DeleteExpiredSecureLinks(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting expired links: %w", err)
	}

	slog.Info("expired secure links deleted", "count", n, "cutoff", cutoff.Format(time.RFC3339))
	return n, nil
}
