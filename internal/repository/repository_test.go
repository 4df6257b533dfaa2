// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"

	"codeberg.org/oliverandrich/securelink/internal/config"
	"codeberg.org/oliverandrich/securelink/internal/repository"
	"codeberg.org/oliverandrich/securelink/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	assert.NotNil(t, repo)
	assert.NotNil(t, repo.DB())
}

func TestPing(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	assert.NoError(t, repo.Ping(context.Background()))
}

func TestOpen_SQLite(t *testing.T) {
	store, err := repository.Open(context.Background(), config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    t.TempDir() + "/links.db",
	})
	require.NoError(t, err)
	defer func() {
		_ = store.Close()
	}()

	_, isSQLite := store.(*repository.Repository)
	assert.True(t, isSQLite)

	links, err := store.FindSecureLinksByToken(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestOpen_DefaultDriverIsSQLite(t *testing.T) {
	store, err := repository.Open(context.Background(), config.DatabaseConfig{DSN: ":memory:"})
	require.NoError(t, err)
	defer func() {
		_ = store.Close()
	}()

	_, isSQLite := store.(*repository.Repository)
	assert.True(t, isSQLite)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := repository.Open(context.Background(), config.DatabaseConfig{Driver: "mongodb"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestOpen_PostgresRequiresDSN(t *testing.T) {
	_, err := repository.Open(context.Background(), config.DatabaseConfig{Driver: "postgres"})

	assert.Error(t, err)
}
