// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"codeberg.org/oliverandrich/securelink/internal/database"
	"codeberg.org/oliverandrich/securelink/internal/models"
	"codeberg.org/oliverandrich/securelink/internal/repository"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
)

// NewTestDB creates a migrated in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	require.NoError(t, database.RunMigrations(db.DB, database.DialectSQLite))
	return db, repository.New(db)
}

// LinkOption customizes a test secure link.
type LinkOption func(*models.SecureLink)

// WithStatus sets the link status.
func WithStatus(status string) LinkOption {
	return func(l *models.SecureLink) { l.Status = status }
}

// WithExpiresAt sets the link expiry.
func WithExpiresAt(at time.Time) LinkOption {
	return func(l *models.SecureLink) { l.ExpiresAt = at }
}

// WithCustomer sets the customer name and email.
func WithCustomer(name, email string) LinkOption {
	return func(l *models.SecureLink) {
		l.CustomerName = name
		l.CustomerEmail = email
	}
}

// NewSecureLink builds a pending link for token that expires in a day.
func NewSecureLink(token string, opts ...LinkOption) *models.SecureLink {
	link := &models.SecureLink{
		Token:             token,
		Status:            models.StatusPending,
		ExpiresAt:         time.Now().Add(24 * time.Hour),
		CustomerEmail:     "alice@x.com",
		CustomerName:      "Alice",
		StaffCreatorEmail: "staff@x.com",
	}
	for _, opt := range opts {
		opt(link)
	}
	return link
}

// NewTestSecureLink stores a secure link built by NewSecureLink.
func NewTestSecureLink(t *testing.T, repo repository.Store, token string, opts ...LinkOption) *models.SecureLink {
	t.Helper()
	link := NewSecureLink(token, opts...)
	require.NoError(t, repo.CreateSecureLink(context.Background(), link))
	return link
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}
