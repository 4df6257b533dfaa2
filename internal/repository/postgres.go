// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"errors"
	"time"

	"codeberg.org/oliverandrich/securelink/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores secure links in PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a repository on top of a pgx pool.
func NewPostgres(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Ping checks the pool can reach the database.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the pool.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateSecureLink inserts a new secure link, filling ID, status and timestamps when unset.
func (r *PostgresRepository) CreateSecureLink(ctx context.Context, link *models.SecureLink) error {
	prepareSecureLink(link)
	_, err := r.pool.Exec(ctx,
		`INSERT INTO secure_links (`+secureLinkColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		link.ID, link.Token, link.Status, link.ExpiresAt, link.CustomerEmail, link.CustomerName,
		link.StaffCreatorEmail, link.VerifiedAt, link.CreatedAt, link.UpdatedAt)
	return err
}

// GetSecureLink retrieves a secure link by ID.
func (r *PostgresRepository) GetSecureLink(ctx context.Context, id string) (*models.SecureLink, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+secureLinkColumns+` FROM secure_links WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	link, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.SecureLink])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// FindSecureLinksByToken returns every link with the token, oldest first.
func (r *PostgresRepository) FindSecureLinksByToken(ctx context.Context, token string) ([]models.SecureLink, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+secureLinkColumns+` FROM secure_links WHERE token = $1 ORDER BY created_at, id`, token)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[models.SecureLink])
}

// MarkSecureLinkVerified moves a pending link to verified and reports
// whether this call made the transition.
func (r *PostgresRepository) MarkSecureLinkVerified(ctx context.Context, id string, verifiedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE secure_links SET status = $1, verified_at = $2, updated_at = $2
		WHERE id = $3 AND status = $4`,
		models.StatusVerified, verifiedAt.UTC(), id, models.StatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteExpiredSecureLinks deletes links that expired before the given time.
func (r *PostgresRepository) DeleteExpiredSecureLinks(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM secure_links WHERE expires_at < $1`, before.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
