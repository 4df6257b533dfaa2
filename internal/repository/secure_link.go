// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"codeberg.org/oliverandrich/securelink/internal/models"
	"github.com/google/uuid"
)

const secureLinkColumns = `id, token, status, expires_at, customer_email, customer_name,
	staff_creator_email, verified_at, created_at, updated_at`

// prepareSecureLink fills in defaults for a link about to be inserted.
func prepareSecureLink(link *models.SecureLink) {
	now := time.Now().UTC()
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	if link.Status == "" {
		link.Status = models.StatusPending
	}
	link.ExpiresAt = link.ExpiresAt.UTC()
	if link.CreatedAt.IsZero() {
		link.CreatedAt = now
	}
	link.UpdatedAt = now
}

// CreateSecureLink inserts a new secure link.
func (r *Repository) CreateSecureLink(ctx context.Context, link *models.SecureLink) error {
	prepareSecureLink(link)
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO secure_links (`+secureLinkColumns+`)
		VALUES (:id, :token, :status, :expires_at, :customer_email, :customer_name,
			:staff_creator_email, :verified_at, :created_at, :updated_at)`,
		link)
	return err
}

// GetSecureLink retrieves a secure link by ID.
func (r *Repository) GetSecureLink(ctx context.Context, id string) (*models.SecureLink, error) {
	var link models.SecureLink
	err := r.db.GetContext(ctx, &link, `SELECT `+secureLinkColumns+` FROM secure_links WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// FindSecureLinksByToken returns every link carrying token, oldest first.
func (r *Repository) FindSecureLinksByToken(ctx context.Context, token string) ([]models.SecureLink, error) {
	var links []models.SecureLink
	err := r.db.SelectContext(ctx, &links,
		`SELECT `+secureLinkColumns+` FROM secure_links WHERE token = ? ORDER BY created_at, id`, token)
	if err != nil {
		return nil, err
	}
	return links, nil
}

// MarkSecureLinkVerified moves a pending link to verified. It reports false
// when the link was not pending anymore.
func (r *Repository) MarkSecureLinkVerified(ctx context.Context, id string, verifiedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE secure_links SET status = ?, verified_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		models.StatusVerified, verifiedAt.UTC(), verifiedAt.UTC(), id, models.StatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteExpiredSecureLinks deletes links that expired before the given time.
func (r *Repository) DeleteExpiredSecureLinks(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM secure_links WHERE expires_at < ?`, before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
