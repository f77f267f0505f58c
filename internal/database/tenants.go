package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"reserva/internal/models"
)

// GetTenantBySlug returns the active tenant with the given slug. Inactive
// tenants are reported the same way as missing ones.
func (db *DB) GetTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	var t models.Tenant
	var contactEmail sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT id, slug, name, timezone, currency, status, contact_email, created_at
		FROM tenants
		WHERE slug = ? AND status = 'active'
		LIMIT 1`,
		slug,
	).Scan(&t.ID, &t.Slug, &t.Name, &t.Timezone, &t.Currency, &t.Status, &contactEmail, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant by slug: %w", err)
	}
	t.ContactEmail = contactEmail.String
	return &t, nil
}

// CreateTenant inserts a tenant row. Used by seeding and tests; tenant
// management itself lives outside this service.
func (db *DB) CreateTenant(ctx context.Context, t *models.Tenant) error {
	if t.Status == "" {
		t.Status = models.TenantStatusActive
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO tenants (id, slug, name, timezone, currency, status, contact_email)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Slug, t.Name, t.Timezone, t.Currency, t.Status, t.ContactEmail,
	)
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}
	return nil
}
