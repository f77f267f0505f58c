package database

import (
	"context"
	"fmt"

	"reserva/internal/models"
)

// ListActiveTables returns the tenant's active tables ordered by capacity.
func (db *DB) ListActiveTables(ctx context.Context, tenantID string) ([]models.DiningTable, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, tenant_id, name, capacity, is_active
		FROM dining_tables
		WHERE tenant_id = ? AND is_active = 1
		ORDER BY capacity ASC`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []models.DiningTable
	for rows.Next() {
		var t models.DiningTable
		if err := rows.Scan(&t.ID, &t.TenantID, &t.Name, &t.Capacity, &t.IsActive); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// CreateTable inserts a dining table row. Used by seeding and tests.
func (db *DB) CreateTable(ctx context.Context, t *models.DiningTable) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO dining_tables (id, tenant_id, name, capacity, is_active)
		VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.TenantID, t.Name, t.Capacity, t.IsActive,
	)
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}
