package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"reserva/internal/models"
)

// GetBusinessHours returns the tenant's open/close record for a day of week
// (0 = Sunday .. 6 = Saturday), or nil when none is configured.
func (db *DB) GetBusinessHours(ctx context.Context, tenantID string, dayOfWeek int) (*models.BusinessHours, error) {
	var h models.BusinessHours
	err := db.QueryRowContext(ctx, `
		SELECT tenant_id, day_of_week, is_open, open_time, close_time
		FROM business_hours
		WHERE tenant_id = ? AND day_of_week = ?
		LIMIT 1`,
		tenantID, dayOfWeek,
	).Scan(&h.TenantID, &h.DayOfWeek, &h.IsOpen, &h.OpenTime, &h.CloseTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get business hours: %w", err)
	}
	return &h, nil
}

// SetBusinessHours upserts a per-day record. Used by seeding and tests.
func (db *DB) SetBusinessHours(ctx context.Context, h *models.BusinessHours) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO business_hours (tenant_id, day_of_week, is_open, open_time, close_time)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (tenant_id, day_of_week)
		DO UPDATE SET is_open = excluded.is_open, open_time = excluded.open_time, close_time = excluded.close_time`,
		h.TenantID, h.DayOfWeek, h.IsOpen, h.OpenTime, h.CloseTime,
	)
	if err != nil {
		return fmt.Errorf("set business hours: %w", err)
	}
	return nil
}

// operationalHours mirrors the per-day window shape stored in the
// operational_settings JSON blob, keyed by day index as a string.
type operationalHours struct {
	Open   string `json:"open"`
	Close  string `json:"close"`
	IsOpen *bool  `json:"is_open,omitempty"`
}

// GetOperationalHours returns the secondary per-tenant settings window for a
// day index, or nil when the settings row or day entry is absent.
func (db *DB) GetOperationalHours(ctx context.Context, tenantID string, dayOfWeek int) (*models.BusinessHours, error) {
	var raw string
	err := db.QueryRowContext(ctx,
		`SELECT hours_json FROM operational_settings WHERE tenant_id = ? LIMIT 1`,
		tenantID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get operational settings: %w", err)
	}

	var byDay map[string]operationalHours
	if err := json.Unmarshal([]byte(raw), &byDay); err != nil {
		return nil, fmt.Errorf("parse operational hours: %w", err)
	}

	entry, ok := byDay[strconv.Itoa(dayOfWeek)]
	if !ok || entry.Open == "" || entry.Close == "" {
		return nil, nil
	}
	isOpen := entry.IsOpen == nil || *entry.IsOpen
	return &models.BusinessHours{
		TenantID:  tenantID,
		DayOfWeek: dayOfWeek,
		IsOpen:    isOpen,
		OpenTime:  entry.Open,
		CloseTime: entry.Close,
	}, nil
}

// SetOperationalHours stores the JSON hours blob for a tenant. Used by
// seeding and tests.
func (db *DB) SetOperationalHours(ctx context.Context, tenantID, hoursJSON string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO operational_settings (tenant_id, hours_json)
		VALUES (?, ?)
		ON CONFLICT (tenant_id) DO UPDATE SET hours_json = excluded.hours_json, updated_at = CURRENT_TIMESTAMP`,
		tenantID, hoursJSON,
	)
	if err != nil {
		return fmt.Errorf("set operational hours: %w", err)
	}
	return nil
}
