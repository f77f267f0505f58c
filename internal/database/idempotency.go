package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"reserva/internal/models"
)

// GetIdempotencyRecord returns the stored response for (tenant, key), or nil
// when no record exists. A present record is authoritative and must
// short-circuit further processing.
func (db *DB) GetIdempotencyRecord(ctx context.Context, tenantID, key string) (*models.IdempotencyRecord, error) {
	var rec models.IdempotencyRecord
	err := db.QueryRowContext(ctx, `
		SELECT tenant_id, idempotency_key, request_id, status_code, response_body, created_at
		FROM idempotency_records
		WHERE tenant_id = ? AND idempotency_key = ?
		LIMIT 1`,
		tenantID, key,
	).Scan(&rec.TenantID, &rec.IdempotencyKey, &rec.RequestID, &rec.StatusCode, &rec.ResponseBody, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get idempotency record: %w", err)
	}
	return &rec, nil
}

// PutIdempotencyRecord stores a response under (tenant, key). Write-once: if
// a concurrent request already stored a record for the same pair, the loser's
// insert is rejected by the unique constraint and swallowed here; only one
// row ever persists.
func (db *DB) PutIdempotencyRecord(ctx context.Context, rec *models.IdempotencyRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO idempotency_records (tenant_id, idempotency_key, request_id, status_code, response_body)
		VALUES (?, ?, ?, ?, ?)`,
		rec.TenantID, rec.IdempotencyKey, rec.RequestID, rec.StatusCode, rec.ResponseBody,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("put idempotency record: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
