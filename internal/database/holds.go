package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"reserva/internal/models"
	"github.com/rs/zerolog"
)

// CreateHold inserts a hold row.
func (db *DB) CreateHold(ctx context.Context, h *models.Hold) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO holds (id, tenant_id, booking_time, party_size, duration_minutes, session_id, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.TenantID, h.BookingTime.UTC(), h.PartySize, h.DurationMinutes, h.SessionID, h.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("create hold: %w", err)
	}
	return nil
}

// GetActiveHold returns the hold only while it is unexpired. An expired hold
// is indistinguishable from a missing one, even if the row still exists.
func (db *DB) GetActiveHold(ctx context.Context, tenantID, holdID string) (*models.Hold, error) {
	var h models.Hold
	err := db.QueryRowContext(ctx, `
		SELECT id, tenant_id, booking_time, party_size, duration_minutes, session_id, expires_at, created_at
		FROM holds
		WHERE id = ? AND tenant_id = ? AND expires_at > ?
		LIMIT 1`,
		holdID, tenantID, time.Now().UTC(),
	).Scan(&h.ID, &h.TenantID, &h.BookingTime, &h.PartySize, &h.DurationMinutes, &h.SessionID, &h.ExpiresAt, &h.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHoldNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get hold: %w", err)
	}
	h.BookingTime = h.BookingTime.UTC()
	h.ExpiresAt = h.ExpiresAt.UTC()
	return &h, nil
}

// DeleteExpiredHolds removes holds past their expiry and returns the count.
func (db *DB) DeleteExpiredHolds(ctx context.Context) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM holds WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired holds: %w", err)
	}
	return res.RowsAffected()
}

// StartHoldSweeper periodically purges expired holds until ctx is cancelled.
func (db *DB) StartHoldSweeper(ctx context.Context, interval time.Duration, logger zerolog.Logger) {
	log := logger.With().Str("component", "hold_sweeper").Logger()
	log.Info().Dur("interval", interval).Msg("hold sweeper started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := db.DeleteExpiredHolds(ctx)
			if err != nil {
				log.Error().Err(err).Msg("sweep failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("removed", n).Msg("expired holds removed")
			}
		}
	}
}
