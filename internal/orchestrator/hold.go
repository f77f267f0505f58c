package orchestrator

import (
	"context"
	"fmt"
	"time"

	"reserva/internal/extbooking"
	"reserva/internal/metrics"
	"reserva/internal/models"
	"github.com/google/uuid"
)

// HoldResult is the uniform hold shape returned by either path.
type HoldResult struct {
	HoldID    string    `json:"hold_id"`
	ExpiresAt time.Time `json:"expires_at"`
	TableIDs  []string  `json:"table_ids"`
	Degraded  bool      `json:"degraded"`
}

// CreateHold claims a slot, preferring the external service. The local
// fallback stores a hold row with the configured TTL and a fresh session id;
// it performs no real table assignment, so the returned table identifier is
// synthetic.
func (s *Service) CreateHold(ctx context.Context, tenant *models.Tenant, partySize int, slot time.Time) (*HoldResult, error) {
	ext, extErr := s.booking.CreateHold(ctx, extbooking.HoldRequest{
		TenantID:        tenant.ID,
		PartySize:       partySize,
		Slot:            slot.UTC(),
		DurationMinutes: models.DefaultBookingDurationMinutes,
	})
	if extErr == nil {
		metrics.IncHold("external")
		return &HoldResult{
			HoldID:    ext.HoldID,
			ExpiresAt: ext.ExpiresAt,
			TableIDs:  ext.TableIDs,
			Degraded:  false,
		}, nil
	}

	s.logger.Info().Err(extErr).Str("tenant_id", tenant.ID).
		Msg("external hold failed; creating local hold")

	h := &models.Hold{
		ID:              uuid.NewString(),
		TenantID:        tenant.ID,
		BookingTime:     slot.UTC(),
		PartySize:       partySize,
		DurationMinutes: models.DefaultBookingDurationMinutes,
		SessionID:       uuid.NewString(),
		ExpiresAt:       s.now().Add(s.holdTTL).UTC(),
	}
	if err := s.store.CreateHold(ctx, h); err != nil {
		return nil, fmt.Errorf("create local hold: %w", err)
	}

	metrics.IncHold("fallback")
	return &HoldResult{
		HoldID:    h.ID,
		ExpiresAt: h.ExpiresAt,
		TableIDs:  []string{"local-" + h.ID[:8]},
		Degraded:  true,
	}, nil
}
