package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"reserva/internal/extbooking"
	"reserva/internal/metrics"
	"reserva/internal/models"
	"reserva/internal/notify"
	"github.com/google/uuid"
)

// GuestDetails is the contact information collected at checkout.
type GuestDetails struct {
	Name            string
	Email           string
	Phone           string
	SpecialRequests string
}

// ConfirmInput is one confirmation attempt.
type ConfirmInput struct {
	HoldID         string
	IdempotencyKey string
	RequestID      string
	Guest          GuestDetails
}

// ConfirmOutput carries the exact response body to write. For a replayed
// idempotency key, Body is the previously stored response byte-for-byte.
type ConfirmOutput struct {
	StatusCode int
	Body       []byte
	Replayed   bool
}

// confirmResponse is the success body persisted under the idempotency key.
type confirmResponse struct {
	Success            bool   `json:"success"`
	ReservationID      string `json:"reservation_id"`
	ConfirmationNumber string `json:"confirmation_number"`
	Status             string `json:"status"`
	Degraded           bool   `json:"degraded,omitempty"`
	RequestID          string `json:"requestId"`
}

// ConfirmReservation converts a hold into a booking.
//
// The idempotency read happens before any state-mutating operation. Two
// concurrent requests with the same key may both pass it and proceed; the
// store's unique constraint on (tenant, key) keeps exactly one persisted
// record, and each request still returns its own successful outcome.
func (s *Service) ConfirmReservation(ctx context.Context, tenant *models.Tenant, in ConfirmInput) (*ConfirmOutput, error) {
	rec, err := s.store.GetIdempotencyRecord(ctx, tenant.ID, in.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	}
	if rec != nil {
		metrics.IncConfirmation("replay")
		return &ConfirmOutput{StatusCode: rec.StatusCode, Body: rec.ResponseBody, Replayed: true}, nil
	}

	ext, extErr := s.booking.ConfirmReservation(ctx, extbooking.ConfirmRequest{
		TenantID:        tenant.ID,
		HoldID:          in.HoldID,
		GuestName:       in.Guest.Name,
		GuestEmail:      in.Guest.Email,
		GuestPhone:      in.Guest.Phone,
		SpecialRequests: in.Guest.SpecialRequests,
	}, in.IdempotencyKey)
	if extErr == nil {
		return s.finishExternalConfirm(ctx, tenant, in, ext)
	}

	s.logger.Info().Err(extErr).Str("tenant_id", tenant.ID).Str("hold_id", in.HoldID).
		Msg("external confirm failed; falling back to local booking")
	return s.confirmLocally(ctx, tenant, in)
}

func (s *Service) finishExternalConfirm(ctx context.Context, tenant *models.Tenant, in ConfirmInput, ext *extbooking.ConfirmResponse) (*ConfirmOutput, error) {
	confNum := ext.ConfirmationNumber
	if confNum == "" {
		confNum = models.ConfirmationNumber(ext.ReservationID)
	}
	status := ext.Status
	if status == "" {
		status = models.BookingStatusConfirmed
	}

	body, err := json.Marshal(confirmResponse{
		Success:            true,
		ReservationID:      ext.ReservationID,
		ConfirmationNumber: confNum,
		Status:             status,
		RequestID:          in.RequestID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal confirm response: %w", err)
	}

	s.persistIdempotency(ctx, tenant.ID, in, http.StatusOK, body)
	s.notifier.Dispatch(ctx, notify.Job{
		TenantID:      tenant.ID,
		Template:      notify.TemplateReservationConfirmed,
		Recipient:     in.Guest.Email,
		ReservationID: ext.ReservationID,
		Data: map[string]any{
			"confirmation_number": confNum,
			"guest_name":          in.Guest.Name,
		},
	})

	metrics.IncConfirmation("external")
	return &ConfirmOutput{StatusCode: http.StatusOK, Body: body}, nil
}

// confirmLocally is the last-resort path. The booking is never auto-confirmed
// here: it stays pending until the owner approves it, and the "needs review"
// notification goes to the tenant owner rather than the guest.
func (s *Service) confirmLocally(ctx context.Context, tenant *models.Tenant, in ConfirmInput) (*ConfirmOutput, error) {
	hold, err := s.store.GetActiveHold(ctx, tenant.ID, in.HoldID)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.FindBookingByGuest(ctx, tenant.ID, in.Guest.Email, hold.BookingTime)
	if err != nil {
		return nil, fmt.Errorf("dedup lookup: %w", err)
	}

	var bookingID string
	path := "fallback"
	if existing != nil {
		// Same tenant, guest email and booking time: one logical
		// reservation, regardless of how many keys referenced it.
		bookingID = existing.ID
		path = "dedup"
	} else {
		b := &models.Booking{
			ID:              uuid.NewString(),
			TenantID:        tenant.ID,
			BookingTime:     hold.BookingTime,
			PartySize:       hold.PartySize,
			GuestName:       in.Guest.Name,
			GuestEmail:      in.Guest.Email,
			GuestPhone:      in.Guest.Phone,
			SpecialRequests: in.Guest.SpecialRequests,
			Status:          models.BookingStatusPending,
			DurationMinutes: hold.DurationMinutes,
		}
		if err := s.store.CreateBooking(ctx, b); err != nil {
			return nil, fmt.Errorf("create booking: %w", err)
		}
		bookingID = b.ID
	}

	body, err := json.Marshal(confirmResponse{
		Success:            true,
		ReservationID:      bookingID,
		ConfirmationNumber: models.ConfirmationNumber(bookingID),
		Status:             models.BookingStatusPending,
		Degraded:           true,
		RequestID:          in.RequestID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal confirm response: %w", err)
	}

	s.persistIdempotency(ctx, tenant.ID, in, http.StatusOK, body)
	s.notifier.Dispatch(ctx, notify.Job{
		TenantID:      tenant.ID,
		Template:      notify.TemplateReservationReview,
		Recipient:     tenant.ContactEmail,
		ReservationID: bookingID,
		Data: map[string]any{
			"guest_name":  in.Guest.Name,
			"guest_email": in.Guest.Email,
			"party_size":  hold.PartySize,
		},
	})

	metrics.IncConfirmation(path)
	return &ConfirmOutput{StatusCode: http.StatusOK, Body: body}, nil
}

// persistIdempotency stores the response best-effort: a failed write is
// logged but never fails the confirmation it belongs to.
func (s *Service) persistIdempotency(ctx context.Context, tenantID string, in ConfirmInput, statusCode int, body []byte) {
	err := s.store.PutIdempotencyRecord(ctx, &models.IdempotencyRecord{
		TenantID:       tenantID,
		IdempotencyKey: in.IdempotencyKey,
		RequestID:      in.RequestID,
		StatusCode:     statusCode,
		ResponseBody:   body,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("tenant_id", tenantID).Msg("idempotency write failed")
	}
}
