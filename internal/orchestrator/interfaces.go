package orchestrator

import (
	"context"
	"time"

	"reserva/internal/extbooking"
	"reserva/internal/hours"
	"reserva/internal/models"
	"reserva/internal/notify"
)

// Store is the slice of the backing store the orchestrator reads and writes:
// tables, bookings, holds, and idempotency records.
type Store interface {
	ListActiveTables(ctx context.Context, tenantID string) ([]models.DiningTable, error)
	ListBookingsBetween(ctx context.Context, tenantID string, from, to time.Time) ([]models.Booking, error)
	FindBookingByGuest(ctx context.Context, tenantID, guestEmail string, bookingTime time.Time) (*models.Booking, error)
	CreateBooking(ctx context.Context, b *models.Booking) error
	CreateHold(ctx context.Context, h *models.Hold) error
	GetActiveHold(ctx context.Context, tenantID, holdID string) (*models.Hold, error)
	GetIdempotencyRecord(ctx context.Context, tenantID, key string) (*models.IdempotencyRecord, error)
	PutIdempotencyRecord(ctx context.Context, rec *models.IdempotencyRecord) error
}

// BookingService is the external booking service contract.
type BookingService interface {
	SearchAvailability(ctx context.Context, req extbooking.SearchRequest) (*extbooking.SearchResponse, error)
	CreateHold(ctx context.Context, req extbooking.HoldRequest) (*extbooking.HoldResponse, error)
	ConfirmReservation(ctx context.Context, req extbooking.ConfirmRequest, idempotencyKey string) (*extbooking.ConfirmResponse, error)
}

// HoursResolver produces the tenant-local open/close window for a date.
type HoursResolver interface {
	Resolve(ctx context.Context, tenantID, date string, loc *time.Location) (hours.Window, error)
}

// Notifier enqueues best-effort notifications. Implementations never block
// the booking flow and never surface errors.
type Notifier interface {
	Dispatch(ctx context.Context, job notify.Job)
}
