// Package hours resolves the open/close window for a calendar date in the
// tenant's local timezone.
package hours

import (
	"context"
	"fmt"
	"time"

	"reserva/internal/models"
	"github.com/rs/zerolog"
)

// Default window used when a tenant has no configured hours for a day.
const (
	DefaultOpenTime  = "12:00"
	DefaultCloseTime = "21:00"
)

// Window is a tenant-local open/close window, "HH:MM" wall-clock strings.
type Window struct {
	Start string
	End   string
}

// Store provides the two per-day lookups the resolver falls through.
type Store interface {
	GetBusinessHours(ctx context.Context, tenantID string, dayOfWeek int) (*models.BusinessHours, error)
	GetOperationalHours(ctx context.Context, tenantID string, dayOfWeek int) (*models.BusinessHours, error)
}

// Resolver produces the business-hours window for a tenant and date.
type Resolver struct {
	store  Store
	logger zerolog.Logger
}

func NewResolver(store Store, logger zerolog.Logger) *Resolver {
	return &Resolver{
		store:  store,
		logger: logger.With().Str("component", "hours").Logger(),
	}
}

// LocalDayOfWeek computes the tenant-local day of week (0 = Sunday) for a
// "YYYY-MM-DD" date. The reference instant is noon UTC on that date, so the
// result cannot drift across the day boundary for any real-world offset.
func LocalDayOfWeek(date string, loc *time.Location) (int, error) {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", date, err)
	}
	noonUTC := time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, time.UTC)
	return int(noonUTC.In(loc).Weekday()), nil
}

// Resolve returns the window for the date, falling through business hours,
// then operational settings, then the static default. A day explicitly
// marked closed also falls through to the next source.
func (r *Resolver) Resolve(ctx context.Context, tenantID, date string, loc *time.Location) (Window, error) {
	dow, err := LocalDayOfWeek(date, loc)
	if err != nil {
		return Window{}, err
	}

	bh, err := r.store.GetBusinessHours(ctx, tenantID, dow)
	if err != nil {
		return Window{}, err
	}
	if bh != nil && bh.IsOpen && bh.OpenTime != "" && bh.CloseTime != "" {
		return Window{Start: bh.OpenTime, End: bh.CloseTime}, nil
	}

	op, err := r.store.GetOperationalHours(ctx, tenantID, dow)
	if err != nil {
		return Window{}, err
	}
	if op != nil && op.IsOpen && op.OpenTime != "" && op.CloseTime != "" {
		return Window{Start: op.OpenTime, End: op.CloseTime}, nil
	}

	r.logger.Debug().Str("tenant_id", tenantID).Str("date", date).Int("day_of_week", dow).
		Msg("no configured hours; using default window")
	return Window{Start: DefaultOpenTime, End: DefaultCloseTime}, nil
}
