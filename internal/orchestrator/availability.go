package orchestrator

import (
	"context"
	"fmt"
	"time"

	"reserva/internal/extbooking"
	"reserva/internal/metrics"
	"reserva/internal/models"
	"reserva/internal/slots"
)

// SearchResult is the outcome of an availability search. Degraded marks
// best-effort results computed locally while the external service was
// unreachable.
type SearchResult struct {
	Slots    []models.TimeSlot `json:"slots"`
	Degraded bool              `json:"degraded"`
}

// SearchAvailability tries the external search endpoint first; on any
// failure it recomputes availability locally from tables and bookings. The
// two paths are mutually exclusive per request; results are never merged.
func (s *Service) SearchAvailability(ctx context.Context, tenant *models.Tenant, partySize int, serviceDate string) (*SearchResult, error) {
	loc := s.location(tenant.Timezone)

	window, err := s.hours.Resolve(ctx, tenant.ID, serviceDate, loc)
	if err != nil {
		return nil, fmt.Errorf("resolve hours: %w", err)
	}

	ext, extErr := s.booking.SearchAvailability(ctx, extbooking.SearchRequest{
		TenantID:    tenant.ID,
		PartySize:   partySize,
		ServiceDate: serviceDate,
		WindowStart: window.Start,
		WindowEnd:   window.End,
	})
	if extErr == nil {
		metrics.IncSearch("external")
		return &SearchResult{Slots: ext.Slots, Degraded: false}, nil
	}

	s.logger.Info().Err(extErr).Str("tenant_id", tenant.ID).Str("date", serviceDate).
		Msg("external search failed; computing availability locally")

	tables, err := s.store.ListActiveTables(ctx, tenant.ID)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	dayStart, dayEnd, err := localDayBounds(serviceDate, loc)
	if err != nil {
		return nil, err
	}
	bookings, err := s.store.ListBookingsBetween(ctx, tenant.ID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	generated, err := slots.Generate(slots.Request{
		Tables:    tables,
		Bookings:  bookings,
		PartySize: partySize,
		Date:      serviceDate,
		Window:    window,
		Location:  loc,
		Now:       s.now(),
	})
	if err != nil {
		return nil, err
	}

	metrics.IncSearch("fallback")
	return &SearchResult{Slots: generated, Degraded: true}, nil
}

// localDayBounds returns the UTC instants bounding the tenant-local calendar
// date: [local midnight, next local midnight).
func localDayBounds(date string, loc *time.Location) (time.Time, time.Time, error) {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return start.UTC(), start.AddDate(0, 0, 1).UTC(), nil
}
