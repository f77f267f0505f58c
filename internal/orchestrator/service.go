// Package orchestrator implements the reservation pipeline: availability
// search, hold creation, and idempotent confirmation. Each operation tries
// the external booking service first and falls back to a local computation
// when it is unavailable; responses produced by the fallback path carry a
// degraded flag.
package orchestrator

import (
	"time"

	"github.com/rs/zerolog"
)

// Service orchestrates the three widget operations against the external
// booking service and the local store.
type Service struct {
	store    Store
	booking  BookingService
	hours    HoursResolver
	notifier Notifier
	holdTTL  time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(
	store Store,
	booking BookingService,
	hoursResolver HoursResolver,
	notifier Notifier,
	holdTTL time.Duration,
	logger zerolog.Logger,
) *Service {
	if holdTTL <= 0 {
		holdTTL = 10 * time.Minute
	}
	return &Service{
		store:    store,
		booking:  booking,
		hours:    hoursResolver,
		notifier: notifier,
		holdTTL:  holdTTL,
		logger:   logger.With().Str("component", "orchestrator").Logger(),
		now:      time.Now,
	}
}

// location loads the tenant timezone, falling back to UTC for an invalid
// IANA name so a misconfigured tenant degrades instead of erroring.
func (s *Service) location(tz string) *time.Location {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.logger.Warn().Str("timezone", tz).Msg("invalid tenant timezone; using UTC")
		return time.UTC
	}
	return loc
}
