// Package slots enumerates bookable time slots for a date and party size.
// All emitted instants are UTC; tenant-local wall clock exists only inside
// the generation loop.
package slots

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"reserva/internal/hours"
	"reserva/internal/models"
)

const (
	// SlotIntervalMinutes is the cadence between candidate slots.
	SlotIntervalMinutes = 30
	// OccupancyWindowMinutes is the fixed window a party is assumed to
	// occupy a table, starting at the slot time.
	OccupancyWindowMinutes = 120
	// MaxSlots bounds the response size. Fixed page size, not a cursor.
	MaxSlots = 15

	// Slots starting in the 18:00 tenant-local hour are flagged optimal.
	optimalHour = 18
)

// Request carries everything the generator needs. Now is injectable for
// tests; the zero value means time.Now().
type Request struct {
	Tables    []models.DiningTable
	Bookings  []models.Booking
	PartySize int
	Date      string // "YYYY-MM-DD", tenant-local calendar date
	Window    hours.Window
	Location  *time.Location
	Now       time.Time
}

// Generate returns at most MaxSlots slots, earliest first. A slot is emitted
// only when its available table count is strictly positive; counts never
// exceed the number of suitable tables and are never negative.
func Generate(req Request) ([]models.TimeSlot, error) {
	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", req.Date, err)
	}

	openH, openM, err := parseClock(req.Window.Start)
	if err != nil {
		return nil, fmt.Errorf("parse window start: %w", err)
	}
	closeH, closeM, err := parseClock(req.Window.End)
	if err != nil {
		return nil, fmt.Errorf("parse window end: %w", err)
	}

	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}

	suitable := 0
	for _, t := range req.Tables {
		if t.Capacity >= req.PartySize {
			suitable++
		}
	}
	if suitable == 0 {
		return nil, nil
	}

	occupancy := OccupancyWindowMinutes * time.Minute
	openMinutes := openH*60 + openM
	closeMinutes := closeH*60 + closeM

	var result []models.TimeSlot
	for cursor := openMinutes; cursor < closeMinutes; cursor += SlotIntervalMinutes {
		// Building the wall-clock instant directly in the tenant location
		// lets the zone database pick the correct offset for that date, so
		// DST transitions cannot shift the slot by an hour.
		local := time.Date(day.Year(), day.Month(), day.Day(), cursor/60, cursor%60, 0, 0, req.Location)
		slotUTC := local.UTC()

		if !slotUTC.After(now) {
			continue
		}

		overlapping := 0
		for i := range req.Bookings {
			if req.Bookings[i].Overlaps(slotUTC, slotUTC.Add(occupancy)) {
				overlapping++
			}
		}

		available := suitable - overlapping
		if available <= 0 {
			continue
		}

		result = append(result, models.TimeSlot{
			Time:                slotUTC,
			AvailableTableCount: available,
			IsOptimal:           local.Hour() == optimalHour,
		})
		if len(result) >= MaxSlots {
			break
		}
	}
	return result, nil
}

func parseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("invalid time format: %s", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid hour: %w", err)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid minute: %w", err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time out of range: %s", s)
	}
	return hour, minute, nil
}
