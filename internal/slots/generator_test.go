package slots

import (
	"testing"
	"time"

	"reserva/internal/hours"
	"reserva/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func table(capacity int) models.DiningTable {
	return models.DiningTable{ID: "t1", TenantID: "tn1", Name: "Table", Capacity: capacity, IsActive: true}
}

func TestGenerateFirstSlotDST(t *testing.T) {
	// July 4th in New York is DST-active (UTC-4): local 12:00 is 16:00 UTC.
	ny := mustLocation(t, "America/New_York")

	result, err := Generate(Request{
		Tables:    []models.DiningTable{table(6)},
		PartySize: 4,
		Date:      "2025-07-04",
		Window:    hours.Window{Start: "12:00", End: "21:00"},
		Location:  ny,
		Now:       time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NotEmpty(t, result)

	first := result[0]
	assert.Equal(t, time.Date(2025, 7, 4, 16, 0, 0, 0, time.UTC), first.Time)
	assert.Equal(t, 1, first.AvailableTableCount)

	// 12:00..21:00 at 30 minutes is 18 candidates, capped at the page size.
	assert.Len(t, result, MaxSlots)
}

func TestGenerateAcrossDSTTransition(t *testing.T) {
	// 2025-11-01 is the last EDT day; 2025-11-02 is EST. The same local
	// wall clock must land exactly one extra hour apart in UTC.
	ny := mustLocation(t, "America/New_York")
	now := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)

	gen := func(date string) []models.TimeSlot {
		result, err := Generate(Request{
			Tables:    []models.DiningTable{table(4)},
			PartySize: 2,
			Date:      date,
			Window:    hours.Window{Start: "12:00", End: "13:00"},
			Location:  ny,
			Now:       now,
		})
		require.NoError(t, err)
		require.NotEmpty(t, result)
		return result
	}

	edt := gen("2025-11-01")
	est := gen("2025-11-02")

	assert.Equal(t, time.Date(2025, 11, 1, 16, 0, 0, 0, time.UTC), edt[0].Time)
	assert.Equal(t, time.Date(2025, 11, 2, 17, 0, 0, 0, time.UTC), est[0].Time)
	assert.Equal(t, 25*time.Hour, est[0].Time.Sub(edt[0].Time))
}

func TestGenerateCapacityExclusion(t *testing.T) {
	ny := mustLocation(t, "America/New_York")
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	small := models.DiningTable{ID: "small", Capacity: 2, IsActive: true}
	large := models.DiningTable{ID: "large", Capacity: 6, IsActive: true}

	// One booking occupying 16:00-18:00 UTC (local 12:00-14:00).
	booked := models.Booking{
		ID:              "b1",
		BookingTime:     time.Date(2025, 7, 4, 16, 0, 0, 0, time.UTC),
		DurationMinutes: 120,
		Status:          models.BookingStatusConfirmed,
	}

	result, err := Generate(Request{
		Tables:    []models.DiningTable{small, large},
		Bookings:  []models.Booking{booked},
		PartySize: 4,
		Date:      "2025-07-04",
		Window:    hours.Window{Start: "12:00", End: "21:00"},
		Location:  ny,
		Now:       now,
	})
	require.NoError(t, err)
	require.NotEmpty(t, result)

	for _, s := range result {
		// Only the large table suits a party of 4; counts must stay within
		// [1, suitable] because zero-availability slots are omitted.
		assert.GreaterOrEqual(t, s.AvailableTableCount, 1)
		assert.LessOrEqual(t, s.AvailableTableCount, 1)
	}

	// The booking's 2h interval blocks every slot whose occupancy window
	// overlaps it: local starts 12:00 through 13:30. First emitted slot is
	// 14:00 local (18:00 UTC).
	assert.Equal(t, time.Date(2025, 7, 4, 18, 0, 0, 0, time.UTC), result[0].Time)
}

func TestGenerateNoSuitableTables(t *testing.T) {
	ny := mustLocation(t, "America/New_York")

	result, err := Generate(Request{
		Tables:    []models.DiningTable{table(2)},
		PartySize: 6,
		Date:      "2025-07-04",
		Window:    hours.Window{Start: "12:00", End: "21:00"},
		Location:  ny,
		Now:       time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestGenerateSkipsPastSlots(t *testing.T) {
	ny := mustLocation(t, "America/New_York")

	// Now is 18:00 UTC = 14:00 local; everything at or before that is gone.
	result, err := Generate(Request{
		Tables:    []models.DiningTable{table(6)},
		PartySize: 2,
		Date:      "2025-07-04",
		Window:    hours.Window{Start: "12:00", End: "21:00"},
		Location:  ny,
		Now:       time.Date(2025, 7, 4, 18, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NotEmpty(t, result)
	assert.Equal(t, time.Date(2025, 7, 4, 18, 30, 0, 0, time.UTC), result[0].Time)
}

func TestGenerateOptimalFlag(t *testing.T) {
	ny := mustLocation(t, "America/New_York")

	result, err := Generate(Request{
		Tables:    []models.DiningTable{table(6)},
		PartySize: 2,
		Date:      "2025-07-04",
		Window:    hours.Window{Start: "17:00", End: "20:00"},
		Location:  ny,
		Now:       time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	byLocal := map[string]bool{}
	for _, s := range result {
		byLocal[s.Time.In(ny).Format("15:04")] = s.IsOptimal
	}
	assert.False(t, byLocal["17:00"])
	assert.False(t, byLocal["17:30"])
	assert.True(t, byLocal["18:00"])
	assert.True(t, byLocal["18:30"])
	assert.False(t, byLocal["19:00"])
}

func TestGenerateInvalidInputs(t *testing.T) {
	ny := mustLocation(t, "America/New_York")

	_, err := Generate(Request{
		Tables:    []models.DiningTable{table(6)},
		PartySize: 2,
		Date:      "04-07-2025",
		Window:    hours.Window{Start: "12:00", End: "21:00"},
		Location:  ny,
	})
	assert.Error(t, err)

	_, err = Generate(Request{
		Tables:    []models.DiningTable{table(6)},
		PartySize: 2,
		Date:      "2025-07-04",
		Window:    hours.Window{Start: "noon", End: "21:00"},
		Location:  ny,
	})
	assert.Error(t, err)
}
