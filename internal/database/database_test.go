package database

import (
	"context"
	"testing"
	"time"

	"reserva/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedTenant(t *testing.T, db *DB, slug, status string) *models.Tenant {
	t.Helper()
	tn := &models.Tenant{
		ID:           uuid.NewString(),
		Slug:         slug,
		Name:         "Test Restaurant",
		Timezone:     "America/New_York",
		Currency:     "USD",
		Status:       status,
		ContactEmail: "owner@example.com",
	}
	require.NoError(t, db.CreateTenant(context.Background(), tn))
	return tn
}

func TestGetTenantBySlug(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	active := seedTenant(t, db, "demo", models.TenantStatusActive)
	seedTenant(t, db, "closed-down", models.TenantStatusInactive)

	t.Run("Active", func(t *testing.T) {
		got, err := db.GetTenantBySlug(ctx, "demo")
		require.NoError(t, err)
		assert.Equal(t, active.ID, got.ID)
		assert.Equal(t, "America/New_York", got.Timezone)
		assert.Equal(t, "owner@example.com", got.ContactEmail)
	})

	t.Run("InactiveLooksMissing", func(t *testing.T) {
		_, err := db.GetTenantBySlug(ctx, "closed-down")
		assert.ErrorIs(t, err, ErrTenantNotFound)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := db.GetTenantBySlug(ctx, "nope")
		assert.ErrorIs(t, err, ErrTenantNotFound)
	})
}

func TestHolds(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tn := seedTenant(t, db, "demo", models.TenantStatusActive)

	t.Run("ActiveHoldFound", func(t *testing.T) {
		h := &models.Hold{
			ID:              uuid.NewString(),
			TenantID:        tn.ID,
			BookingTime:     time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second),
			PartySize:       4,
			DurationMinutes: 120,
			SessionID:       uuid.NewString(),
			ExpiresAt:       time.Now().Add(10 * time.Minute),
		}
		require.NoError(t, db.CreateHold(ctx, h))

		got, err := db.GetActiveHold(ctx, tn.ID, h.ID)
		require.NoError(t, err)
		assert.Equal(t, h.ID, got.ID)
		assert.Equal(t, 4, got.PartySize)
		assert.True(t, got.BookingTime.Equal(h.BookingTime))
	})

	t.Run("ExpiredHoldLooksMissing", func(t *testing.T) {
		h := &models.Hold{
			ID:              uuid.NewString(),
			TenantID:        tn.ID,
			BookingTime:     time.Now().Add(24 * time.Hour),
			PartySize:       2,
			DurationMinutes: 120,
			SessionID:       uuid.NewString(),
			ExpiresAt:       time.Now().Add(-time.Minute),
		}
		require.NoError(t, db.CreateHold(ctx, h))

		// The row still exists; only the lookup refuses it.
		_, err := db.GetActiveHold(ctx, tn.ID, h.ID)
		assert.ErrorIs(t, err, ErrHoldNotFound)
	})

	t.Run("WrongTenant", func(t *testing.T) {
		other := seedTenant(t, db, "other", models.TenantStatusActive)
		h := &models.Hold{
			ID:              uuid.NewString(),
			TenantID:        other.ID,
			BookingTime:     time.Now().Add(24 * time.Hour),
			PartySize:       2,
			DurationMinutes: 120,
			SessionID:       uuid.NewString(),
			ExpiresAt:       time.Now().Add(10 * time.Minute),
		}
		require.NoError(t, db.CreateHold(ctx, h))

		_, err := db.GetActiveHold(ctx, tn.ID, h.ID)
		assert.ErrorIs(t, err, ErrHoldNotFound)
	})

	t.Run("SweepRemovesExpiredOnly", func(t *testing.T) {
		n, err := db.DeleteExpiredHolds(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}

func TestIdempotencyRecords(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tn := seedTenant(t, db, "demo", models.TenantStatusActive)

	key := uuid.NewString()
	first := &models.IdempotencyRecord{
		TenantID:       tn.ID,
		IdempotencyKey: key,
		RequestID:      "req-1",
		StatusCode:     200,
		ResponseBody:   []byte(`{"success":true,"reservation_id":"abc"}`),
	}

	t.Run("MissingIsNil", func(t *testing.T) {
		rec, err := db.GetIdempotencyRecord(ctx, tn.ID, key)
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("Roundtrip", func(t *testing.T) {
		require.NoError(t, db.PutIdempotencyRecord(ctx, first))

		rec, err := db.GetIdempotencyRecord(ctx, tn.ID, key)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, first.ResponseBody, rec.ResponseBody)
		assert.Equal(t, 200, rec.StatusCode)
		assert.Equal(t, "req-1", rec.RequestID)
	})

	t.Run("WriteOnce", func(t *testing.T) {
		// A second write for the same pair loses silently; the first
		// record stays authoritative.
		second := &models.IdempotencyRecord{
			TenantID:       tn.ID,
			IdempotencyKey: key,
			RequestID:      "req-2",
			StatusCode:     200,
			ResponseBody:   []byte(`{"success":true,"reservation_id":"other"}`),
		}
		require.NoError(t, db.PutIdempotencyRecord(ctx, second))

		rec, err := db.GetIdempotencyRecord(ctx, tn.ID, key)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, first.ResponseBody, rec.ResponseBody)
		assert.Equal(t, "req-1", rec.RequestID)
	})

	t.Run("ScopedByTenant", func(t *testing.T) {
		other := seedTenant(t, db, "other", models.TenantStatusActive)
		rec, err := db.GetIdempotencyRecord(ctx, other.ID, key)
		require.NoError(t, err)
		assert.Nil(t, rec)
	})
}

func TestBookings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tn := seedTenant(t, db, "demo", models.TenantStatusActive)

	at := time.Date(2025, 7, 4, 16, 0, 0, 0, time.UTC)
	b := &models.Booking{
		ID:          uuid.NewString(),
		TenantID:    tn.ID,
		BookingTime: at,
		PartySize:   4,
		GuestName:   "Ada",
		GuestEmail:  "ada@example.com",
		Status:      models.BookingStatusPending,
	}
	require.NoError(t, db.CreateBooking(ctx, b))

	t.Run("DefaultDuration", func(t *testing.T) {
		assert.Equal(t, models.DefaultBookingDurationMinutes, b.DurationMinutes)
	})

	t.Run("FindByGuest", func(t *testing.T) {
		got, err := db.FindBookingByGuest(ctx, tn.ID, "ada@example.com", at)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, b.ID, got.ID)
	})

	t.Run("FindByGuestNoMatch", func(t *testing.T) {
		got, err := db.FindBookingByGuest(ctx, tn.ID, "ada@example.com", at.Add(30*time.Minute))
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = db.FindBookingByGuest(ctx, tn.ID, "bob@example.com", at)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ListBetween", func(t *testing.T) {
		list, err := db.ListBookingsBetween(ctx, tn.ID, at.Add(-time.Hour), at.Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, b.ID, list[0].ID)

		list, err = db.ListBookingsBetween(ctx, tn.ID, at.Add(time.Hour), at.Add(2*time.Hour))
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("CancelledExcluded", func(t *testing.T) {
		cancelled := &models.Booking{
			ID:          uuid.NewString(),
			TenantID:    tn.ID,
			BookingTime: at,
			PartySize:   2,
			GuestName:   "Bob",
			GuestEmail:  "bob@example.com",
			Status:      models.BookingStatusCancelled,
		}
		require.NoError(t, db.CreateBooking(ctx, cancelled))

		list, err := db.ListBookingsBetween(ctx, tn.ID, at.Add(-time.Hour), at.Add(time.Hour))
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}
