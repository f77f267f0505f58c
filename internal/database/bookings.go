package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"reserva/internal/models"
)

// ListBookingsBetween returns non-cancelled bookings whose start time falls in
// [from, to). Both bounds are UTC instants.
func (db *DB) ListBookingsBetween(ctx context.Context, tenantID string, from, to time.Time) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, tenant_id, booking_time, party_size, guest_name, guest_email,
		       guest_phone, special_requests, status, duration_minutes, created_at, updated_at
		FROM bookings
		WHERE tenant_id = ? AND booking_time >= ? AND booking_time < ?
		  AND status NOT IN ('cancelled', 'no_show')
		ORDER BY booking_time ASC`,
		tenantID, from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// FindBookingByGuest returns the booking matching (tenant, guest email,
// booking time), if any. Bookings sharing all three are the same logical
// reservation on the fallback path.
func (db *DB) FindBookingByGuest(ctx context.Context, tenantID, guestEmail string, bookingTime time.Time) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, tenant_id, booking_time, party_size, guest_name, guest_email,
		       guest_phone, special_requests, status, duration_minutes, created_at, updated_at
		FROM bookings
		WHERE tenant_id = ? AND guest_email = ? AND booking_time = ?
		  AND status NOT IN ('cancelled', 'no_show')
		LIMIT 1`,
		tenantID, guestEmail, bookingTime.UTC(),
	)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// CreateBooking inserts a booking row.
func (db *DB) CreateBooking(ctx context.Context, b *models.Booking) error {
	if b.DurationMinutes <= 0 {
		b.DurationMinutes = models.DefaultBookingDurationMinutes
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO bookings (id, tenant_id, booking_time, party_size, guest_name,
		                      guest_email, guest_phone, special_requests, status, duration_minutes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.TenantID, b.BookingTime.UTC(), b.PartySize, b.GuestName,
		b.GuestEmail, b.GuestPhone, b.SpecialRequests, b.Status, b.DurationMinutes,
	)
	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var phone, requests sql.NullString
	err := row.Scan(
		&b.ID, &b.TenantID, &b.BookingTime, &b.PartySize, &b.GuestName,
		&b.GuestEmail, &phone, &requests, &b.Status, &b.DurationMinutes,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan booking: %w", err)
	}
	b.GuestPhone = phone.String
	b.SpecialRequests = requests.String
	b.BookingTime = b.BookingTime.UTC()
	return &b, nil
}
