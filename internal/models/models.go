package models

import (
	"strings"
	"time"
)

// Booking statuses. A booking created on the local fallback path always
// starts as pending and must be approved by the tenant owner.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusSeated    = "seated"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
	BookingStatusNoShow    = "no_show"
)

// Tenant statuses.
const (
	TenantStatusActive   = "active"
	TenantStatusInactive = "inactive"
)

// DefaultBookingDurationMinutes is the occupancy window assumed for every
// booking when computing slot availability.
const DefaultBookingDurationMinutes = 120

// Tenant is a restaurant account. Read-only to this service; resolved per
// request by slug.
type Tenant struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	Timezone     string    `json:"timezone"` // IANA name, e.g. "America/New_York"
	Currency     string    `json:"currency"`
	Status       string    `json:"status"`
	ContactEmail string    `json:"contact_email,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// DiningTable is a physical table with a seating capacity.
type DiningTable struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	IsActive bool   `json:"is_active"`
}

// BusinessHours is the open/close window for one tenant-local day of week
// (0 = Sunday .. 6 = Saturday).
type BusinessHours struct {
	TenantID  string `json:"tenant_id"`
	DayOfWeek int    `json:"day_of_week"`
	IsOpen    bool   `json:"is_open"`
	OpenTime  string `json:"open_time"`  // "12:00" tenant-local
	CloseTime string `json:"close_time"` // "21:00" tenant-local
}

// TimeSlot is a bookable slot computed for a search request. Never persisted.
type TimeSlot struct {
	Time                time.Time `json:"time"` // UTC instant
	AvailableTableCount int       `json:"available_table_count"`
	IsOptimal           bool      `json:"is_optimal"`
}

// Hold is a short-lived exclusive claim on a slot. Expiry is time-based
// only; holds are never explicitly cancelled.
type Hold struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"tenant_id"`
	BookingTime     time.Time `json:"booking_time"` // UTC instant
	PartySize       int       `json:"party_size"`
	DurationMinutes int       `json:"duration_minutes"`
	SessionID       string    `json:"session_id"`
	ExpiresAt       time.Time `json:"expires_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// Expired reports whether the hold is past its expiry at the given instant.
func (h *Hold) Expired(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}

// Booking is a confirmed or pending reservation.
type Booking struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"tenant_id"`
	BookingTime     time.Time `json:"booking_time"` // UTC instant
	PartySize       int       `json:"party_size"`
	GuestName       string    `json:"guest_name"`
	GuestEmail      string    `json:"guest_email"`
	GuestPhone      string    `json:"guest_phone,omitempty"`
	SpecialRequests string    `json:"special_requests,omitempty"`
	Status          string    `json:"status"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// EndTime returns the end of the booking's occupancy interval.
func (b *Booking) EndTime() time.Time {
	minutes := b.DurationMinutes
	if minutes <= 0 {
		minutes = DefaultBookingDurationMinutes
	}
	return b.BookingTime.Add(time.Duration(minutes) * time.Minute)
}

// Overlaps reports whether the booking's occupancy interval intersects
// [start, end). Half-open semantics: a booking ending exactly at start does
// not overlap.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.BookingTime.Before(end) && start.Before(b.EndTime())
}

// IdempotencyRecord is a stored response for a (tenant, key) pair. Write-once;
// a matching record short-circuits confirmation and replays the exact
// previous response body.
type IdempotencyRecord struct {
	TenantID       string    `json:"tenant_id"`
	IdempotencyKey string    `json:"idempotency_key"`
	RequestID      string    `json:"request_id"`
	StatusCode     int       `json:"status_code"`
	ResponseBody   []byte    `json:"response_body"`
	CreatedAt      time.Time `json:"created_at"`
}

// ConfirmationNumber derives a user-visible reference from a booking id:
// a fixed prefix plus the last six characters, upper-cased. Used whenever
// the upstream service does not supply its own number.
func ConfirmationNumber(bookingID string) string {
	tail := bookingID
	if len(tail) > 6 {
		tail = tail[len(tail)-6:]
	}
	return "RES-" + strings.ToUpper(tail)
}
