// Package extbooking is the HTTP client for the external booking service.
// The service is an opaque collaborator: any non-2xx or transport failure is
// reported as ErrUnavailable so callers can fall back locally.
package extbooking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"reserva/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// ErrUnavailable covers every failure mode of the external service: transport
// errors, non-2xx statuses, and an open circuit breaker.
var ErrUnavailable = errors.New("booking service unavailable")

// SearchRequest asks the external service for availability.
type SearchRequest struct {
	TenantID    string `json:"tenant_id"`
	PartySize   int    `json:"party_size"`
	ServiceDate string `json:"service_date"` // "YYYY-MM-DD"
	WindowStart string `json:"window_start"` // "HH:MM" tenant-local
	WindowEnd   string `json:"window_end"`
}

// SearchResponse is the external service's slot list.
type SearchResponse struct {
	Slots []models.TimeSlot `json:"slots"`
}

// HoldRequest claims a slot upstream.
type HoldRequest struct {
	TenantID        string    `json:"tenant_id"`
	PartySize       int       `json:"party_size"`
	Slot            time.Time `json:"slot"`
	DurationMinutes int       `json:"duration_minutes"`
}

// HoldResponse is the upstream hold.
type HoldResponse struct {
	HoldID    string    `json:"hold_id"`
	ExpiresAt time.Time `json:"expires_at"`
	TableIDs  []string  `json:"table_ids"`
}

// ConfirmRequest converts an upstream hold into a reservation.
type ConfirmRequest struct {
	TenantID        string `json:"tenant_id"`
	HoldID          string `json:"hold_id"`
	GuestName       string `json:"guest_name"`
	GuestEmail      string `json:"guest_email"`
	GuestPhone      string `json:"guest_phone,omitempty"`
	SpecialRequests string `json:"special_requests,omitempty"`
}

// ConfirmResponse is the upstream reservation.
type ConfirmResponse struct {
	ReservationID      string `json:"reservation_id"`
	ConfirmationNumber string `json:"confirmation_number,omitempty"`
	Status             string `json:"status"`
}

// Client calls the external booking service. Repeated failures open a
// circuit breaker so fallback engages without waiting on a dead upstream.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client with baseURL, API key and request timeout.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger zerolog.Logger) *Client {
	c := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "extbooking").Logger(),
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "booking-service",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("breaker state change")
		},
	})
	return c
}

// UseRedisCache configures read-through caching for search responses.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// SearchAvailability queries /search. Authoritative results are cached for a
// short TTL keyed by (tenant, date, party size).
func (c *Client) SearchAvailability(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	cacheKey := fmt.Sprintf("extsearch:%s:%s:%d", req.TenantID, req.ServiceDate, req.PartySize)

	var resp SearchResponse
	if c.readCache(ctx, cacheKey, &resp) {
		return &resp, nil
	}

	if err := c.doPost(ctx, c.baseURL+"/search", req, &resp, nil); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, resp)
	return &resp, nil
}

// CreateHold posts to /holds. Never cached.
func (c *Client) CreateHold(ctx context.Context, req HoldRequest) (*HoldResponse, error) {
	var resp HoldResponse
	if err := c.doPost(ctx, c.baseURL+"/holds", req, &resp, nil); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfirmReservation posts to /reservations, forwarding the caller's
// idempotency key so the upstream can dedupe retries on its side too.
func (c *Client) ConfirmReservation(ctx context.Context, req ConfirmRequest, idempotencyKey string) (*ConfirmResponse, error) {
	headers := map[string]string{"Idempotency-Key": idempotencyKey}
	var resp ConfirmResponse
	if err := c.doPost(ctx, c.baseURL+"/reservations", req, &resp, headers); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) doPost(ctx context.Context, endpoint string, body, out any, headers map[string]string) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	_, err = c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("x-api-key", c.apiKey)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("http %d", resp.StatusCode)
		}
		if out == nil {
			return nil, nil
		}
		return nil, json.NewDecoder(resp.Body).Decode(out)
	})
	if err != nil {
		c.logger.Debug().Err(err).Str("endpoint", endpoint).Msg("booking service call failed")
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), out) == nil
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}
