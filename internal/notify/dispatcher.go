// Package notify enqueues signed, best-effort notification jobs to an
// external job queue. Dispatch never returns an error to the booking flow;
// failures are retried with backoff, then logged and dropped.
package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"reserva/internal/metrics"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Notification templates dispatched by the reservation confirmer.
const (
	TemplateReservationConfirmed = "reservation_confirmed"
	TemplateReservationReview    = "reservation_needs_review"
)

// Job is one notification to enqueue.
type Job struct {
	TenantID      string         `json:"tenant_id"`
	Template      string         `json:"template"`
	Recipient     string         `json:"recipient"`
	ReservationID string         `json:"reservation_id"`
	Data          map[string]any `json:"data,omitempty"`
}

// Config holds dispatcher settings. An empty Endpoint disables dispatch
// entirely; jobs are logged and dropped.
type Config struct {
	Endpoint      string
	APIKey        string
	SigningSecret string
	RatePerSecond float64
	Burst         int
}

// Dispatcher signs and sends jobs asynchronously.
type Dispatcher struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
	wg         sync.WaitGroup
}

func NewDispatcher(config Config, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		config:     config,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(config.RatePerSecond), config.Burst),
		logger:     logger.With().Str("component", "notify").Logger(),
	}
}

// Dispatch enqueues the job in the background and returns immediately. The
// send uses its own deadline detached from the request context, so a
// finished booking request cannot cancel its notification.
func (d *Dispatcher) Dispatch(_ context.Context, job Job) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
		defer cancel()

		if err := d.send(ctx, job); err != nil {
			metrics.IncNotification("failed")
			d.logger.Warn().Err(err).
				Str("tenant_id", job.TenantID).
				Str("template", job.Template).
				Msg("notification dropped")
			return
		}
		metrics.IncNotification("sent")
	}()
}

// Wait blocks until all in-flight dispatches finish. Called on shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) send(ctx context.Context, job Job) error {
	if d.config.Endpoint == "" || d.config.SigningSecret == "" {
		d.logger.Debug().Str("template", job.Template).Msg("dispatcher not configured; job dropped")
		return nil
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	requestID := uuid.NewString()
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	signature := d.sign(body, timestamp, job.TenantID, requestID)

	// Retried notification attempts must not double-enqueue upstream.
	idempotencyKey := job.Template + ":" + job.ReservationID

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.Endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", d.config.APIKey)
		req.Header.Set("x-signature", signature)
		req.Header.Set("x-timestamp", timestamp)
		req.Header.Set("x-request-id", requestID)
		req.Header.Set("Idempotency-Key", idempotencyKey)

		resp, err := d.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("job queue returned %d", resp.StatusCode)
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxElapsedTime = time.Minute
	return backoff.Retry(operation, backoff.WithContext(policy, ctx))
}

// sign computes HMAC-SHA256 over body || timestamp || tenantID || requestID.
func (d *Dispatcher) sign(body []byte, timestamp, tenantID, requestID string) string {
	mac := hmac.New(sha256.New, []byte(d.config.SigningSecret))
	mac.Write(body)
	mac.Write([]byte(timestamp))
	mac.Write([]byte(tenantID))
	mac.Write([]byte(requestID))
	return hex.EncodeToString(mac.Sum(nil))
}
