// Package api is the HTTP surface of the orchestrator: a single widget
// endpoint dispatching on an action field, with uniform success and error
// envelopes carrying a correlation id.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"reserva/internal/models"
	"reserva/internal/orchestrator"
	"reserva/internal/token"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Stable error codes callers can branch on.
const (
	CodeInvalidToken    = "INVALID_TOKEN"
	CodeTenantNotFound  = "TENANT_NOT_FOUND"
	CodeValidationError = "VALIDATION_ERROR"
	CodeInvalidAction   = "INVALID_ACTION"
	CodeHoldNotFound    = "HOLD_NOT_FOUND"
	CodeRateLimited     = "RATE_LIMITED"
	CodeInternal        = "INTERNAL"
)

// TokenValidator verifies widget tokens.
type TokenValidator interface {
	Validate(raw string) (*token.WidgetClaims, error)
}

// TenantResolver maps a token slug to an active tenant.
type TenantResolver interface {
	Resolve(ctx context.Context, slug string) (*models.Tenant, error)
}

// Orchestrator is the reservation pipeline behind the endpoint.
type Orchestrator interface {
	SearchAvailability(ctx context.Context, tenant *models.Tenant, partySize int, serviceDate string) (*orchestrator.SearchResult, error)
	CreateHold(ctx context.Context, tenant *models.Tenant, partySize int, slot time.Time) (*orchestrator.HoldResult, error)
	ConfirmReservation(ctx context.Context, tenant *models.Tenant, in orchestrator.ConfirmInput) (*orchestrator.ConfirmOutput, error)
}

// Server handles widget requests.
type Server struct {
	tokens   TokenValidator
	tenants  TenantResolver
	orch     Orchestrator
	limiter  *TenantLimiter
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewServer(tokens TokenValidator, tenants TenantResolver, orch Orchestrator, limiter *TenantLimiter, logger zerolog.Logger) *Server {
	return &Server{
		tokens:   tokens,
		tenants:  tenants,
		orch:     orch,
		limiter:  limiter,
		validate: validator.New(),
		logger:   logger.With().Str("component", "api").Logger(),
	}
}

// Handler returns the routed handler for the widget endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/widget", s.handleWidget)
	return mux
}

type errorBody struct {
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	RequestID string   `json:"requestId"`
	Issues    []string `json:"issues,omitempty"`
}

type errorResponse struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message, requestID string, issues []string) {
	writeJSON(w, status, errorResponse{
		Success: false,
		Error:   errorBody{Code: code, Message: message, RequestID: requestID, Issues: issues},
	})
}

// writeRaw writes a pre-serialized body verbatim. Used for idempotent
// confirmation replays, which must be byte-identical to the original.
func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
