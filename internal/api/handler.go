package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"reserva/internal/database"
	"reserva/internal/metrics"
	"reserva/internal/models"
	"reserva/internal/orchestrator"
	"reserva/internal/token"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Supported widget actions.
const (
	ActionSearch  = "search"
	ActionHold    = "hold"
	ActionConfirm = "confirm"
)

// widgetRequest is the single-endpoint envelope. The action decides which of
// the optional fields are required.
type widgetRequest struct {
	Action         string        `json:"action" validate:"required,oneof=search hold confirm"`
	Token          string        `json:"token" validate:"required"`
	TenantID       string        `json:"tenant_id,omitempty"`
	PartySize      int           `json:"party_size,omitempty" validate:"omitempty,min=1,max=50"`
	ServiceDate    string        `json:"service_date,omitempty"`
	Slot           string        `json:"slot,omitempty"` // RFC 3339 UTC instant
	HoldID         string        `json:"hold_id,omitempty"`
	IdempotencyKey string        `json:"idempotency_key,omitempty"`
	GuestDetails   *guestDetails `json:"guest_details,omitempty"`
}

type guestDetails struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone,omitempty"`
	SpecialRequests string `json:"special_requests,omitempty"`
}

type searchResponse struct {
	Success   bool              `json:"success"`
	Slots     []models.TimeSlot `json:"slots"`
	Degraded  bool              `json:"degraded"`
	RequestID string            `json:"requestId"`
}

type holdResponse struct {
	Success   bool      `json:"success"`
	HoldID    string    `json:"hold_id"`
	ExpiresAt time.Time `json:"expires_at"`
	TableIDs  []string  `json:"table_ids"`
	Degraded  bool      `json:"degraded"`
	RequestID string    `json:"requestId"`
}

func (s *Server) handleWidget(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set("x-request-id", requestID)

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, CodeValidationError, "method not allowed; use POST", requestID, nil)
		return
	}

	var req widgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "invalid JSON body", requestID, nil)
		return
	}

	if err := s.validate.Struct(&req); err != nil {
		if req.Action == "" {
			writeError(w, http.StatusBadRequest, CodeInvalidAction, "action is required", requestID, nil)
			return
		}
		writeError(w, http.StatusBadRequest, CodeValidationError, "invalid request", requestID, validationIssues(err))
		return
	}

	claims, err := s.tokens.Validate(req.Token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, CodeInvalidToken, "invalid or expired token", requestID, nil)
		return
	}

	tenant, err := s.tenants.Resolve(r.Context(), claims.Slug)
	if errors.Is(err, database.ErrTenantNotFound) {
		writeError(w, http.StatusNotFound, CodeTenantNotFound, "tenant not found", requestID, nil)
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("request_id", requestID).Msg("tenant lookup failed")
		writeError(w, http.StatusInternalServerError, CodeInternal, "internal error", requestID, nil)
		return
	}
	// The resolved tenant always wins over any tenant_id in the request; a
	// token for tenant A cannot act on tenant B.
	req.TenantID = tenant.ID

	if !s.limiter.Allow(r.Context(), tenant.ID) {
		writeError(w, http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded", requestID, nil)
		return
	}

	metrics.IncHTTP(req.Action)

	switch req.Action {
	case ActionSearch:
		s.handleSearch(w, r, tenant, &req, requestID)
	case ActionHold:
		s.handleHold(w, r, tenant, &req, requestID)
	case ActionConfirm:
		s.handleConfirm(w, r, tenant, &req, requestID)
	default:
		writeError(w, http.StatusBadRequest, CodeInvalidAction, "unknown action", requestID, nil)
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request, tenant *models.Tenant, req *widgetRequest, requestID string) {
	var issues []string
	if req.PartySize < 1 {
		issues = append(issues, "party_size must be at least 1")
	}
	if _, err := time.Parse("2006-01-02", req.ServiceDate); err != nil {
		issues = append(issues, "service_date must be YYYY-MM-DD")
	}
	if len(issues) > 0 {
		writeError(w, http.StatusBadRequest, CodeValidationError, "invalid search request", requestID, issues)
		return
	}

	result, err := s.orch.SearchAvailability(r.Context(), tenant, req.PartySize, req.ServiceDate)
	if err != nil {
		s.writeOrchestratorError(w, err, requestID)
		return
	}
	if result.Slots == nil {
		result.Slots = []models.TimeSlot{}
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Success:   true,
		Slots:     result.Slots,
		Degraded:  result.Degraded,
		RequestID: requestID,
	})
}

func (s *Server) handleHold(w http.ResponseWriter, r *http.Request, tenant *models.Tenant, req *widgetRequest, requestID string) {
	var issues []string
	if req.PartySize < 1 {
		issues = append(issues, "party_size must be at least 1")
	}
	slot, err := time.Parse(time.RFC3339, req.Slot)
	if err != nil {
		issues = append(issues, "slot must be an RFC 3339 instant")
	}
	if len(issues) > 0 {
		writeError(w, http.StatusBadRequest, CodeValidationError, "invalid hold request", requestID, issues)
		return
	}

	result, err := s.orch.CreateHold(r.Context(), tenant, req.PartySize, slot)
	if err != nil {
		s.writeOrchestratorError(w, err, requestID)
		return
	}
	writeJSON(w, http.StatusOK, holdResponse{
		Success:   true,
		HoldID:    result.HoldID,
		ExpiresAt: result.ExpiresAt,
		TableIDs:  result.TableIDs,
		Degraded:  result.Degraded,
		RequestID: requestID,
	})
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request, tenant *models.Tenant, req *widgetRequest, requestID string) {
	var issues []string
	if req.HoldID == "" {
		issues = append(issues, "hold_id is required")
	}
	if req.IdempotencyKey == "" {
		issues = append(issues, "idempotency_key is required")
	}
	if req.GuestDetails == nil {
		issues = append(issues, "guest_details is required")
	} else if err := s.validate.Struct(req.GuestDetails); err != nil {
		issues = append(issues, validationIssues(err)...)
	}
	if len(issues) > 0 {
		writeError(w, http.StatusBadRequest, CodeValidationError, "invalid confirm request", requestID, issues)
		return
	}

	out, err := s.orch.ConfirmReservation(r.Context(), tenant, orchestrator.ConfirmInput{
		HoldID:         req.HoldID,
		IdempotencyKey: req.IdempotencyKey,
		RequestID:      requestID,
		Guest: orchestrator.GuestDetails{
			Name:            req.GuestDetails.Name,
			Email:           req.GuestDetails.Email,
			Phone:           req.GuestDetails.Phone,
			SpecialRequests: req.GuestDetails.SpecialRequests,
		},
	})
	if err != nil {
		s.writeOrchestratorError(w, err, requestID)
		return
	}
	writeRaw(w, out.StatusCode, out.Body)
}

func (s *Server) writeOrchestratorError(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, database.ErrHoldNotFound):
		writeError(w, http.StatusNotFound, CodeHoldNotFound, "hold not found or expired", requestID, nil)
	case errors.Is(err, token.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, CodeInvalidToken, "invalid or expired token", requestID, nil)
	default:
		s.logger.Error().Err(err).Str("request_id", requestID).Msg("request failed")
		writeError(w, http.StatusInternalServerError, CodeInternal, "internal error", requestID, nil)
	}
}

// validationIssues flattens validator errors into caller-friendly strings
// without leaking struct internals.
func validationIssues(err error) []string {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return []string{"invalid request"}
	}
	issues := make([]string, 0, len(ves))
	for _, fe := range ves {
		issues = append(issues, strings.ToLower(fe.Field())+" failed "+fe.Tag()+" validation")
	}
	return issues
}
