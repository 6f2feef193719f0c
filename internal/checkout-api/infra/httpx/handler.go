package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/checkout-sessions/internal/checkout-api/core/ports"
	"github.com/jcmexdev/checkout-sessions/internal/coordinator/attemptlog"
	"github.com/jcmexdev/checkout-sessions/internal/pkg/interceptors/constants"
	"github.com/jcmexdev/checkout-sessions/internal/session"
)

// maxRequestBytes caps a checkout body.
const maxRequestBytes = 1 << 20

// Handler serves the checkout boundary.
type Handler struct {
	service     ports.CheckoutService
	attempts    attemptlog.Repository // nil-safe: status lookups answer 404
	successPath string
	cancelPath  string
}

func NewHandler(service ports.CheckoutService, attempts attemptlog.Repository, successPath, cancelPath string) *Handler {
	if successPath == "" {
		successPath = "/sucesso"
	}
	if cancelPath == "" {
		cancelPath = "/"
	}
	return &Handler{
		service:     service,
		attempts:    attempts,
		successPath: successPath,
		cancelPath:  cancelPath,
	}
}

// CreateCheckout maps the cart body to a checkout session request, with
// redirect targets derived from the caller's origin, and answers with the
// hosted page URL.
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var body CheckoutRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, string(session.KindInvalidRequest), "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, string(session.KindInvalidRequest), "invalid json: "+err.Error())
		return
	}

	mode, err := session.ParseMode(body.Mode)
	if err != nil {
		writeFailure(w, session.AsFailure(err, session.KindInvalidRequest))
		return
	}

	origin := requestOrigin(r)
	req := session.CheckoutSessionRequest{
		LineItems:  mapLineItems(body.Items),
		Mode:       mode,
		SuccessURL: origin + h.successPath,
		CancelURL:  origin + h.cancelPath,
	}
	if err := req.Validate(); err != nil {
		writeFailure(w, session.AsFailure(err, session.KindInvalidRequest))
		return
	}

	idempKey, _ := r.Context().Value(constants.ContextKeyIdempotencyKey).(string)
	requestID, _ := r.Context().Value(constants.ContextKeyRequestID).(string)
	slog.InfoContext(r.Context(), "creating checkout session",
		"request_id", requestID,
		"idempotency_key", idempKey,
		"origin", origin,
		"line_items", len(req.LineItems),
	)

	res := h.service.Submit(r.Context(), req)
	if res.IsSuccess() {
		writeJSON(w, http.StatusOK, CheckoutResponse{URL: res.RedirectURL})
		return
	}
	f := res.Failure
	if f == nil {
		f = session.NewFailure(session.KindGatewayRejected, "gateway returned no redirect url")
	}
	writeFailure(w, f)
}

// GetAttempt reports the latest attempt log row for an idempotency key.
func (h *Handler) GetAttempt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.attempts == nil {
		writeError(w, http.StatusNotFound, "attempt_not_found", "attempt log is disabled")
		return
	}

	entry, err := h.attempts.Latest(r.Context(), id)
	if errors.Is(err, attemptlog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "attempt_not_found", id)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "attempt lookup failed", "attempt_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "attempt_log_error", "")
		return
	}

	writeJSON(w, http.StatusOK, AttemptResponse{
		AttemptID:   entry.AttemptID,
		Status:      string(entry.Status),
		CurrentStep: entry.CurrentStep,
		TraceID:     entry.TraceID,
		UpdatedAt:   entry.UpdatedAt.UTC().Format(time.RFC3339Nano),
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func mapLineItems(items []CheckoutItemDTO) []session.LineItem {
	out := make([]session.LineItem, len(items))
	for i, it := range items {
		out[i] = session.LineItem{
			Currency:            it.Price.Currency,
			ProductName:         it.Price.ProductInfo.Name,
			UnitPriceMinorUnits: it.Price.UnitPriceMinorUnits,
			Quantity:            it.Quantity,
		}
	}
	return out
}

// requestOrigin prefers the Origin header and falls back to the scheme and
// host the request arrived on.
func requestOrigin(r *http.Request) string {
	if raw := r.Header.Get("Origin"); raw != "" {
		if u, err := url.Parse(raw); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
			return u.Scheme + "://" + u.Host
		}
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + strings.TrimRight(r.Host, "/")
}

func statusFor(kind session.Kind) int {
	switch {
	case kind.IsValidation():
		return http.StatusBadRequest
	case kind == session.KindGatewayRejected:
		return http.StatusUnprocessableEntity
	case kind == session.KindConfiguration:
		return http.StatusServiceUnavailable
	case kind == session.KindTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeFailure(w http.ResponseWriter, f *session.Failure) {
	writeError(w, statusFor(f.Kind), string(f.Kind), f.Message)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
