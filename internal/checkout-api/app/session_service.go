// Package app holds the checkout API's use case: turning a validated
// checkout session request into a hosted payment page URL.
package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jcmexdev/checkout-sessions/internal/checkout-api/core/ports"
	"github.com/jcmexdev/checkout-sessions/internal/coordinator"
	"github.com/jcmexdev/checkout-sessions/internal/coordinator/attemptlog"
	"github.com/jcmexdev/checkout-sessions/internal/pkg/cache"
	"github.com/jcmexdev/checkout-sessions/internal/pkg/gatewayrpc"
	"github.com/jcmexdev/checkout-sessions/internal/pkg/interceptors"
	"github.com/jcmexdev/checkout-sessions/internal/pkg/interceptors/constants"
	"github.com/jcmexdev/checkout-sessions/internal/session"
)

type Config struct {
	// CredentialConfigured is false when PAYMENT_GATEWAY_SECRET_KEY is unset.
	// The secret itself is attached by the gRPC client interceptor.
	CredentialConfigured bool
	Timeout              time.Duration
	IdempotencyTTL       time.Duration
}

var _ ports.CheckoutService = (*SessionService)(nil)

type SessionService struct {
	gateway ports.SessionGateway
	cache   cache.Cache
	repo    attemptlog.Repository // may be nil
	cfg     Config
}

func NewSessionService(gateway ports.SessionGateway, c cache.Cache, repo attemptlog.Repository, cfg Config) *SessionService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 24 * time.Hour
	}
	return &SessionService{gateway: gateway, cache: c, repo: repo, cfg: cfg}
}

// Submit creates one hosted session for req. It never retries: a failed
// attempt is reported and the caller decides whether to submit again. The
// idempotency key found in ctx makes a repeated submission replay the URL
// of the first one.
func (s *SessionService) Submit(ctx context.Context, req session.CheckoutSessionRequest) session.Result {
	if !s.cfg.CredentialConfigured {
		slog.ErrorContext(ctx, "payment gateway credential is not configured")
		return session.Failed(session.KindConfiguration, "payment gateway credential is not configured")
	}
	if err := req.Validate(); err != nil {
		return session.FailedWith(err, session.KindInvalidRequest)
	}

	key := interceptors.GetMetadataValue(ctx, constants.HeaderXIdempotencyKey)
	fp := fingerprint(req)
	if remembered, ok, err := coordinator.LookupSession(ctx, s.cache, key); err != nil {
		slog.WarnContext(ctx, "idempotency lookup failed, creating a new session", "idempotency_key", key, "error", err)
	} else if ok {
		if remembered.Fingerprint != "" && remembered.Fingerprint != fp {
			slog.WarnContext(ctx, "idempotency key reused for a different checkout", "idempotency_key", key, "session_id", remembered.ID)
			return session.Failed(session.KindGatewayRejected, "idempotency key was already used for a different checkout")
		}
		slog.InfoContext(ctx, "replaying checkout session", "idempotency_key", key, "session_id", remembered.ID)
		return session.Succeeded(remembered.URL)
	}

	attemptID := key
	if attemptID == "" {
		attemptID = uuid.NewString()
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	create := coordinator.NewCreateSessionStep(s.gateway, toGatewayInput(req))
	steps := []coordinator.Step{
		create,
		coordinator.NewRememberSessionStep(s.cache, key, s.cfg.IdempotencyTTL, create).WithFingerprint(fp),
	}
	err := coordinator.NewOrchestrator(attemptID, steps, s.repo).
		WithPayload(payloadOf(req)).
		Start(callCtx)
	if err != nil {
		f := s.classify(callCtx, err)
		slog.ErrorContext(ctx, "checkout session failed", "attempt_id", attemptID, "kind", f.Kind, "error", err)
		return session.Result{Failure: f}
	}

	sess := create.Session()
	slog.InfoContext(ctx, "checkout session created",
		"attempt_id", attemptID,
		"session_id", sess.ID,
		"currency", sess.Currency,
		"amount_total", sess.AmountTotal,
	)
	return session.Succeeded(sess.URL)
}

// classify maps a pipeline error onto a failure kind. Rejections keep the
// gateway's message; everything else is reported as unreachable.
func (s *SessionService) classify(ctx context.Context, err error) *session.Failure {
	if errors.Is(err, coordinator.ErrEmptySessionURL) {
		return session.NewFailure(session.KindGatewayRejected, "gateway returned no redirect url")
	}
	if errors.Is(err, coordinator.ErrSessionNotOpen) {
		return session.NewFailure(session.KindGatewayRejected, "gateway returned a session that can no longer be paid")
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return session.NewFailuref(session.KindTransport, "gateway did not respond within %s", s.cfg.Timeout)
	}

	// errors.As rather than status.FromError keeps the gateway's own
	// message instead of the wrapped error chain.
	var se interface{ GRPCStatus() *status.Status }
	if !errors.As(err, &se) || se.GRPCStatus() == nil {
		return session.NewFailuref(session.KindTransport, "gateway unreachable: %v", err)
	}
	st := se.GRPCStatus()
	switch st.Code() {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return session.NewFailure(session.KindGatewayRejected, st.Message())
	case codes.Unauthenticated, codes.PermissionDenied:
		// The gateway's message may echo what it was given; keep it out.
		return session.NewFailure(session.KindConfiguration, "payment gateway rejected the configured credential")
	default:
		return session.NewFailuref(session.KindTransport, "gateway unavailable (%s): %s", st.Code(), st.Message())
	}
}

func toGatewayInput(req session.CheckoutSessionRequest) gatewayrpc.CreateSessionInput {
	lines := make([]gatewayrpc.LineItem, len(req.LineItems))
	for i, li := range req.LineItems {
		lines[i] = gatewayrpc.LineItem{
			Currency:    li.Currency,
			ProductName: li.ProductName,
			UnitAmount:  li.UnitPriceMinorUnits,
			Quantity:    li.Quantity,
		}
	}
	return gatewayrpc.CreateSessionInput{
		Mode:       string(req.Mode),
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
		LineItems:  lines,
	}
}

// fingerprint is a digest of everything sent to the gateway.
func fingerprint(req session.CheckoutSessionRequest) string {
	b, err := json.Marshal(toGatewayInput(req))
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// payloadOf summarises the request for the attempt log.
func payloadOf(req session.CheckoutSessionRequest) string {
	b, err := json.Marshal(map[string]any{
		"mode":              req.Mode,
		"currency":          req.Currency(),
		"total_minor_units": req.TotalMinorUnits(),
		"line_items":        len(req.LineItems),
		"success_url":       req.SuccessURL,
		"cancel_url":        req.CancelURL,
	})
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	return string(b)
}
