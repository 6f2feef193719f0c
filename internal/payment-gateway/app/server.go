package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/currency"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jcmexdev/checkout-sessions/internal/pkg/cache"
	"github.com/jcmexdev/checkout-sessions/internal/pkg/gatewayrpc"
	"github.com/jcmexdev/checkout-sessions/internal/pkg/interceptors"
	"github.com/jcmexdev/checkout-sessions/internal/pkg/interceptors/constants"
)

const idempotencyTTL = 24 * time.Hour

var _ gatewayrpc.Server = (*SessionServer)(nil)

// SessionServer is a local hosted-checkout provider. It keeps sessions in
// memory and hands out URLs under its public base URL.
type SessionServer struct {
	mu            sync.Mutex
	sessions      map[string]*gatewayrpc.Session
	cache         cache.Cache
	publicBaseURL string
	newID         func() string
}

func NewSessionServer(c cache.Cache, publicBaseURL string) *SessionServer {
	return &SessionServer{
		sessions:      make(map[string]*gatewayrpc.Session),
		cache:         c,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		newID:         func() string { return "cs_" + strings.ReplaceAll(uuid.NewString(), "-", "") },
	}
}

func (s *SessionServer) CreateSession(ctx context.Context, in gatewayrpc.CreateSessionInput) (gatewayrpc.Session, error) {
	cur, total, err := validate(in)
	if err != nil {
		slog.InfoContext(ctx, "rejecting checkout session", "reason", err.Error())
		return gatewayrpc.Session{}, status.Error(codes.InvalidArgument, err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idemKey := interceptors.GetMetadataValue(ctx, constants.HeaderXIdempotencyKey)
	cacheKey := s.cache.GenerateKey("create_session", idemKey)
	if idemKey != "" {
		id, err := s.cache.Get(ctx, cacheKey)
		if err != nil {
			slog.WarnContext(ctx, "idempotency lookup failed", "error", err)
		} else if sess, ok := s.sessions[id]; ok {
			// Only an open session can still be paid; a key whose session was
			// expired or completed gets a fresh one.
			if sess.Status == gatewayrpc.StatusOpen {
				slog.InfoContext(ctx, "replaying checkout session", "session_id", id, "idempotency_key", idemKey)
				return *sess, nil
			}
			slog.InfoContext(ctx, "idempotency key points at a closed session, creating a new one",
				"session_id", id, "status", sess.Status, "idempotency_key", idemKey)
		}
	}

	id := s.newID()
	sess := &gatewayrpc.Session{
		ID:          id,
		URL:         s.publicBaseURL + "/session/" + id,
		Status:      gatewayrpc.StatusOpen,
		Currency:    cur,
		AmountTotal: total,
	}
	s.sessions[id] = sess

	if idemKey != "" {
		if err := s.cache.Set(ctx, cacheKey, id, idempotencyTTL); err != nil {
			slog.ErrorContext(ctx, "failed to remember idempotency key", "session_id", id, "error", err)
		}
	}

	slog.InfoContext(ctx, "checkout session created",
		"session_id", id,
		"mode", in.Mode,
		"currency", cur,
		"amount_total", total,
		"line_items", len(in.LineItems),
	)
	return *sess, nil
}

func (s *SessionServer) ExpireSession(ctx context.Context, id string) (gatewayrpc.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return gatewayrpc.Session{}, status.Errorf(codes.NotFound, "session %s not found", id)
	}
	switch sess.Status {
	case gatewayrpc.StatusComplete:
		return gatewayrpc.Session{}, status.Errorf(codes.FailedPrecondition, "session %s is already complete", id)
	case gatewayrpc.StatusOpen:
		sess.Status = gatewayrpc.StatusExpired
		slog.InfoContext(ctx, "checkout session expired", "session_id", id)
	}
	return *sess, nil
}

func (s *SessionServer) GetSession(ctx context.Context, id string) (gatewayrpc.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return gatewayrpc.Session{}, status.Errorf(codes.NotFound, "session %s not found", id)
	}
	return *sess, nil
}

// validate applies the provider's line item rules and returns the session
// currency and total.
func validate(in gatewayrpc.CreateSessionInput) (string, int64, error) {
	switch in.Mode {
	case "payment", "subscription":
	default:
		return "", 0, fmt.Errorf("invalid mode %q", in.Mode)
	}
	for _, raw := range []string{in.SuccessURL, in.CancelURL} {
		u, err := url.Parse(raw)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return "", 0, fmt.Errorf("invalid redirect url %q", raw)
		}
	}
	if len(in.LineItems) == 0 {
		return "", 0, fmt.Errorf("line_items must not be empty")
	}

	var cur string
	var total int64
	for i, li := range in.LineItems {
		unit, err := currency.ParseISO(li.Currency)
		if err != nil {
			return "", 0, fmt.Errorf("line_items[%d]: invalid currency %q", i, li.Currency)
		}
		if cur == "" {
			cur = unit.String()
		} else if unit.String() != cur {
			return "", 0, fmt.Errorf("line_items[%d]: currency %s does not match %s", i, unit, cur)
		}
		if strings.TrimSpace(li.ProductName) == "" {
			return "", 0, fmt.Errorf("line_items[%d]: product name is required", i)
		}
		if li.UnitAmount <= 0 {
			return "", 0, fmt.Errorf("line_items[%d]: unit_amount must be positive", i)
		}
		if li.Quantity < 1 {
			return "", 0, fmt.Errorf("line_items[%d]: quantity must be at least 1", i)
		}
		total += li.UnitAmount * li.Quantity
	}
	return cur, total, nil
}
