package gateway

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jcmexdev/checkout-sessions/internal/checkout-api/core/ports"
	"github.com/jcmexdev/checkout-sessions/internal/pkg/gatewayrpc"
)

var _ ports.SessionGateway = (*FakeSessionGateway)(nil)

// FakeSessionGateway is an in-memory gateway for local development and
// tests. Do NOT use in production.
type FakeSessionGateway struct {
	mu       sync.Mutex
	baseURL  string
	sessions map[string]gatewayrpc.Session
	calls    int

	// Err, when set, is returned by CreateSession.
	Err error
}

func NewFakeSessionGateway(baseURL string) *FakeSessionGateway {
	return &FakeSessionGateway{baseURL: baseURL, sessions: make(map[string]gatewayrpc.Session)}
}

func (f *FakeSessionGateway) CreateSession(ctx context.Context, in gatewayrpc.CreateSessionInput) (gatewayrpc.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.Err != nil {
		return gatewayrpc.Session{}, f.Err
	}
	if err := ctx.Err(); err != nil {
		return gatewayrpc.Session{}, status.FromContextError(err).Err()
	}

	var total int64
	for _, li := range in.LineItems {
		total += li.UnitAmount * li.Quantity
	}
	id := uuid.NewString()
	sess := gatewayrpc.Session{
		ID:          id,
		URL:         f.baseURL + "/session/" + id,
		Status:      gatewayrpc.StatusOpen,
		AmountTotal: total,
	}
	if len(in.LineItems) > 0 {
		sess.Currency = in.LineItems[0].Currency
	}
	f.sessions[id] = sess
	return sess, nil
}

func (f *FakeSessionGateway) ExpireSession(ctx context.Context, id string) (gatewayrpc.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sess, ok := f.sessions[id]
	if !ok {
		return gatewayrpc.Session{}, status.Errorf(codes.NotFound, "session %s not found", id)
	}
	sess.Status = gatewayrpc.StatusExpired
	f.sessions[id] = sess
	return sess, nil
}

// Calls is the number of CreateSession calls received.
func (f *FakeSessionGateway) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeSessionGateway) Session(id string) (gatewayrpc.Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	return s, ok
}
