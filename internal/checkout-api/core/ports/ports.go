package ports

import (
	"context"

	"github.com/jcmexdev/checkout-sessions/internal/pkg/gatewayrpc"
	"github.com/jcmexdev/checkout-sessions/internal/session"
)

// SessionGateway is the hosted payment provider as seen by the checkout API.
// Errors carry a gRPC status when the provider answered.
type SessionGateway interface {
	CreateSession(ctx context.Context, in gatewayrpc.CreateSessionInput) (gatewayrpc.Session, error)
	ExpireSession(ctx context.Context, id string) (gatewayrpc.Session, error)
}

// CheckoutService creates hosted checkout sessions for the HTTP boundary.
type CheckoutService interface {
	Submit(ctx context.Context, req session.CheckoutSessionRequest) session.Result
}
