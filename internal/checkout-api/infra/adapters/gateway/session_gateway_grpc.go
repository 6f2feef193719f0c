package gateway

import (
	"context"
	"fmt"

	"github.com/jcmexdev/checkout-sessions/internal/checkout-api/core/ports"
	"github.com/jcmexdev/checkout-sessions/internal/pkg/gatewayrpc"
)

var _ ports.SessionGateway = (*GRPCSessionGateway)(nil)

// GRPCSessionGateway talks to the payment gateway over gRPC. The bearer
// credential and propagated metadata are attached by the connection's
// interceptors.
type GRPCSessionGateway struct {
	client *gatewayrpc.Client
}

func NewGRPCSessionGateway(client *gatewayrpc.Client) ports.SessionGateway {
	return &GRPCSessionGateway{client: client}
}

func (g *GRPCSessionGateway) CreateSession(ctx context.Context, in gatewayrpc.CreateSessionInput) (gatewayrpc.Session, error) {
	sess, err := g.client.CreateSession(ctx, in)
	if err != nil {
		return gatewayrpc.Session{}, fmt.Errorf("grpc CreateSession: %w", err)
	}
	return sess, nil
}

func (g *GRPCSessionGateway) ExpireSession(ctx context.Context, id string) (gatewayrpc.Session, error) {
	sess, err := g.client.ExpireSession(ctx, id)
	if err != nil {
		return gatewayrpc.Session{}, fmt.Errorf("grpc ExpireSession: %w", err)
	}
	return sess, nil
}
