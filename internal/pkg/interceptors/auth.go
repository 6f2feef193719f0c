package interceptors

import (
	"context"
	"crypto/subtle"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/jcmexdev/checkout-sessions/internal/pkg/interceptors/constants"
)

const bearerPrefix = "Bearer "

// BearerClientInterceptor attaches the gateway credential to every call.
func BearerClientInterceptor(secret string) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		ctx = metadata.AppendToOutgoingContext(ctx, constants.HeaderAuthorization, bearerPrefix+secret)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// BearerServerInterceptor rejects calls whose bearer credential does not
// match secret. The presented value is never logged or echoed.
func BearerServerInterceptor(secret string) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		values := md.Get(constants.HeaderAuthorization)
		if len(values) == 0 || !strings.HasPrefix(values[0], bearerPrefix) {
			return nil, status.Error(codes.Unauthenticated, "missing bearer credential")
		}
		presented := strings.TrimPrefix(values[0], bearerPrefix)
		if secret == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
			return nil, status.Error(codes.Unauthenticated, "invalid credential")
		}
		return handler(ctx, req)
	}
}
