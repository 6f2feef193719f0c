package interceptors

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/jcmexdev/checkout-sessions/internal/pkg/interceptors/constants"
)

// TraceServerInterceptor lifts the request id and idempotency key from the
// incoming metadata into typed context values and logs the call.
func TraceServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		md, exist := metadata.FromIncomingContext(ctx)
		requestID := ""
		idempotencyKey := ""
		if exist {
			if ids := md.Get(constants.HeaderXRequestId); len(ids) > 0 {
				requestID = ids[0]
			}

			if ids := md.Get(constants.HeaderXIdempotencyKey); len(ids) > 0 {
				idempotencyKey = ids[0]
			}
		}
		newCtx := context.WithValue(ctx, constants.ContextKeyRequestID, requestID)
		newCtx = context.WithValue(newCtx, constants.ContextKeyIdempotencyKey, idempotencyKey)

		slog.InfoContext(newCtx, "grpc call",
			"method", info.FullMethod,
			"request_id", requestID,
			"idempotency_key", idempotencyKey,
		)

		return handler(newCtx, req)
	}
}
