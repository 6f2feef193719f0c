package interceptors

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/jcmexdev/checkout-sessions/internal/pkg/interceptors/constants"
)

// propagated lists the headers copied from the context into outgoing gRPC
// metadata.
var propagated = []string{constants.HeaderXRequestId, constants.HeaderXIdempotencyKey}

// PropagateClientInterceptor copies the request id and idempotency key stored
// in the context into the outgoing metadata of every unary call.
func PropagateClientInterceptor() grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		return invoker(ContextWithPropagatedMetadata(ctx), method, req, reply, cc, opts...)
	}
}

// ContextWithPropagatedMetadata appends the propagated values found in ctx to
// its outgoing metadata, skipping values already present there.
func ContextWithPropagatedMetadata(ctx context.Context) context.Context {
	out, _ := metadata.FromOutgoingContext(ctx)
	for _, key := range propagated {
		if len(out.Get(key)) > 0 {
			continue
		}
		if v, ok := ctx.Value(constants.ContextKey(key)).(string); ok && v != "" {
			ctx = metadata.AppendToOutgoingContext(ctx, key, v)
		}
	}
	return ctx
}

// GetMetadataValue looks a propagated value up in the context values first,
// then in incoming and outgoing metadata.
func GetMetadataValue(ctx context.Context, key string) string {
	if v, ok := ctx.Value(constants.ContextKey(key)).(string); ok && v != "" {
		return v
	}

	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(key); len(ids) > 0 {
			return ids[0]
		}
	}

	if md, ok := metadata.FromOutgoingContext(ctx); ok {
		if ids := md.Get(key); len(ids) > 0 {
			return ids[0]
		}
	}
	return ""
}
