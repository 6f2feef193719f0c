package middlewares

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/checkout-sessions/internal/pkg/interceptors/constants"
)

// AttachTracingMetadata stores the request id and the caller's idempotency
// key as typed context values. The gRPC client interceptor copies them into
// outgoing metadata.
func AttachTracingMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		idempotencyKey := r.Header.Get(constants.HeaderXIdempotencyKey)

		ctx := context.WithValue(r.Context(), constants.ContextKeyRequestID, requestID)
		if idempotencyKey != "" {
			ctx = context.WithValue(ctx, constants.ContextKeyIdempotencyKey, idempotencyKey)
		}

		w.Header().Set(constants.HeaderXRequestId, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
