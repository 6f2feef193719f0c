package constants

// contextKey is an unexported type for context keys in this package.
// Using a custom type prevents collisions with keys from other packages
// that might use the same underlying string value.
type contextKey string

const (
	HeaderXRequestId      = "x-request-id"
	HeaderXIdempotencyKey = "x-idempotency-key"
	HeaderAuthorization   = "authorization"

	// ContextKeyRequestID is the context key for the request ID.
	ContextKeyRequestID contextKey = HeaderXRequestId
	// ContextKeyIdempotencyKey is the context key for the idempotency key of
	// one checkout attempt.
	ContextKeyIdempotencyKey contextKey = HeaderXIdempotencyKey
)

// ContextKey returns the typed context key under which the value of a
// propagated header is stored.
func ContextKey(header string) contextKey {
	return contextKey(header)
}
