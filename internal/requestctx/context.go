// Package requestctx provides request-scoped values (user_id, request_id,
// idempotency key) set by server middleware and read by downstream components.
package requestctx

import "context"

type contextKey struct{ name string }

var (
	userIDKey         = &contextKey{"user_id"}
	requestIDKey      = &contextKey{"request_id"}
	idempotencyKeyKey = &contextKey{"idempotency_key"}
)

// SetUserID stores the subject identity in the context.
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the subject identity from context, or "" if not set.
func UserID(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

// SetRequestID stores the request correlation id in the context.
func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID returns the request correlation id from context, or "" if not set.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// SetIdempotencyKey stores the caller-supplied idempotency key in the context.
func SetIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKeyKey, key)
}

// IdempotencyKey returns the idempotency key from context, or "" if not set.
func IdempotencyKey(ctx context.Context) string {
	v, _ := ctx.Value(idempotencyKeyKey).(string)
	return v
}
