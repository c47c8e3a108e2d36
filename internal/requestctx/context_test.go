package requestctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", UserID(ctx))

	ctx = SetUserID(ctx, "user-123")
	assert.Equal(t, "user-123", UserID(ctx))
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := SetRequestID(context.Background(), "req-abc")
	assert.Equal(t, "req-abc", RequestID(ctx))
}

func TestIdempotencyKeyRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", IdempotencyKey(ctx))
	ctx = SetIdempotencyKey(ctx, "user_create_1234567890_abcd")
	assert.Equal(t, "user_create_1234567890_abcd", IdempotencyKey(ctx))
}
