package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helvia-io/maestro/internal/apperr"
	"github.com/helvia-io/maestro/internal/store"
)

const testKey = "user1_create_task_1700000000000"

func newCoordinator() *Coordinator {
	return New(store.NewMemoryStore(), time.Hour)
}

func TestValidateKey(t *testing.T) {
	assert.NoError(t, ValidateKey("abcdefghij"))
	assert.NoError(t, ValidateKey("user-1_op_123"))

	for _, bad := range []string{"", "short", "has spaces in it", "emoji🙂emoji🙂"} {
		err := ValidateKey(bad)
		require.Error(t, err, bad)
		assert.True(t, errors.Is(err, apperr.IdempotencyKeyInvalid("")), bad)
	}
}

func TestCheckAndReserve_FirstHolderOnly(t *testing.T) {
	c := newCoordinator()
	ctx := context.Background()

	first, err := c.CheckAndReserve(ctx, testKey, 0)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := c.CheckAndReserve(ctx, testKey, 0)
	require.NoError(t, err)
	assert.False(t, second)
}

func TestCheckAndReserve_ConcurrentSingleWinner(t *testing.T) {
	c := newCoordinator()
	ctx := context.Background()

	var winners atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first, err := c.CheckAndReserve(ctx, testKey, 0)
			if err == nil && first {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), winners.Load())
}

func TestStoreResult_RoundTrip(t *testing.T) {
	c := newCoordinator()
	ctx := context.Background()

	want := map[string]any{"success": true, "message": "created", "data": map[string]any{"id": "t1"}}
	require.NoError(t, c.StoreResult(ctx, testKey, want, 0))

	raw, err := c.StoredResult(ctx, testKey)
	require.NoError(t, err)
	require.NotNil(t, raw)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, want, got)
}

func TestCheckIdempotency_TriState(t *testing.T) {
	c := newCoordinator()
	ctx := context.Background()

	// First holder.
	check, err := c.CheckIdempotency(ctx, testKey)
	require.NoError(t, err)
	assert.True(t, check.First)
	assert.False(t, check.Pending())

	// Duplicate while the first holder is still working: claimed but empty.
	check, err = c.CheckIdempotency(ctx, testKey)
	require.NoError(t, err)
	assert.False(t, check.First)
	assert.True(t, check.Pending())
	assert.Nil(t, check.Result)

	// After completion the duplicate sees the cached result.
	require.NoError(t, c.Complete(ctx, testKey, map[string]string{"status": "done"}))
	check, err = c.CheckIdempotency(ctx, testKey)
	require.NoError(t, err)
	assert.False(t, check.First)
	assert.False(t, check.Pending())
	assert.JSONEq(t, `{"status":"done"}`, string(check.Result))
}

func TestDelete_RemovesReservationAndResult(t *testing.T) {
	c := newCoordinator()
	ctx := context.Background()

	first, err := c.CheckAndReserve(ctx, testKey, 0)
	require.NoError(t, err)
	require.True(t, first)
	require.NoError(t, c.Complete(ctx, testKey, "done"))

	require.NoError(t, c.Delete(ctx, testKey))

	first, err = c.CheckAndReserve(ctx, testKey, 0)
	require.NoError(t, err)
	assert.True(t, first, "key must be claimable again after delete")
	raw, err := c.StoredResult(ctx, testKey)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestCheckAndReserve_RejectsInvalidKeyBeforeStore(t *testing.T) {
	c := newCoordinator()
	_, err := c.CheckAndReserve(context.Background(), "bad key", 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.IdempotencyKeyInvalid("")))
}

func TestGenerateKey_Valid(t *testing.T) {
	key := GenerateKey("user1", "create_event", map[string]string{"title": "standup"})
	assert.NoError(t, ValidateKey(key))
	assert.Contains(t, key, "user1_create_event_")
}
