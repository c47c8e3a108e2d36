package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetNX(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	ok, err := s.SetNX(ctx, "k", "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SetNX(ctx, "k", "2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	val, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "1", val)
}

func TestMemoryStore_SetNXAfterExpiry(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()
	s.now = func() time.Time { return now }

	ok, err := s.SetNX(ctx, "k", "1", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(2 * time.Second)
	ok, err = s.SetNX(ctx, "k", "2", time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "expired key must be claimable again")
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_HIncrBy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	n, err := s.HIncrBy(ctx, "h", "count", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.HIncrBy(ctx, "h", "count", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	fields, err := s.HGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, "2", fields["count"])
}

func TestMemoryStore_HIncrByConcurrent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.HIncrBy(ctx, "h", "count", 1)
		}()
	}
	wg.Wait()

	n, err := s.HIncrBy(ctx, "h", "count", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(50), n)
}

func TestMemoryStore_ExpireAndSweep(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "v", "x", 0))
	_, err := s.HIncrBy(ctx, "h", "count", 1)
	require.NoError(t, err)
	require.NoError(t, s.Expire(ctx, "v", time.Second))
	require.NoError(t, s.Expire(ctx, "h", time.Second))

	now = now.Add(2 * time.Second)
	s.Sweep()

	_, err = s.Get(ctx, "v")
	assert.ErrorIs(t, err, ErrNotFound)
	fields, err := s.HGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestMemoryStore_Del(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "a", "1", 0))
	_, err := s.HIncrBy(ctx, "b", "f", 1)
	require.NoError(t, err)

	require.NoError(t, s.Del(ctx, "a", "b"))

	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	fields, err := s.HGetAll(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestMemoryStore_HSetMixedFields(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.HSet(ctx, "h", map[string]string{"count": "3", "label": "chat"}))

	n, err := s.HIncrBy(ctx, "h", "count", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	fields, err := s.HGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, "5", fields["count"])
	assert.Equal(t, "chat", fields["label"])
}
