// Package store provides the shared key-value store behind the rate limiter
// and idempotency coordinator: a Redis backend for multi-node deployments,
// an in-process fallback for single-node mode, and a failover wrapper that
// degrades from one to the other when the shared store is unreachable.
//
// Correctness of the consumers rests on two atomic primitives exposed here:
// SetNX (set-if-absent with expiry) and HIncrBy (atomic hash-field increment).
// No consumer ever does a read-then-write across two round trips.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key does not exist or has expired.
var ErrNotFound = errors.New("store: key not found")

// Store is the key-value contract shared by the Redis backend and the
// in-process fallback. All operations take a context; implementations must
// surface network failures as errors rather than blocking indefinitely.
type Store interface {
	// SetNX atomically sets key to value with a TTL if the key does not
	// exist. Returns true when this call created the key.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key with a TTL (0 = no expiry).
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Del removes the given keys. Missing keys are not an error.
	Del(ctx context.Context, keys ...string) error

	// HGetAll returns all fields of the hash at key. Missing hashes return
	// an empty map, not an error.
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	// HSet writes the given fields into the hash at key.
	HSet(ctx context.Context, key string, fields map[string]string) error

	// HIncrBy atomically increments a hash field and returns the new value.
	// A missing hash or field counts from zero.
	HIncrBy(ctx context.Context, key, field string, incr int64) (int64, error)

	// Expire sets the TTL on an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error
}
