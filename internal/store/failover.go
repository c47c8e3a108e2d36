package store

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/metric"

	maestrotel "github.com/helvia-io/maestro/internal/otel"
)

var meter = maestrotel.Meter("github.com/helvia-io/maestro/internal/store")

// Failover wraps a primary (shared) store and an in-process fallback. When
// the primary errors or times out, the operation is retried on the fallback
// and the wrapper enters degraded mode. Degraded mode is a documented
// correctness downgrade: single-node behavior stays correct, multi-node
// guarantees are suspended until the primary recovers.
type Failover struct {
	primary  Store
	fallback Store
	degraded atomic.Bool

	failovers metric.Int64Counter
}

// NewFailover creates the wrapper. primary may be nil (single-node mode), in
// which case the fallback serves everything and Degraded always reports false.
func NewFailover(primary Store, fallback Store) *Failover {
	f := &Failover{primary: primary, fallback: fallback}
	f.failovers, _ = meter.Int64Counter("maestro.store.failovers",
		metric.WithDescription("Operations that fell back to the in-process store"))
	return f
}

// Degraded reports whether the last primary operation failed and the wrapper
// is serving from the in-process fallback.
func (f *Failover) Degraded() bool {
	return f.primary != nil && f.degraded.Load()
}

// markFailed records a primary failure and flips degraded mode on.
func (f *Failover) markFailed(ctx context.Context, op string, err error) {
	if f.failovers != nil {
		f.failovers.Add(ctx, 1)
	}
	if f.degraded.CompareAndSwap(false, true) {
		log.Warn().Err(err).Str("op", op).
			Func(maestrotel.LogTraceFields(ctx)).
			Msg("shared store unavailable, serving from in-process fallback")
	}
}

// markOK clears degraded mode after a successful primary operation.
func (f *Failover) markOK() {
	if f.degraded.CompareAndSwap(true, false) {
		log.Info().Msg("shared store recovered")
	}
}

func (f *Failover) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if f.primary != nil {
		ok, err := f.primary.SetNX(ctx, key, value, ttl)
		if err == nil {
			f.markOK()
			return ok, nil
		}
		f.markFailed(ctx, "setnx", err)
	}
	return f.fallback.SetNX(ctx, key, value, ttl)
}

func (f *Failover) Get(ctx context.Context, key string) (string, error) {
	if f.primary != nil {
		val, err := f.primary.Get(ctx, key)
		if err == nil || err == ErrNotFound {
			f.markOK()
			return val, err
		}
		f.markFailed(ctx, "get", err)
	}
	return f.fallback.Get(ctx, key)
}

func (f *Failover) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if f.primary != nil {
		err := f.primary.Set(ctx, key, value, ttl)
		if err == nil {
			f.markOK()
			return nil
		}
		f.markFailed(ctx, "set", err)
	}
	return f.fallback.Set(ctx, key, value, ttl)
}

func (f *Failover) Del(ctx context.Context, keys ...string) error {
	if f.primary != nil {
		err := f.primary.Del(ctx, keys...)
		if err == nil {
			f.markOK()
			// Mirror the delete so the fallback can't serve stale state
			// if the primary drops right after.
			_ = f.fallback.Del(ctx, keys...)
			return nil
		}
		f.markFailed(ctx, "del", err)
	}
	return f.fallback.Del(ctx, keys...)
}

func (f *Failover) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if f.primary != nil {
		fields, err := f.primary.HGetAll(ctx, key)
		if err == nil {
			f.markOK()
			return fields, nil
		}
		f.markFailed(ctx, "hgetall", err)
	}
	return f.fallback.HGetAll(ctx, key)
}

func (f *Failover) HSet(ctx context.Context, key string, fields map[string]string) error {
	if f.primary != nil {
		err := f.primary.HSet(ctx, key, fields)
		if err == nil {
			f.markOK()
			return nil
		}
		f.markFailed(ctx, "hset", err)
	}
	return f.fallback.HSet(ctx, key, fields)
}

func (f *Failover) HIncrBy(ctx context.Context, key, field string, incr int64) (int64, error) {
	if f.primary != nil {
		n, err := f.primary.HIncrBy(ctx, key, field, incr)
		if err == nil {
			f.markOK()
			return n, nil
		}
		f.markFailed(ctx, "hincrby", err)
	}
	return f.fallback.HIncrBy(ctx, key, field, incr)
}

func (f *Failover) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if f.primary != nil {
		err := f.primary.Expire(ctx, key, ttl)
		if err == nil {
			f.markOK()
			return nil
		}
		f.markFailed(ctx, "expire", err)
	}
	return f.fallback.Expire(ctx, key, ttl)
}
