// Package ratelimit enforces per-subject request quotas over the shared
// store. Time is partitioned into fixed windows aligned to the epoch; the
// window start is encoded into the store key, so stale windows are implicitly
// reset, never merged. Admission is a single atomic increment-and-compare per
// counter — no read-then-write across two round trips, so concurrent callers
// for the same subject never double-count.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	maestrotel "github.com/helvia-io/maestro/internal/otel"
	"github.com/helvia-io/maestro/internal/store"
)

var tracer = maestrotel.Tracer("github.com/helvia-io/maestro/internal/ratelimit")

// Bucket names the built-in rate-limit policy domains.
const (
	BucketChat = "chat"
	BucketTool = "tool"
	BucketAuth = "auth"
)

// burstWindow is the sub-window for burst control. Burst and main-window
// checks are independent; either can reject.
const burstWindow = time.Minute

// Policy is a per-bucket default (requests, window, burst). Callers may
// override requests/window per call; burst is fixed per bucket.
type Policy struct {
	Requests int
	Window   time.Duration
	Burst    int
}

// Policies are the built-in bucket defaults.
var Policies = map[string]Policy{
	BucketChat: {Requests: 30, Window: 10 * time.Minute, Burst: 5},
	BucketTool: {Requests: 60, Window: 10 * time.Minute, Burst: 10},
	BucketAuth: {Requests: 10, Window: 5 * time.Minute, Burst: 3},
}

// Result is the outcome of an admission check.
type Result struct {
	Allowed    bool     `json:"allowed"`
	Limit      int      `json:"limit"`
	Remaining  int      `json:"remaining"`
	ResetTime  int64    `json:"resetTime"`            // unix seconds when the window resets
	RetryAfter int      `json:"retryAfter,omitempty"` // seconds; set when not allowed
	Backoff    *Backoff `json:"backoffSuggestion,omitempty"`
}

// Status is a read-only view of a subject's current window.
type Status struct {
	Requests  int   `json:"requests"`
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetTime int64 `json:"resetTime"`
	WindowSec int   `json:"windowSec"`
}

// Option overrides a bucket default for a single Allow call.
type Option func(*Policy)

// WithLimit overrides the request limit.
func WithLimit(n int) Option {
	return func(p *Policy) { p.Requests = n }
}

// WithWindow overrides the window width.
func WithWindow(d time.Duration) Option {
	return func(p *Policy) { p.Window = d }
}

// Limiter decides admit/reject per (subject, bucket) against a Store.
// Point it at a store.Failover to get shared-store semantics with in-process
// degradation; the limiter itself is stateless.
type Limiter struct {
	store store.Store
	now   func() time.Time
}

// New creates a limiter over the given store.
func New(s store.Store) *Limiter {
	return &Limiter{store: s, now: time.Now}
}

// Allow runs the admission check for one request. The main-window counter and
// the burst counter live in one hash per (bucket, subject, window); both are
// advanced with HIncrBy so concurrent callers observe a strict sequence.
func (l *Limiter) Allow(ctx context.Context, subject, bucket string, opts ...Option) (*Result, error) {
	ctx, span := tracer.Start(ctx, "ratelimit.allow",
		trace.WithAttributes(
			attribute.String("ratelimit.bucket", bucket),
		))
	defer span.End()

	pol, ok := Policies[bucket]
	if !ok {
		return nil, fmt.Errorf("unknown rate limit bucket: %q", bucket)
	}
	for _, opt := range opts {
		opt(&pol)
	}

	now := l.now()
	nowMS := now.UnixMilli()
	windowMS := pol.Window.Milliseconds()
	windowStart := nowMS / windowMS * windowMS
	resetTime := (windowStart + windowMS) / 1000
	key := windowKey(bucket, subject, windowStart)

	// Burst check first so burst rejections don't consume main quota.
	burstMS := burstWindow.Milliseconds()
	burstStart := nowMS / burstMS * burstMS
	burstCount, err := l.store.HIncrBy(ctx, key, burstField(burstStart), 1)
	if err != nil {
		return nil, fmt.Errorf("incrementing burst counter: %w", err)
	}
	if burstCount > int64(pol.Burst) {
		retryAfter := int(math.Ceil(float64(burstStart+burstMS-nowMS) / 1000))
		span.SetAttributes(attribute.String("ratelimit.outcome", "burst_rejected"))
		return &Result{
			Allowed:    false,
			Limit:      pol.Requests,
			Remaining:  0,
			ResetTime:  resetTime,
			RetryAfter: retryAfter,
			Backoff:    suggestBackoff(int(burstCount), pol.Burst),
		}, nil
	}

	count, err := l.store.HIncrBy(ctx, key, "count", 1)
	if err != nil {
		return nil, fmt.Errorf("incrementing window counter: %w", err)
	}
	if count == 1 {
		// First admission in this window owns the TTL. Slightly longer
		// than the window so Status can still read a just-closed window.
		_ = l.store.Expire(ctx, key, pol.Window+time.Minute)
	}
	if count > int64(pol.Requests) {
		retryAfter := int(math.Ceil(float64(windowStart+windowMS-nowMS) / 1000))
		span.SetAttributes(attribute.String("ratelimit.outcome", "rejected"))
		return &Result{
			Allowed:    false,
			Limit:      pol.Requests,
			Remaining:  0,
			ResetTime:  resetTime,
			RetryAfter: retryAfter,
			Backoff:    suggestBackoff(int(count), pol.Requests),
		}, nil
	}

	span.SetAttributes(attribute.String("ratelimit.outcome", "allowed"))
	return &Result{
		Allowed:   true,
		Limit:     pol.Requests,
		Remaining: pol.Requests - int(count),
		ResetTime: resetTime,
	}, nil
}

// Status returns the subject's current window counters without consuming quota.
func (l *Limiter) Status(ctx context.Context, subject, bucket string) (*Status, error) {
	pol, ok := Policies[bucket]
	if !ok {
		return nil, fmt.Errorf("unknown rate limit bucket: %q", bucket)
	}

	nowMS := l.now().UnixMilli()
	windowMS := pol.Window.Milliseconds()
	windowStart := nowMS / windowMS * windowMS

	fields, err := l.store.HGetAll(ctx, windowKey(bucket, subject, windowStart))
	if err != nil {
		return nil, fmt.Errorf("reading window counters: %w", err)
	}
	count := parseCount(fields["count"])
	remaining := pol.Requests - count
	if remaining < 0 {
		remaining = 0
	}
	return &Status{
		Requests:  count,
		Limit:     pol.Requests,
		Remaining: remaining,
		ResetTime: (windowStart + windowMS) / 1000,
		WindowSec: int(pol.Window.Seconds()),
	}, nil
}

// Reset clears a subject's counters for the current window. Administrative
// operation, not on the hot path.
func (l *Limiter) Reset(ctx context.Context, subject, bucket string) error {
	pol, ok := Policies[bucket]
	if !ok {
		return fmt.Errorf("unknown rate limit bucket: %q", bucket)
	}
	nowMS := l.now().UnixMilli()
	windowMS := pol.Window.Milliseconds()
	windowStart := nowMS / windowMS * windowMS
	return l.store.Del(ctx, windowKey(bucket, subject, windowStart))
}

func windowKey(bucket, subject string, windowStart int64) string {
	return fmt.Sprintf("ratelimit:%s:%s:%d", bucket, subject, windowStart)
}

func burstField(burstStart int64) string {
	return fmt.Sprintf("burst:%d", burstStart)
}

func parseCount(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
