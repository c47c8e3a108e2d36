// Package idempotency guarantees exactly-once side effects under
// at-least-once delivery. A caller-supplied key is reserved with a single
// atomic set-if-absent; the reservation and the cached result are separate
// store entries with independent TTLs, so a holder that crashes before
// storing its result leaves the key claimed-but-empty until expiry.
package idempotency

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/helvia-io/maestro/internal/apperr"
	maestrotel "github.com/helvia-io/maestro/internal/otel"
	"github.com/helvia-io/maestro/internal/store"
)

var tracer = maestrotel.Tracer("github.com/helvia-io/maestro/internal/idempotency")

// keyPattern validates keys before any store access: at least 10 characters
// of [A-Za-z0-9_-]. Invalid keys are a hard input error.
var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{10,}$`)

// DefaultTTL is the reservation and result lifetime when the caller does not
// override it.
const DefaultTTL = 24 * time.Hour

// Check is the tri-state outcome of an idempotency lookup:
// first holder / duplicate still pending / duplicate with a cached result.
type Check struct {
	First  bool            `json:"isFirst"`
	Result json.RawMessage `json:"storedResult,omitempty"`
}

// Pending reports whether a duplicate arrived before the first holder
// finished. Callers must treat this as transient, not as an error.
func (c Check) Pending() bool {
	return !c.First && c.Result == nil
}

// Coordinator deduplicates retried requests against a Store.
type Coordinator struct {
	store store.Store
	ttl   time.Duration
}

// New creates a coordinator. ttl <= 0 uses DefaultTTL.
func New(s store.Store, ttl time.Duration) *Coordinator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Coordinator{store: s, ttl: ttl}
}

// ValidateKey checks the key format without touching the store.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return apperr.IdempotencyKeyInvalid(key)
	}
	return nil
}

// CheckAndReserve atomically claims the key. Returns true for the first
// holder. Two concurrent callers with the same key can never both see true:
// the claim is a single set-if-absent-with-expiry against the store.
func (c *Coordinator) CheckAndReserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ctx, span := tracer.Start(ctx, "idempotency.check_and_reserve")
	defer span.End()

	if err := ValidateKey(key); err != nil {
		return false, err
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	first, err := c.store.SetNX(ctx, reservationKey(key), "1", ttl)
	if err != nil {
		return false, fmt.Errorf("reserving idempotency key: %w", err)
	}
	span.SetAttributes(attribute.Bool("idempotency.first", first))
	return first, nil
}

// StoreResult caches the result payload for duplicate callers.
func (c *Coordinator) StoreResult(ctx context.Context, key string, result any, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling idempotent result: %w", err)
	}
	if err := c.store.Set(ctx, resultKey(key), string(payload), ttl); err != nil {
		return fmt.Errorf("storing idempotent result: %w", err)
	}
	return nil
}

// StoredResult returns the cached result, or nil when none is stored yet.
func (c *Coordinator) StoredResult(ctx context.Context, key string) (json.RawMessage, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	val, err := c.store.Get(ctx, resultKey(key))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading idempotent result: %w", err)
	}
	return json.RawMessage(val), nil
}

// Delete removes both the reservation and any cached result.
func (c *Coordinator) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	return c.store.Del(ctx, reservationKey(key), resultKey(key))
}

// CheckIdempotency is the create-endpoint entry: reserve, and when not the
// first holder, look up whatever the first holder already stored.
func (c *Coordinator) CheckIdempotency(ctx context.Context, key string) (Check, error) {
	first, err := c.CheckAndReserve(ctx, key, c.ttl)
	if err != nil {
		return Check{}, err
	}
	if first {
		return Check{First: true}, nil
	}
	result, err := c.StoredResult(ctx, key)
	if err != nil {
		return Check{}, err
	}
	return Check{First: false, Result: result}, nil
}

// Complete stores the result after the side effect finished. The reservation
// stays in place so retries within the TTL replay the cached result.
func (c *Coordinator) Complete(ctx context.Context, key string, result any) error {
	return c.StoreResult(ctx, key, result, c.ttl)
}

// GenerateKey builds a key from the subject, the operation, and a digest of
// its parameters. Useful for callers that don't supply their own.
func GenerateKey(userID, operation string, params any) string {
	raw, _ := json.Marshal(params)
	digest := base64.RawURLEncoding.EncodeToString(raw)
	if len(digest) > 16 {
		digest = digest[:16]
	}
	return fmt.Sprintf("%s_%s_%d_%s", userID, operation, time.Now().UnixMilli(), digest)
}

func reservationKey(key string) string { return "idempotency:" + key }
func resultKey(key string) string      { return "idempotency_result:" + key }
