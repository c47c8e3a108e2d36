package ratelimit

import (
	"math"
	"math/rand"
	"time"
)

const (
	maxBaseDelay   = 30 * time.Second
	maxRetryDelay  = time.Minute
	backoffRetries = 3
	jitterFraction = 0.1
)

// Backoff is the advisory retry hint attached to rejections. The limiter
// itself never retries.
type Backoff struct {
	BaseDelayMS int `json:"baseDelayMs"`
	JitterMS    int `json:"jitterMs"`
	MaxRetries  int `json:"maxRetries"`
}

// suggestBackoff derives a deterministic exponential hint from how far past
// the limit the caller is: base = min(1000 * 2^floor(count/limit), 30000) ms,
// jitter = 10% of base.
func suggestBackoff(count, limit int) *Backoff {
	overage := math.Floor(float64(count) / float64(limit))
	base := math.Min(1000*math.Pow(2, overage), float64(maxBaseDelay.Milliseconds()))
	return &Backoff{
		BaseDelayMS: int(base),
		JitterMS:    int(base * jitterFraction),
		MaxRetries:  backoffRetries,
	}
}

// ApplyBackoff computes the delay before the given retry attempt (0-based)
// from a hint. Returns shouldRetry=false once attempts are exhausted.
// Delay = base * 2^attempt + random jitter, capped at one minute.
func ApplyBackoff(attempt int, hint Backoff) (delay time.Duration, shouldRetry bool) {
	if attempt >= hint.MaxRetries {
		return 0, false
	}
	ms := float64(hint.BaseDelayMS)*math.Pow(2, float64(attempt)) + rand.Float64()*float64(hint.JitterMS)
	d := time.Duration(ms) * time.Millisecond
	if d > maxRetryDelay {
		d = maxRetryDelay
	}
	return d, true
}
