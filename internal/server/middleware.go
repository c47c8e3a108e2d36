package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/helvia-io/maestro/internal/apperr"
	"github.com/helvia-io/maestro/internal/idempotency"
	maestrotel "github.com/helvia-io/maestro/internal/otel"
	"github.com/helvia-io/maestro/internal/ratelimit"
	"github.com/helvia-io/maestro/internal/requestctx"
)

// telemetry records the request start time for envelope meta and logs one
// line per request with status and elapsed time.
func telemetry(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := context.WithValue(r.Context(), startKey, start)
		ctx = requestctx.SetRequestID(ctx, middleware.GetReqID(ctx))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		log.Info().
			Str("request_id", requestctx.RequestID(ctx)).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int64("elapsed_ms", time.Since(start).Milliseconds()).
			Func(maestrotel.LogTraceFields(ctx)).
			Msg("request")
	})
}

// globalGuard is the coarse whole-process throughput gate, checked before
// any per-subject accounting.
func globalGuard(l *rate.Limiter) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				writeAppErr(w, r, apperr.RateLimited("global", 1,
					"Lütfen bir süre bekleyip tekrar deneyin"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientSubject identifies the caller for per-subject rate limiting:
// X-Client-ID when present, the remote IP otherwise.
func clientSubject(r *http.Request) string {
	if id := r.Header.Get("X-Client-ID"); id != "" {
		return id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		return r.RemoteAddr
	}
	return host
}

// rateLimitMiddleware runs the per-subject admission check for one bucket
// and sets the X-RateLimit-* headers on every response. Limiter errors fail
// open: the failover store already absorbed a shared-store outage, so an
// error here means both layers are down and blocking traffic would only
// make the incident worse.
func rateLimitMiddleware(limiter *ratelimit.Limiter, bucket string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := clientSubject(r)
			res, err := limiter.Allow(r.Context(), subject, bucket)
			if err != nil {
				log.Warn().Err(err).Str("bucket", bucket).Msg("rate limit check failed, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetTime, 10))

			if !res.Allowed {
				writeAppErr(w, r, apperr.RateLimited(bucket, res.RetryAfter,
					"Lütfen bir süre bekleyip tekrar deneyin"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// storedResponse is the cached reply for an idempotent request.
type storedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// bufferingWriter captures the response so it can be cached before being
// sent to the client.
type bufferingWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newBufferingWriter() *bufferingWriter {
	return &bufferingWriter{header: make(http.Header), status: http.StatusOK}
}

func (b *bufferingWriter) Header() http.Header { return b.header }

func (b *bufferingWriter) WriteHeader(status int) { b.status = status }

func (b *bufferingWriter) Write(p []byte) (int, error) { return b.body.Write(p) }

func (b *bufferingWriter) flushTo(w http.ResponseWriter) {
	for k, vs := range b.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(b.status)
	_, _ = w.Write(b.body.Bytes())
}

// idempotencyMiddleware replays the cached response for a repeated
// Idempotency-Key and caches successful responses for future retries.
// A duplicate that arrives while the first attempt is still in flight runs
// normally; the handlers behind this middleware are safe to re-run.
func idempotencyMiddleware(coord *idempotency.Coordinator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if err := idempotency.ValidateKey(key); err != nil {
				writeAppErr(w, r, err)
				return
			}

			check, err := coord.CheckIdempotency(r.Context(), key)
			if err != nil {
				log.Warn().Err(err).Msg("idempotency check failed, running request")
				next.ServeHTTP(w, r)
				return
			}

			if check.Result != nil {
				var stored storedResponse
				if uerr := json.Unmarshal(check.Result, &stored); uerr != nil {
					log.Warn().Err(uerr).Str("idempotency_key", key).Msg("discarding unreadable cached response")
				} else {
					w.Header().Set("Content-Type", "application/json")
					w.Header().Set("Idempotency-Replay", "true")
					w.WriteHeader(stored.Status)
					_, _ = w.Write(stored.Body)
					return
				}
			}

			r = r.WithContext(requestctx.SetIdempotencyKey(r.Context(), key))
			buf := newBufferingWriter()
			next.ServeHTTP(buf, r)

			if buf.status < http.StatusInternalServerError {
				err := coord.Complete(r.Context(), key, storedResponse{
					Status: buf.status,
					Body:   json.RawMessage(buf.body.Bytes()),
				})
				if err != nil {
					log.Warn().Err(err).Str("idempotency_key", key).Msg("caching idempotent response failed")
				}
			}
			buf.flushTo(w)
		})
	}
}
