// Package server provides the HTTP boundary: the response envelope, the
// middleware chain (telemetry, global and per-subject rate limiting,
// idempotent replay), and the chat and admin routes.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/helvia-io/maestro/internal/idempotency"
	maestrotel "github.com/helvia-io/maestro/internal/otel"
	"github.com/helvia-io/maestro/internal/planner"
	"github.com/helvia-io/maestro/internal/ratelimit"
	"github.com/helvia-io/maestro/internal/store"
)

const defaultTimeout = 60 * time.Second

// Server holds the dependencies for the HTTP API.
type Server struct {
	router      *chi.Mux
	orch        *planner.Orchestrator
	limiter     *ratelimit.Limiter
	idem        *idempotency.Coordinator
	global      *rate.Limiter
	failover    *store.Failover
	plans       *planner.PlanStore
	corsOrigins []string
	startTime   time.Time
}

// Option configures the Server.
type Option func(*Server)

// WithGlobalRPM enables the coarse whole-process requests-per-minute guard.
func WithGlobalRPM(rpm int) Option {
	return func(s *Server) {
		if rpm > 0 {
			s.global = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm)
		}
	}
}

// WithFailover exposes the shared-store failover state on the health route.
func WithFailover(f *store.Failover) Option {
	return func(s *Server) { s.failover = f }
}

// WithPlanStore exposes pending-plan counts on the health route.
func WithPlanStore(p *planner.PlanStore) Option {
	return func(s *Server) { s.plans = p }
}

// WithCORSOrigins sets allowed CORS origins (e.g. ["*"] for any).
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// NewServer builds a Server with the required dependencies and options.
func NewServer(orch *planner.Orchestrator, limiter *ratelimit.Limiter, idem *idempotency.Coordinator, opts ...Option) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		orch:        orch,
		limiter:     limiter,
		idem:        idem,
		corsOrigins: []string{"*"},
		startTime:   time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the configured http.Handler.
func (s *Server) Routes() http.Handler {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(maestrotel.Middleware())
	r.Use(corsMiddleware(s.corsOrigins))
	r.Use(telemetry)

	// Unauthenticated health probes
	r.Get("/health", s.handleHealth)
	r.Get("/v1/chat/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(defaultTimeout))
		r.Use(globalGuard(s.global))

		r.Group(func(r chi.Router) {
			r.Use(rateLimitMiddleware(s.limiter, ratelimit.BucketChat))
			r.Use(idempotencyMiddleware(s.idem))
			r.Post("/v1/chat", s.handleChat)
		})

		r.Get("/v1/ratelimit/{bucket}", s.handleRateLimitStatus)
		r.Delete("/v1/ratelimit/{bucket}", s.handleRateLimitReset)
	})

	return r
}

// corsMiddleware sets CORS headers. allowedOrigins can be ["*"] for any.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAll := false
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
			break
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if allowAll {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else if origin != "" {
				for _, o := range allowedOrigins {
					if o == origin {
						w.Header().Set("Access-Control-Allow-Origin", origin)
						break
					}
				}
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Idempotency-Key, X-Client-ID")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
