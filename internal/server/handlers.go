package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/helvia-io/maestro/internal/apperr"
	"github.com/helvia-io/maestro/internal/planner"
	"github.com/helvia-io/maestro/internal/ratelimit"
	"github.com/helvia-io/maestro/internal/requestctx"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	}
	if r.URL.Query().Get("detail") == "true" {
		storeMode := "single_node"
		if s.failover != nil {
			storeMode = "shared"
			if s.failover.Degraded() {
				storeMode = "degraded"
			}
		}
		components := map[string]any{"store": storeMode}
		if s.plans != nil {
			components["plans_pending"] = s.plans.Len()
		}
		resp["components"] = components
	}
	writeData(w, r, http.StatusOK, resp)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req planner.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAppErr(w, r, apperr.Validation("invalid JSON body", err.Error()))
		return
	}

	ctx := requestctx.SetUserID(r.Context(), req.UserID)

	resp, err := s.orch.HandleTurn(ctx, req)
	if err != nil {
		ae := apperr.FromErr(err)
		if ae.Status >= http.StatusInternalServerError {
			log.Error().Err(err).
				Str("user_id", requestctx.UserID(ctx)).
				Str("idempotency_key", requestctx.IdempotencyKey(ctx)).
				Msg("chat turn failed")
		}
		writeAppErr(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, resp)
}

func knownBucket(w http.ResponseWriter, r *http.Request) (bucket, subject string, ok bool) {
	bucket = chi.URLParam(r, "bucket")
	if _, exists := ratelimit.Policies[bucket]; !exists {
		writeAppErr(w, r, apperr.Validation(
			"unknown rate limit bucket: "+bucket,
			"valid buckets: chat, tool, auth"))
		return "", "", false
	}
	subject = r.URL.Query().Get("subject")
	if subject == "" {
		subject = clientSubject(r)
	}
	return bucket, subject, true
}

func (s *Server) handleRateLimitStatus(w http.ResponseWriter, r *http.Request) {
	bucket, subject, ok := knownBucket(w, r)
	if !ok {
		return
	}
	status, err := s.limiter.Status(r.Context(), subject, bucket)
	if err != nil {
		writeAppErr(w, r, apperr.StoreUnavailable(err))
		return
	}
	writeData(w, r, http.StatusOK, map[string]any{
		"bucket":  bucket,
		"subject": subject,
		"status":  status,
	})
}

func (s *Server) handleRateLimitReset(w http.ResponseWriter, r *http.Request) {
	bucket, subject, ok := knownBucket(w, r)
	if !ok {
		return
	}
	if err := s.limiter.Reset(r.Context(), subject, bucket); err != nil {
		writeAppErr(w, r, apperr.StoreUnavailable(err))
		return
	}
	log.Info().Str("bucket", bucket).Str("subject", subject).Msg("rate limit reset")
	writeData(w, r, http.StatusOK, map[string]any{
		"bucket":  bucket,
		"subject": subject,
		"reset":   true,
	})
}
