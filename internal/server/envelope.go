package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/helvia-io/maestro/internal/apperr"
	"github.com/helvia-io/maestro/internal/requestctx"
)

// Meta accompanies every envelope.
type Meta struct {
	RequestID string `json:"requestId"`
	ElapsedMS int64  `json:"elapsedMs"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// envelope is the uniform response shape: ok/meta always, then exactly one
// of data or error.
type envelope struct {
	OK    bool       `json:"ok"`
	Meta  Meta       `json:"meta"`
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

type startKeyType struct{}

var startKey startKeyType

func metaFor(r *http.Request) Meta {
	m := Meta{RequestID: requestctx.RequestID(r.Context())}
	if start, ok := r.Context().Value(startKey).(time.Time); ok {
		m.ElapsedMS = time.Since(start).Milliseconds()
	}
	return m
}

func writeData(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{OK: true, Meta: metaFor(r), Data: data})
}

// writeAppErr maps any error onto the error envelope. Internal failures are
// reported with a generic message so internals don't leak to clients.
func writeAppErr(w http.ResponseWriter, r *http.Request, err error) {
	ae := apperr.FromErr(err)

	body := &errorBody{Code: ae.Code, Message: ae.Message, Hint: ae.Hint}
	if ae.Status >= http.StatusInternalServerError {
		body.Message = "Internal server error"
		body.Hint = ""
	}

	w.Header().Set("Content-Type", "application/json")
	if ae.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(ae.RetryAfter))
	}
	w.WriteHeader(ae.Status)
	_ = json.NewEncoder(w).Encode(envelope{OK: false, Meta: metaFor(r), Error: body})
}
