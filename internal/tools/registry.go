package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/helvia-io/maestro/internal/apperr"
	maestrotel "github.com/helvia-io/maestro/internal/otel"
)

// Registry validates tool inputs against their schemas and dispatches them
// to registered providers. Schemas are compiled once at construction;
// providers are registered at wiring time, at most one per action.
type Registry struct {
	schemas map[Action]*gojsonschema.Schema
	tracer  trace.Tracer

	mu        sync.RWMutex
	providers map[Action]Provider
}

// MustNewRegistry compiles the input schema for every action. The schemas
// are compile-time constants, so a failure here is a programming error and
// panics rather than returning.
func MustNewRegistry() *Registry {
	schemas := make(map[Action]*gojsonschema.Schema, len(inputSchemas))
	for action, doc := range inputSchemas {
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(doc))
		if err != nil {
			panic(fmt.Sprintf("tools: compiling schema for %s: %v", action, err))
		}
		schemas[action] = compiled
	}
	return &Registry{
		schemas:   schemas,
		tracer:    maestrotel.Tracer("internal/tools"),
		providers: make(map[Action]Provider),
	}
}

// Register binds a provider to an action. Registering an unknown action or
// registering the same action twice is an error.
func (r *Registry) Register(action Action, p Provider) error {
	if _, ok := r.schemas[action]; !ok {
		return fmt.Errorf("tools: unknown action %q", action)
	}
	if p == nil {
		return fmt.Errorf("tools: nil provider for %q", action)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[action]; exists {
		return fmt.Errorf("tools: provider already registered for %q", action)
	}
	r.providers[action] = p
	return nil
}

// Registered lists the actions that currently have a provider, sorted.
func (r *Registry) Registered() []Action {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Action, 0, len(r.providers))
	for action := range r.providers {
		out = append(out, action)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Validate checks raw parameters against the action's schema and returns the
// typed input on success. Schema violations come back as a validation error
// listing every failed constraint.
func (r *Registry) Validate(action Action, raw json.RawMessage) (Input, error) {
	schema, ok := r.schemas[action]
	if !ok {
		return nil, apperr.Validation(
			fmt.Sprintf("unknown action: %s", action),
			"see the action list for supported operations")
	}
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, apperr.Validation(
			fmt.Sprintf("parameters for %s are not valid JSON", action), "")
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, verr := range result.Errors() {
			details = append(details, verr.String())
		}
		return nil, apperr.Validation(
			fmt.Sprintf("invalid parameters for %s", action),
			strings.Join(details, "; "))
	}

	input, err := decodeInput(action, raw)
	if err != nil {
		return nil, apperr.Validation(
			fmt.Sprintf("invalid parameters for %s", action), err.Error())
	}
	return input, nil
}

// Execute validates and dispatches one action. It never returns an error:
// validation failures, missing providers, provider errors, and provider
// panics all come back as a failed Result so the caller can keep going and
// summarize partial outcomes. ElapsedMS is measured here, not by providers.
func (r *Registry) Execute(ctx context.Context, action Action, raw json.RawMessage, uctx UserContext) *Result {
	ctx, span := r.tracer.Start(ctx, "tools.execute",
		trace.WithAttributes(
			attribute.String("tool.action", string(action)),
			attribute.String("user.id", uctx.UserID),
		))
	defer span.End()

	start := time.Now()
	res := r.execute(ctx, action, raw, uctx)
	res.ElapsedMS = time.Since(start).Milliseconds()

	span.SetAttributes(attribute.Bool("tool.success", res.Success))
	if !res.Success {
		span.SetStatus(codes.Error, res.Message)
		log.Warn().
			Str("action", string(action)).
			Str("user_id", uctx.UserID).
			Int64("elapsed_ms", res.ElapsedMS).
			Func(maestrotel.LogTraceFields(ctx)).
			Msg(res.Message)
	} else {
		log.Debug().
			Str("action", string(action)).
			Int64("elapsed_ms", res.ElapsedMS).
			Func(maestrotel.LogTraceFields(ctx)).
			Msg("tool executed")
	}
	return res
}

func (r *Registry) execute(ctx context.Context, action Action, raw json.RawMessage, uctx UserContext) (res *Result) {
	defer func() {
		if rec := recover(); rec != nil {
			res = &Result{
				Success: false,
				Message: fmt.Sprintf("%s provider panicked: %v", action, rec),
			}
		}
	}()

	input, err := r.Validate(action, raw)
	if err != nil {
		ae := apperr.FromErr(err)
		msg := ae.Message
		if ae.Hint != "" {
			msg += ": " + ae.Hint
		}
		return &Result{Success: false, Message: msg}
	}

	r.mu.RLock()
	provider, ok := r.providers[action]
	r.mu.RUnlock()
	if !ok {
		return &Result{
			Success: false,
			Message: fmt.Sprintf("no provider registered for %s", action),
		}
	}

	out, err := provider.Execute(ctx, input, uctx)
	if err != nil {
		return &Result{
			Success: false,
			Message: apperr.ToolExecutionFailed(string(action), err).Message,
		}
	}
	if out == nil {
		return &Result{
			Success: false,
			Message: fmt.Sprintf("%s returned no result", action),
		}
	}
	return out
}
