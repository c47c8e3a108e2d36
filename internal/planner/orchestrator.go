package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/helvia-io/maestro/internal/apperr"
	maestrotel "github.com/helvia-io/maestro/internal/otel"
	"github.com/helvia-io/maestro/internal/tools"
)

// TurnContext is the optional client-provided context for one turn.
type TurnContext struct {
	Preferences map[string]any `json:"preferences,omitempty"`
	RecentItems []any          `json:"recentItems,omitempty"`
}

// TurnRequest is one chat turn. PlanID plus ConfirmExecution resolves a
// previously proposed plan; otherwise Message starts a fresh turn.
type TurnRequest struct {
	Message          string       `json:"message"`
	UserID           string       `json:"userId"`
	Context          *TurnContext `json:"context,omitempty"`
	PlanID           string       `json:"planId,omitempty"`
	ConfirmExecution *bool        `json:"confirmExecution,omitempty"`
}

// StepView is the client-facing projection of a plan step.
type StepView struct {
	StepID      string `json:"stepId"`
	Tool        string `json:"tool"`
	Action      string `json:"action"`
	Description string `json:"description"`
}

// PlanView accompanies a confirmation prompt so the client can render the
// proposed steps.
type PlanView struct {
	Steps               []StepView `json:"steps"`
	EstimatedDurationMS int64      `json:"estimatedDuration"`
}

// TurnResponse is the orchestrator's answer to one turn.
type TurnResponse struct {
	Response              string    `json:"response"`
	Intent                Intent    `json:"intent"`
	PlanID                string    `json:"planId,omitempty"`
	RequiresConfirmation  bool      `json:"requiresConfirmation"`
	ExecutionPlan         *PlanView `json:"executionPlan,omitempty"`
	ClarificationNeeded   bool      `json:"clarificationNeeded"`
	ClarificationQuestion string    `json:"clarificationQuestion,omitempty"`
	Timestamp             time.Time `json:"timestamp"`
}

// Orchestrator drives the intent → plan → confirm → execute → summarize
// pipeline for chat turns.
type Orchestrator struct {
	classifier IntentClassifier
	registry   *tools.Registry
	plans      *PlanStore
	summarizer Summarizer
	tracer     trace.Tracer

	now func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSummarizer replaces the default heuristic summarizer.
func WithSummarizer(s Summarizer) Option {
	return func(o *Orchestrator) { o.summarizer = s }
}

// New creates an orchestrator over the given classifier, registry, and
// pending-plan store.
func New(classifier IntentClassifier, registry *tools.Registry, plans *PlanStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		classifier: classifier,
		registry:   registry,
		plans:      plans,
		summarizer: HeuristicSummarizer{},
		tracer:     maestrotel.Tracer("internal/planner"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// EnrichContext builds the per-request user context handed to providers.
func EnrichContext(userID string, tc *TurnContext) tools.UserContext {
	uctx := tools.UserContext{
		UserID:      userID,
		Preferences: map[string]any{},
		RecentItems: []any{},
		Timezone:    "Europe/Istanbul",
		Language:    "tr",
	}
	if tc != nil {
		if tc.Preferences != nil {
			uctx.Preferences = tc.Preferences
		}
		if tc.RecentItems != nil {
			uctx.RecentItems = tc.RecentItems
		}
	}
	return uctx
}

// HandleTurn processes one chat turn end to end.
func (o *Orchestrator) HandleTurn(ctx context.Context, req TurnRequest) (*TurnResponse, error) {
	if req.Message == "" {
		return nil, apperr.Validation("message is required", "")
	}
	if req.UserID == "" {
		return nil, apperr.Validation("userId is required", "")
	}

	ctx, span := o.tracer.Start(ctx, "planner.handle_turn",
		trace.WithAttributes(attribute.String("user.id", req.UserID)))
	defer span.End()

	uctx := EnrichContext(req.UserID, req.Context)

	if req.PlanID != "" && req.ConfirmExecution != nil {
		return o.resolvePlan(ctx, req, uctx)
	}

	intent := o.classifier.Detect(req.Message)
	span.SetAttributes(attribute.String("chat.intent", string(intent)))

	plan := buildPlan(intent, uctx, req.Message, o.now())

	if plan.Clarification != "" {
		return o.respond(intent, &TurnResponse{
			Response:              "İşleminizi tamamlamak için ek bilgiye ihtiyacım var:",
			ClarificationNeeded:   true,
			ClarificationQuestion: plan.Clarification,
		}), nil
	}

	if len(plan.Steps) == 0 {
		return o.respond(intent, &TurnResponse{
			Response: "Bu konuda size nasıl yardımcı olabilirim? Lütfen daha spesifik bir talep belirtin.",
		}), nil
	}

	if plan.RequiresApproval {
		o.plans.Put(plan)
		log.Debug().
			Str("plan_id", plan.ID).
			Str("intent", string(intent)).
			Int("steps", len(plan.Steps)).
			Func(maestrotel.LogTraceFields(ctx)).
			Msg("plan awaiting confirmation")
		return o.respond(intent, &TurnResponse{
			Response:             confirmationPrompt(plan),
			PlanID:               plan.ID,
			RequiresConfirmation: true,
			ExecutionPlan:        viewOf(plan),
		}), nil
	}

	return o.executeAndSummarize(ctx, plan, uctx, req.Message,
		"İşleminizi tamamlamak için ek bilgiye ihtiyacım var:")
}

// resolvePlan handles the confirmation turn for a stored plan.
func (o *Orchestrator) resolvePlan(ctx context.Context, req TurnRequest, uctx tools.UserContext) (*TurnResponse, error) {
	plan, ok := o.plans.Take(req.PlanID)
	if !ok {
		return nil, apperr.PlanNotFound(req.PlanID, "Please try your request again")
	}

	if !*req.ConfirmExecution {
		log.Debug().
			Str("plan_id", plan.ID).
			Func(maestrotel.LogTraceFields(ctx)).
			Msg("plan rejected by user")
		return o.respond(plan.Intent, &TurnResponse{
			Response: "Tamam, işlemi iptal ettim. Başka nasıl yardımcı olabilirim?",
		}), nil
	}

	return o.executeAndSummarize(ctx, plan, uctx, req.Message,
		"İşlem sırasında ek bilgiye ihtiyacım var:")
}

// executeAndSummarize runs the plan's steps in order. Execution stops at the
// first step asking for clarification; every other failure is carried into
// the summary instead of aborting the turn.
func (o *Orchestrator) executeAndSummarize(ctx context.Context, plan *Plan, uctx tools.UserContext, message, clarifyPreamble string) (*TurnResponse, error) {
	var results []*tools.Result
	for _, step := range plan.Steps {
		res := o.registry.Execute(ctx, step.Action, step.Parameters, uctx)
		results = append(results, res)
		if !res.Success && res.ClarificationNeeded && res.ClarificationQuestion != "" {
			return o.respond(plan.Intent, &TurnResponse{
				Response:              clarifyPreamble,
				ClarificationNeeded:   true,
				ClarificationQuestion: res.ClarificationQuestion,
			}), nil
		}
	}

	return o.respond(plan.Intent, &TurnResponse{
		Response: o.summarizer.Summarize(ctx, plan.Intent, results, message),
	}), nil
}

func (o *Orchestrator) respond(intent Intent, resp *TurnResponse) *TurnResponse {
	resp.Intent = intent
	resp.Timestamp = o.now().UTC()
	return resp
}

func confirmationPrompt(plan *Plan) string {
	var b strings.Builder
	b.WriteString("Aşağıdaki işlemleri yapmak istiyorum:\n\n")
	for _, step := range plan.Steps {
		fmt.Fprintf(&b, "• %s\n", step.Description)
	}
	b.WriteString("\nOnaylıyor musunuz? (Evet/Hayır)")
	return b.String()
}

func viewOf(plan *Plan) *PlanView {
	view := &PlanView{EstimatedDurationMS: plan.EstimatedDurationMS}
	for _, step := range plan.Steps {
		view.Steps = append(view.Steps, StepView{
			StepID:      step.ID,
			Tool:        step.Tool,
			Action:      string(step.Action),
			Description: step.Description,
		})
	}
	return view
}
