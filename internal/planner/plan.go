package planner

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/helvia-io/maestro/internal/tools"
)

// Step is one tool invocation inside a plan. Parameters are the already
// marshaled input for the step's action.
type Step struct {
	ID          string          `json:"stepId"`
	Tool        string          `json:"tool"`
	Action      tools.Action    `json:"action"`
	Parameters  json.RawMessage `json:"parameters"`
	Description string          `json:"description"`
}

// Plan is what the orchestrator builds from one message. A plan either
// carries steps to run, or a clarification question when a required slot
// could not be extracted — never both.
type Plan struct {
	ID                  string    `json:"planId"`
	Intent              Intent    `json:"intent"`
	UserID              string    `json:"userId"`
	Steps               []Step    `json:"steps"`
	RequiresApproval    bool      `json:"requiresApproval"`
	EstimatedDurationMS int64     `json:"estimatedDurationMs"`
	Clarification       string    `json:"clarification,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
}

// Clarification questions, one per missing slot.
const (
	askEventTitle  = "Etkinlik başlığı nedir?"
	askEventTime   = "Hangi tarih ve saatte?"
	askTaskTitle   = "Görev başlığı nedir?"
	askNoteTitle   = "Not başlığı nedir?"
	askNoteContent = "Not içeriği nedir?"
)

// stepDurationEstimate is the rough per-step execution estimate reported to
// clients alongside a confirmation prompt.
const stepDurationEstimate = 2 * time.Second

// buildPlan turns a classified message into an executable plan. Mutating
// intents (event and task creation) require user approval before execution;
// read-only and note plans run immediately.
func buildPlan(intent Intent, uctx tools.UserContext, message string, now time.Time) *Plan {
	plan := &Plan{
		ID:        "plan_" + uuid.NewString(),
		Intent:    intent,
		UserID:    uctx.UserID,
		CreatedAt: now,
	}

	switch intent {
	case IntentEmailSummary:
		timeframe := extractTimeframe(message)
		if timeframe == "" {
			timeframe = "today"
		}
		plan.addStep("gmail", tools.GmailSummaryInput{
			UserID:    uctx.UserID,
			Timeframe: timeframe,
			MaxEmails: 20,
		}, "Son e-postalarınızın özetini çıkaracağım")

	case IntentCreateEvent:
		slots := extractEventSlots(message, now)
		switch {
		case slots.Title == "":
			plan.Clarification = askEventTitle
		case slots.Start.IsZero():
			plan.Clarification = askEventTime
		default:
			plan.addStep("calendar", tools.CalendarCreateEventInput{
				UserID: uctx.UserID,
				Title:  slots.Title,
				Start:  slots.Start.Format(time.RFC3339),
				End:    slots.End.Format(time.RFC3339),
			}, fmt.Sprintf("%q etkinliğini takvime ekleyeceğim", slots.Title))
			plan.RequiresApproval = true
		}

	case IntentCreateTask:
		slots := extractTaskSlots(message)
		if slots.Title == "" {
			plan.Clarification = askTaskTitle
		} else {
			plan.addStep("tasks", tools.TaskCreateInput{
				UserID:   uctx.UserID,
				Title:    slots.Title,
				Priority: slots.Priority,
			}, fmt.Sprintf("%q görevini oluşturacağım", slots.Title))
			plan.RequiresApproval = true
		}

	case IntentCreateNote:
		slots := extractNoteSlots(message)
		switch {
		case slots.Title == "":
			plan.Clarification = askNoteTitle
		case slots.Content == "":
			plan.Clarification = askNoteContent
		default:
			plan.addStep("notes", tools.NoteCreateInput{
				UserID:  uctx.UserID,
				Title:   slots.Title,
				Content: slots.Content,
			}, fmt.Sprintf("%q notunu oluşturacağım", slots.Title))
		}

	default:
		// general_qa carries no tool steps
	}

	plan.EstimatedDurationMS = int64(len(plan.Steps)) * stepDurationEstimate.Milliseconds()
	return plan
}

// addStep appends a step for input's action. The input structs marshal
// cleanly, so the error branch is unreachable in practice.
func (p *Plan) addStep(tool string, input tools.Input, description string) {
	params, err := json.Marshal(input)
	if err != nil {
		params = json.RawMessage(`{}`)
	}
	p.Steps = append(p.Steps, Step{
		ID:          "step_" + uuid.NewString(),
		Tool:        tool,
		Action:      input.Action(),
		Parameters:  params,
		Description: description,
	})
}
