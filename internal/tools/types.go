// Package tools provides the schema-validated tool registry: a closed set of
// named actions, each bound to exactly one validation schema and one
// provider. Dispatch failures are reported data, not control flow — the
// orchestrator keeps summarizing partial results.
package tools

import "context"

// UserContext is the enriched per-request context handed to providers.
type UserContext struct {
	UserID      string         `json:"userId"`
	Preferences map[string]any `json:"preferences,omitempty"`
	RecentItems []any          `json:"recentItems,omitempty"`
	Timezone    string         `json:"timezone"`
	Language    string         `json:"language"`
}

// Result is the outcome of one step execution. Produced once, never mutated.
type Result struct {
	Success               bool   `json:"success"`
	Message               string `json:"message"`
	Data                  any    `json:"data,omitempty"`
	ClarificationNeeded   bool   `json:"clarificationNeeded"`
	ClarificationQuestion string `json:"clarificationQuestion,omitempty"`
	ElapsedMS             int64  `json:"elapsedMs,omitempty"`
}

// Provider executes one action with already-validated, typed input.
// Providers for external services (Gmail, Calendar) are registered by the
// host; local notebook providers live in internal/notebook.
type Provider interface {
	Execute(ctx context.Context, input Input, uctx UserContext) (*Result, error)
}

// Input is the closed tagged union of validated tool inputs. Each variant
// reports the action it belongs to; providers type-switch on the concrete
// struct.
type Input interface {
	Action() Action
}
