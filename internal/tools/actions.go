package tools

import (
	"encoding/json"
	"fmt"
)

// Action identifies a registrable tool operation. The set is closed: the
// synthetic "clarify" step is handled by the orchestrator and is never a
// registry action.
type Action string

const (
	ActionGmailSend           Action = "gmail_send"
	ActionGmailSearch         Action = "gmail_search"
	ActionGmailSummary        Action = "gmail_summary"
	ActionCalendarCreateEvent Action = "calendar_create_event"
	ActionCalendarListEvents  Action = "calendar_list_events"
	ActionTaskCreate          Action = "task_create"
	ActionTaskList            Action = "task_list"
	ActionNoteCreate          Action = "note_create"
	ActionNoteSearch          Action = "note_search"
)

// Actions lists every known action in registration order.
func Actions() []Action {
	return []Action{
		ActionGmailSend,
		ActionGmailSearch,
		ActionGmailSummary,
		ActionCalendarCreateEvent,
		ActionCalendarListEvents,
		ActionTaskCreate,
		ActionTaskList,
		ActionNoteCreate,
		ActionNoteSearch,
	}
}

// GmailSendInput sends an email.
type GmailSendInput struct {
	UserID  string   `json:"userId"`
	To      string   `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	CC      []string `json:"cc,omitempty"`
	BCC     []string `json:"bcc,omitempty"`
}

func (GmailSendInput) Action() Action { return ActionGmailSend }

// GmailSearchInput searches the mailbox.
type GmailSearchInput struct {
	UserID     string `json:"userId"`
	Query      string `json:"query"`
	MaxResults int    `json:"maxResults,omitempty"`
}

func (GmailSearchInput) Action() Action { return ActionGmailSearch }

// GmailSummaryInput summarizes recent mail for a timeframe.
type GmailSummaryInput struct {
	UserID    string `json:"userId"`
	Query     string `json:"query,omitempty"`
	Timeframe string `json:"timeframe,omitempty"` // today | week | month
	MaxEmails int    `json:"maxEmails,omitempty"`
}

func (GmailSummaryInput) Action() Action { return ActionGmailSummary }

// CalendarCreateEventInput creates a calendar event.
type CalendarCreateEventInput struct {
	UserID      string   `json:"userId"`
	Title       string   `json:"title"`
	Start       string   `json:"start"` // RFC 3339
	End         string   `json:"end"`   // RFC 3339
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	Attendees   []string `json:"attendees,omitempty"`
}

func (CalendarCreateEventInput) Action() Action { return ActionCalendarCreateEvent }

// CalendarListEventsInput lists calendar events in a range.
type CalendarListEventsInput struct {
	UserID     string `json:"userId"`
	TimeMin    string `json:"timeMin,omitempty"`
	TimeMax    string `json:"timeMax,omitempty"`
	MaxResults int    `json:"maxResults,omitempty"`
}

func (CalendarListEventsInput) Action() Action { return ActionCalendarListEvents }

// TaskCreateInput creates a task.
type TaskCreateInput struct {
	UserID      string   `json:"userId"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	DueDate     string   `json:"dueDate,omitempty"`
	Priority    string   `json:"priority,omitempty"` // low | medium | high
	Tags        []string `json:"tags,omitempty"`
}

func (TaskCreateInput) Action() Action { return ActionTaskCreate }

// TaskListInput lists tasks filtered by status/priority.
type TaskListInput struct {
	UserID     string `json:"userId"`
	Status     string `json:"status,omitempty"` // pending | completed | all
	Priority   string `json:"priority,omitempty"`
	MaxResults int    `json:"maxResults,omitempty"`
}

func (TaskListInput) Action() Action { return ActionTaskList }

// NoteCreateInput creates a note.
type NoteCreateInput struct {
	UserID   string   `json:"userId"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags,omitempty"`
	Category string   `json:"category,omitempty"`
}

func (NoteCreateInput) Action() Action { return ActionNoteCreate }

// NoteSearchInput searches notes.
type NoteSearchInput struct {
	UserID     string   `json:"userId"`
	Query      string   `json:"query"`
	Tags       []string `json:"tags,omitempty"`
	Category   string   `json:"category,omitempty"`
	MaxResults int      `json:"maxResults,omitempty"`
}

func (NoteSearchInput) Action() Action { return ActionNoteSearch }

// decodeInput unmarshals raw parameters into the typed variant for action.
// Called only after schema validation has passed.
func decodeInput(action Action, raw json.RawMessage) (Input, error) {
	var target Input
	switch action {
	case ActionGmailSend:
		target = &GmailSendInput{}
	case ActionGmailSearch:
		target = &GmailSearchInput{}
	case ActionGmailSummary:
		target = &GmailSummaryInput{}
	case ActionCalendarCreateEvent:
		target = &CalendarCreateEventInput{}
	case ActionCalendarListEvents:
		target = &CalendarListEventsInput{}
	case ActionTaskCreate:
		target = &TaskCreateInput{}
	case ActionTaskList:
		target = &TaskListInput{}
	case ActionNoteCreate:
		target = &NoteCreateInput{}
	case ActionNoteSearch:
		target = &NoteSearchInput{}
	default:
		return nil, fmt.Errorf("unknown action: %q", action)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("decoding %s input: %w", action, err)
	}
	return target, nil
}
