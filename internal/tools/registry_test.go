package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type providerFunc func(ctx context.Context, input Input, uctx UserContext) (*Result, error)

func (f providerFunc) Execute(ctx context.Context, input Input, uctx UserContext) (*Result, error) {
	return f(ctx, input, uctx)
}

func okProvider(msg string) Provider {
	return providerFunc(func(context.Context, Input, UserContext) (*Result, error) {
		return &Result{Success: true, Message: msg}, nil
	})
}

func TestValidateAcceptsWellFormedInput(t *testing.T) {
	r := MustNewRegistry()

	input, err := r.Validate(ActionTaskCreate, json.RawMessage(
		`{"userId":"u1","title":"Buy milk","priority":"high"}`))
	require.NoError(t, err)

	task, ok := input.(*TaskCreateInput)
	require.True(t, ok)
	assert.Equal(t, "u1", task.UserID)
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, "high", task.Priority)
	assert.Equal(t, ActionTaskCreate, input.Action())
}

func TestValidateRejectsMissingRequiredField(t *testing.T) {
	r := MustNewRegistry()

	_, err := r.Validate(ActionTaskCreate, json.RawMessage(`{"userId":"u1"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title")
}

func TestValidateRejectsEnumViolation(t *testing.T) {
	r := MustNewRegistry()

	_, err := r.Validate(ActionTaskList, json.RawMessage(
		`{"userId":"u1","status":"archived"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status")
}

func TestValidateRejectsUnknownField(t *testing.T) {
	r := MustNewRegistry()

	_, err := r.Validate(ActionNoteCreate, json.RawMessage(
		`{"userId":"u1","title":"n","content":"c","color":"red"}`))
	require.Error(t, err)
}

func TestValidateUnknownAction(t *testing.T) {
	r := MustNewRegistry()

	_, err := r.Validate(Action("spreadsheet_create"), json.RawMessage(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action")
}

func TestValidateEmptyInputUsesEmptyObject(t *testing.T) {
	r := MustNewRegistry()

	// All actions require at least userId, so empty input must fail
	// cleanly rather than error out on malformed JSON.
	_, err := r.Validate(ActionGmailSummary, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "userId")
}

func TestRegisterDuplicateIsError(t *testing.T) {
	r := MustNewRegistry()

	require.NoError(t, r.Register(ActionNoteCreate, okProvider("ok")))
	err := r.Register(ActionNoteCreate, okProvider("again"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegisterUnknownActionIsError(t *testing.T) {
	r := MustNewRegistry()

	err := r.Register(Action("telegram_send"), okProvider("ok"))
	require.Error(t, err)
}

func TestRegisteredListsSorted(t *testing.T) {
	r := MustNewRegistry()
	require.NoError(t, r.Register(ActionTaskList, okProvider("ok")))
	require.NoError(t, r.Register(ActionGmailSend, okProvider("ok")))

	assert.Equal(t, []Action{ActionGmailSend, ActionTaskList}, r.Registered())
}

func TestExecuteDispatchesToProvider(t *testing.T) {
	r := MustNewRegistry()
	var gotTitle string
	require.NoError(t, r.Register(ActionTaskCreate, providerFunc(
		func(_ context.Context, input Input, uctx UserContext) (*Result, error) {
			gotTitle = input.(*TaskCreateInput).Title
			return &Result{Success: true, Message: "task created", Data: map[string]any{"id": "t1"}}, nil
		})))

	res := r.Execute(context.Background(), ActionTaskCreate,
		json.RawMessage(`{"userId":"u1","title":"Call dentist"}`), UserContext{UserID: "u1"})

	require.True(t, res.Success)
	assert.Equal(t, "task created", res.Message)
	assert.Equal(t, "Call dentist", gotTitle)
	assert.GreaterOrEqual(t, res.ElapsedMS, int64(0))
}

func TestExecuteValidationFailureIsSoft(t *testing.T) {
	r := MustNewRegistry()
	require.NoError(t, r.Register(ActionTaskCreate, okProvider("unreachable")))

	res := r.Execute(context.Background(), ActionTaskCreate,
		json.RawMessage(`{"title":"missing user"}`), UserContext{})

	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "invalid parameters")
}

func TestExecuteUnregisteredProviderIsSoft(t *testing.T) {
	r := MustNewRegistry()

	res := r.Execute(context.Background(), ActionGmailSend,
		json.RawMessage(`{"userId":"u1","to":"a@b.co","subject":"hi","body":"x"}`),
		UserContext{UserID: "u1"})

	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "no provider registered")
}

func TestExecuteProviderErrorIsSoft(t *testing.T) {
	r := MustNewRegistry()
	require.NoError(t, r.Register(ActionNoteSearch, providerFunc(
		func(context.Context, Input, UserContext) (*Result, error) {
			return nil, errors.New("index offline")
		})))

	res := r.Execute(context.Background(), ActionNoteSearch,
		json.RawMessage(`{"userId":"u1","query":"groceries"}`), UserContext{UserID: "u1"})

	assert.False(t, res.Success)
	assert.Equal(t, "note_search failed: index offline", res.Message)
}

func TestExecuteRecoversProviderPanic(t *testing.T) {
	r := MustNewRegistry()
	require.NoError(t, r.Register(ActionNoteCreate, providerFunc(
		func(context.Context, Input, UserContext) (*Result, error) {
			panic("nil map write")
		})))

	res := r.Execute(context.Background(), ActionNoteCreate,
		json.RawMessage(`{"userId":"u1","title":"n","content":"c"}`), UserContext{UserID: "u1"})

	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "panicked")
}
