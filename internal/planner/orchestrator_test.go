package planner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helvia-io/maestro/internal/apperr"
	"github.com/helvia-io/maestro/internal/tools"
)

type stubProvider struct {
	result *tools.Result
	calls  int
	input  tools.Input
}

func (p *stubProvider) Execute(_ context.Context, input tools.Input, _ tools.UserContext) (*tools.Result, error) {
	p.calls++
	p.input = input
	return p.result, nil
}

func newTestOrchestrator(t *testing.T, providers map[tools.Action]*stubProvider) (*Orchestrator, *PlanStore) {
	t.Helper()
	registry := tools.MustNewRegistry()
	for action, p := range providers {
		require.NoError(t, registry.Register(action, p))
	}
	plans := NewPlanStore(10 * time.Minute)
	return New(newTestClassifier(t), registry, plans), plans
}

func boolPtr(b bool) *bool { return &b }

func TestHandleTurnValidatesRequest(t *testing.T) {
	o, _ := newTestOrchestrator(t, nil)

	_, err := o.HandleTurn(context.Background(), TurnRequest{UserID: "u1"})
	require.Error(t, err)
	assert.True(t, apperr.FromErr(err).Is(apperr.Validation("", "")))

	_, err = o.HandleTurn(context.Background(), TurnRequest{Message: "merhaba"})
	require.Error(t, err)
}

func TestHandleTurnGeneralQA(t *testing.T) {
	o, _ := newTestOrchestrator(t, nil)

	resp, err := o.HandleTurn(context.Background(), TurnRequest{
		Message: "merhaba", UserID: "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, IntentGeneralQA, resp.Intent)
	assert.False(t, resp.RequiresConfirmation)
	assert.NotEmpty(t, resp.Response)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestHandleTurnEmailSummaryExecutesImmediately(t *testing.T) {
	gmail := &stubProvider{result: &tools.Result{Success: true, Message: "5 e-posta bulundu"}}
	o, _ := newTestOrchestrator(t, map[tools.Action]*stubProvider{
		tools.ActionGmailSummary: gmail,
	})

	resp, err := o.HandleTurn(context.Background(), TurnRequest{
		Message: "bugünkü emaillerin özetini çıkar", UserID: "u1",
	})
	require.NoError(t, err)

	assert.Equal(t, Intent("email_summary"), resp.Intent)
	assert.False(t, resp.RequiresConfirmation)
	assert.Equal(t, 1, gmail.calls)

	in, ok := gmail.input.(*tools.GmailSummaryInput)
	require.True(t, ok)
	assert.Equal(t, "u1", in.UserID)
	assert.Equal(t, "today", in.Timeframe)
	assert.Contains(t, resp.Response, "E-posta özetiniz hazır")
}

func TestHandleTurnTaskCreationNeedsConfirmation(t *testing.T) {
	task := &stubProvider{result: &tools.Result{Success: true, Message: "Task created"}}
	o, plans := newTestOrchestrator(t, map[tools.Action]*stubProvider{
		tools.ActionTaskCreate: task,
	})

	resp, err := o.HandleTurn(context.Background(), TurnRequest{
		Message: "görev oluştur raporu bitir", UserID: "u1",
	})
	require.NoError(t, err)

	assert.True(t, resp.RequiresConfirmation)
	assert.NotEmpty(t, resp.PlanID)
	require.NotNil(t, resp.ExecutionPlan)
	require.Len(t, resp.ExecutionPlan.Steps, 1)
	assert.Equal(t, "task_create", resp.ExecutionPlan.Steps[0].Action)
	assert.Contains(t, resp.Response, "Onaylıyor musunuz?")
	assert.Equal(t, 0, task.calls, "plan must not run before confirmation")
	assert.Equal(t, 1, plans.Len())

	// Confirm and execute.
	resp2, err := o.HandleTurn(context.Background(), TurnRequest{
		Message:          "evet",
		UserID:           "u1",
		PlanID:           resp.PlanID,
		ConfirmExecution: boolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, task.calls)
	assert.Contains(t, resp2.Response, "Görev başarıyla oluşturuldu")
	assert.Equal(t, 0, plans.Len())
}

func TestHandleTurnRejectedPlanIsDiscarded(t *testing.T) {
	task := &stubProvider{result: &tools.Result{Success: true}}
	o, plans := newTestOrchestrator(t, map[tools.Action]*stubProvider{
		tools.ActionTaskCreate: task,
	})

	resp, err := o.HandleTurn(context.Background(), TurnRequest{
		Message: "görev oluştur raporu bitir", UserID: "u1",
	})
	require.NoError(t, err)

	resp2, err := o.HandleTurn(context.Background(), TurnRequest{
		Message:          "hayır",
		UserID:           "u1",
		PlanID:           resp.PlanID,
		ConfirmExecution: boolPtr(false),
	})
	require.NoError(t, err)
	assert.Contains(t, resp2.Response, "iptal ettim")
	assert.Equal(t, 0, task.calls)
	assert.Equal(t, 0, plans.Len())

	// A second confirmation of the same plan must fail: it was consumed.
	_, err = o.HandleTurn(context.Background(), TurnRequest{
		Message:          "evet",
		UserID:           "u1",
		PlanID:           resp.PlanID,
		ConfirmExecution: boolPtr(true),
	})
	require.Error(t, err)
	assert.True(t, apperr.FromErr(err).Is(apperr.PlanNotFound("", "")))
}

func TestHandleTurnUnknownPlanID(t *testing.T) {
	o, _ := newTestOrchestrator(t, nil)

	_, err := o.HandleTurn(context.Background(), TurnRequest{
		Message:          "evet",
		UserID:           "u1",
		PlanID:           "plan_missing",
		ConfirmExecution: boolPtr(true),
	})
	require.Error(t, err)
	assert.True(t, apperr.FromErr(err).Is(apperr.PlanNotFound("", "")))
}

func TestHandleTurnClarificationForMissingSlots(t *testing.T) {
	o, _ := newTestOrchestrator(t, nil)

	// Event intent without a usable time slot.
	resp, err := o.HandleTurn(context.Background(), TurnRequest{
		Message: "toplantı oluştur proje demo", UserID: "u1",
	})
	require.NoError(t, err)
	assert.True(t, resp.ClarificationNeeded)
	assert.Equal(t, askEventTime, resp.ClarificationQuestion)

	// Task intent without a title.
	resp, err = o.HandleTurn(context.Background(), TurnRequest{
		Message: "hatırlat bana", UserID: "u1",
	})
	require.NoError(t, err)
	assert.True(t, resp.ClarificationNeeded)
	assert.Equal(t, askTaskTitle, resp.ClarificationQuestion)
}

func TestHandleTurnProviderClarificationStopsExecution(t *testing.T) {
	gmail := &stubProvider{result: &tools.Result{
		Success:               false,
		Message:               "Ek bilgiye ihtiyacım var",
		ClarificationNeeded:   true,
		ClarificationQuestion: "Hangi posta kutusu?",
	}}
	o, _ := newTestOrchestrator(t, map[tools.Action]*stubProvider{
		tools.ActionGmailSummary: gmail,
	})

	resp, err := o.HandleTurn(context.Background(), TurnRequest{
		Message: "email summary lütfen", UserID: "u1",
	})
	require.NoError(t, err)
	assert.True(t, resp.ClarificationNeeded)
	assert.Equal(t, "Hangi posta kutusu?", resp.ClarificationQuestion)
}

func TestHandleTurnFailedStepReportedInSummary(t *testing.T) {
	gmail := &stubProvider{result: &tools.Result{Success: false, Message: "mailbox unreachable"}}
	o, _ := newTestOrchestrator(t, map[tools.Action]*stubProvider{
		tools.ActionGmailSummary: gmail,
	})

	resp, err := o.HandleTurn(context.Background(), TurnRequest{
		Message: "email summary lütfen", UserID: "u1",
	})
	require.NoError(t, err)
	assert.False(t, resp.ClarificationNeeded)
	assert.Contains(t, resp.Response, "İşlem tamamlanamadı")
	assert.Contains(t, resp.Response, "mailbox unreachable")
}

func TestPlanStoreExpiry(t *testing.T) {
	s := NewPlanStore(time.Minute)
	current := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	plan := &Plan{ID: "plan_a", CreatedAt: current}
	s.Put(plan)

	current = current.Add(2 * time.Minute)
	_, ok := s.Take("plan_a")
	assert.False(t, ok)
}

func TestPlanStoreSweep(t *testing.T) {
	s := NewPlanStore(time.Minute)
	current := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	s.Put(&Plan{ID: "plan_old", CreatedAt: current.Add(-5 * time.Minute)})
	s.Put(&Plan{ID: "plan_new", CreatedAt: current})

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())

	_, ok := s.Take("plan_new")
	assert.True(t, ok)
}

func TestBuildPlanNoteWithoutApproval(t *testing.T) {
	now := time.Now()
	uctx := EnrichContext("u1", nil)

	plan := buildPlan(IntentCreateNote, uctx, "not fikirler içerik birdhouse yapımı", now)
	require.Len(t, plan.Steps, 1)
	assert.False(t, plan.RequiresApproval)
	assert.Equal(t, tools.ActionNoteCreate, plan.Steps[0].Action)
	assert.Equal(t, int64(2000), plan.EstimatedDurationMS)
}

func TestBuildPlanNoteMissingContent(t *testing.T) {
	plan := buildPlan(IntentCreateNote, EnrichContext("u1", nil), "not fikirler", time.Now())
	assert.Empty(t, plan.Steps)
	assert.Equal(t, askNoteContent, plan.Clarification)
}

func TestNewOpenAISummarizerModel(t *testing.T) {
	s := NewOpenAISummarizer("test-key")
	assert.Equal(t, "gpt-4o-mini", s.model)
}

func TestHeuristicSummarizerFailureFirst(t *testing.T) {
	s := HeuristicSummarizer{}
	out := s.Summarize(context.Background(), IntentCreateTask, []*tools.Result{
		{Success: true, Message: "ok"},
		{Success: false, Message: "disk full"},
	}, "")
	assert.Contains(t, out, "İşlem tamamlanamadı")
	assert.Contains(t, out, "disk full")

	out = s.Summarize(context.Background(), IntentCreateTask, []*tools.Result{
		{Success: true},
	}, "")
	assert.Equal(t, "Görev başarıyla oluşturuldu ve görev listenize eklendi.", out)
}
