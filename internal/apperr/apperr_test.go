package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErr_PassesTypedThrough(t *testing.T) {
	orig := RateLimited("chat", 42, "")
	got := FromErr(fmt.Errorf("handling turn: %w", orig))
	assert.Equal(t, CodeRateLimit, got.Code)
	assert.Equal(t, 42, got.RetryAfter)
	assert.Equal(t, http.StatusTooManyRequests, got.Status)
}

func TestFromErr_WrapsUnknown(t *testing.T) {
	got := FromErr(errors.New("boom"))
	assert.Equal(t, CodeInternal, got.Code)
	assert.Equal(t, http.StatusInternalServerError, got.Status)
	// Raw message must not leak into the user-facing text.
	assert.NotContains(t, got.Message, "boom")
}

func TestIs_MatchesByCode(t *testing.T) {
	err := fmt.Errorf("confirm: %w", PlanNotFound("plan_abc", ""))
	assert.True(t, errors.Is(err, PlanNotFound("", "")))
	assert.False(t, errors.Is(err, Validation("", "")))
}

func TestWithCause_Unwraps(t *testing.T) {
	cause := errors.New("redis: connection refused")
	err := StoreUnavailable(cause)
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), CodeStoreUnavailable)
}

func TestToolExecutionFailed_CarriesActionAndCause(t *testing.T) {
	cause := errors.New("sqlite locked")
	err := ToolExecutionFailed("task_create", cause)
	assert.Equal(t, CodeToolExecution, err.Code)
	assert.Equal(t, "task_create failed: sqlite locked", err.Message)
	require.ErrorIs(t, err, cause)
	assert.True(t, errors.Is(err, ToolExecutionFailed("", nil)))
}

func TestRateLimited_DefaultHint(t *testing.T) {
	err := RateLimited("tool", 7, "")
	assert.Contains(t, err.Hint, "7 seconds")
}
