package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestBackoff_ExponentialCapped(t *testing.T) {
	// Just over the limit: floor(11/10)=1 -> 2000ms.
	b := suggestBackoff(11, 10)
	assert.Equal(t, 2000, b.BaseDelayMS)
	assert.Equal(t, 200, b.JitterMS)
	assert.Equal(t, 3, b.MaxRetries)

	// Far past the limit: capped at 30s.
	b = suggestBackoff(100, 10)
	assert.Equal(t, 30000, b.BaseDelayMS)
	assert.Equal(t, 3000, b.JitterMS)
}

func TestApplyBackoff_StopsAfterMaxRetries(t *testing.T) {
	hint := Backoff{BaseDelayMS: 1000, JitterMS: 100, MaxRetries: 3}

	_, retry := ApplyBackoff(3, hint)
	assert.False(t, retry)

	delay, retry := ApplyBackoff(0, hint)
	require.True(t, retry)
	assert.GreaterOrEqual(t, delay, time.Second)
	assert.Less(t, delay, 1100*time.Millisecond)
}

func TestApplyBackoff_CappedAtOneMinute(t *testing.T) {
	hint := Backoff{BaseDelayMS: 30000, JitterMS: 3000, MaxRetries: 3}
	delay, retry := ApplyBackoff(2, hint)
	require.True(t, retry)
	assert.Equal(t, time.Minute, delay)
}
