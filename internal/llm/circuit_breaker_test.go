package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/vocabuddy/internal/llm"
)

func TestCircuitBreaker_PassesThroughWhenClosed(t *testing.T) {
	cb := llm.NewCircuitBreaker()

	result, err := cb.Execute(t.Context(), func() (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, "closed", cb.State())
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := llm.NewCircuitBreakerWithConfig(llm.CircuitBreakerConfig{
		MaxFailures:          2,
		Timeout:              time.Minute,
		HalfOpenMaxSuccesses: 1,
	})
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(t.Context(), func() (interface{}, error) { return nil, boom })
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, "open", cb.State())

	called := false
	_, err := cb.Execute(t.Context(), func() (interface{}, error) {
		called = true
		return "ok", nil
	})
	assert.ErrorIs(t, err, llm.ErrCircuitOpen)
	assert.False(t, called, "open circuit must not invoke fn")
}

func TestCircuitBreaker_RecoversAfterTimeout(t *testing.T) {
	cb := llm.NewCircuitBreakerWithConfig(llm.CircuitBreakerConfig{
		MaxFailures:          1,
		Timeout:              20 * time.Millisecond,
		HalfOpenMaxSuccesses: 1,
	})

	_, err := cb.Execute(t.Context(), func() (interface{}, error) { return nil, errors.New("boom") })
	require.Error(t, err)
	require.Equal(t, "open", cb.State())

	time.Sleep(30 * time.Millisecond)

	result, err := cb.Execute(t.Context(), func() (interface{}, error) { return "recovered", nil })
	require.NoError(t, err)
	assert.Equal(t, "recovered", result)
	assert.Equal(t, "closed", cb.State())
}

func TestCircuitBreaker_CancelledContext(t *testing.T) {
	cb := llm.NewCircuitBreaker()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cb.Execute(ctx, func() (interface{}, error) { return "ok", nil })
	assert.ErrorIs(t, err, context.Canceled)
}
