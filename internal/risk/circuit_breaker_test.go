package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_TripsAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxConsecutiveErrors: 3})

	require.NoError(t, cb.AllowExecution())

	cb.OnError()
	cb.OnError()
	assert.False(t, cb.Tripped())
	require.NoError(t, cb.AllowExecution())

	cb.OnError()
	assert.True(t, cb.Tripped())
	assert.ErrorIs(t, cb.AllowExecution(), ErrCircuitBreakerOpen)
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxConsecutiveErrors: 2})

	cb.OnError()
	cb.OnSuccess()
	cb.OnError()
	assert.False(t, cb.Tripped())
	assert.NoError(t, cb.AllowExecution())
}

func TestCircuitBreaker_ResumeClearsTrip(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxConsecutiveErrors: 1})
	cb.OnError()
	assert.True(t, cb.Tripped())

	cb.Resume()
	assert.False(t, cb.Tripped())
	assert.NoError(t, cb.AllowExecution())
}

func TestCircuitBreaker_HaltIsManualOverride(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxConsecutiveErrors: 100})
	cb.Halt()
	assert.True(t, cb.Tripped())
	assert.ErrorIs(t, cb.AllowExecution(), ErrCircuitBreakerOpen)
}

func TestCircuitBreaker_ZeroThresholdDisablesBreaker(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxConsecutiveErrors: 0})
	for i := 0; i < 50; i++ {
		cb.OnError()
	}
	assert.False(t, cb.Tripped())
	assert.NoError(t, cb.AllowExecution())
}

func TestCircuitBreaker_NilReceiverIsSafe(t *testing.T) {
	var cb *CircuitBreaker
	assert.NoError(t, cb.AllowExecution())
	assert.False(t, cb.Tripped())
	assert.NotPanics(t, func() {
		cb.OnSuccess()
		cb.OnError()
		cb.Halt()
		cb.Resume()
		cb.SetConfig(CircuitBreakerConfig{MaxConsecutiveErrors: 5})
	})
}
