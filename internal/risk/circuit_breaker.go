// Package risk implements a consecutive-failure circuit breaker for
// batch execution, grounded on the reference's internal/risk.CircuitBreaker
// (same atomic halted/consecutiveErrors fields and Allow/OnSuccess/OnError
// shape). The reference's daily-PnL-limit half is Polymarket position
// accounting this repository has no equivalent of, so only the
// consecutive-error trip survives here.
package risk

import (
	"errors"
	"sync/atomic"
)

// ErrCircuitBreakerOpen is returned by AllowExecution while tripped.
var ErrCircuitBreakerOpen = errors.New("circuit breaker open: too many consecutive batch execution failures")

// CircuitBreakerConfig configures the trip threshold. MaxConsecutiveErrors
// <= 0 disables the breaker.
type CircuitBreakerConfig struct {
	MaxConsecutiveErrors int64
}

// CircuitBreaker guards the Batch Executor's execute path: once
// MaxConsecutiveErrors on-chain executions fail in a row for a pool, it
// trips and stays tripped until Resume is called.
type CircuitBreaker struct {
	halted               atomic.Bool
	consecutiveErrors    atomic.Int64
	maxConsecutiveErrors atomic.Int64
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	cb := &CircuitBreaker{}
	cb.SetConfig(cfg)
	return cb
}

func (cb *CircuitBreaker) SetConfig(cfg CircuitBreakerConfig) {
	if cb == nil {
		return
	}
	cb.maxConsecutiveErrors.Store(cfg.MaxConsecutiveErrors)
}

// Halt trips the breaker manually, e.g. from an operator control-plane call.
func (cb *CircuitBreaker) Halt() {
	if cb == nil {
		return
	}
	cb.halted.Store(true)
}

// Resume clears a trip and resets the consecutive-error count.
func (cb *CircuitBreaker) Resume() {
	if cb == nil {
		return
	}
	cb.halted.Store(false)
	cb.consecutiveErrors.Store(0)
}

// Tripped reports whether the breaker is currently open.
func (cb *CircuitBreaker) Tripped() bool {
	if cb == nil {
		return false
	}
	return cb.halted.Load()
}

// AllowExecution is the fast-path check the executor calls before
// attempting a batch execution.
func (cb *CircuitBreaker) AllowExecution() error {
	if cb == nil {
		return nil
	}
	if cb.halted.Load() {
		return ErrCircuitBreakerOpen
	}
	max := cb.maxConsecutiveErrors.Load()
	if max > 0 && cb.consecutiveErrors.Load() >= max {
		cb.halted.Store(true)
		return ErrCircuitBreakerOpen
	}
	return nil
}

// OnSuccess resets the consecutive-error count after a successful execution.
func (cb *CircuitBreaker) OnSuccess() {
	if cb == nil {
		return
	}
	cb.consecutiveErrors.Store(0)
}

// OnError records one more consecutive execution failure, tripping the
// breaker immediately if the threshold is reached so Tripped() reflects
// this failure without waiting for the next AllowExecution call.
func (cb *CircuitBreaker) OnError() {
	if cb == nil {
		return
	}
	errs := cb.consecutiveErrors.Add(1)
	max := cb.maxConsecutiveErrors.Load()
	if max > 0 && errs >= max {
		cb.halted.Store(true)
	}
}
