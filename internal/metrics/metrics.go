// Package metrics exposes process-wide expvar counters for the Batch
// Executor, grounded on the reference's internal/metrics (same
// expvar.NewInt counter set and debug HTTP surface, renamed from the
// reference's reconcile/snapshot counters to the batch-execution events
// this process actually produces).
package metrics

import "expvar"

var (
	BatchesExecuted      = expvar.NewInt("batches_executed")
	BatchExecutionErrors = expvar.NewInt("batch_execution_errors")
	RevealsSubmitted     = expvar.NewInt("reveals_submitted")
	CircuitBreakerTrips  = expvar.NewInt("circuit_breaker_trips")
)
