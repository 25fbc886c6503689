// Package executor implements the Batch Executor, spec §4.4: decides
// when a pool's buffered reveals warrant an on-chain batch execute call
// and sequences reveal submission -> execution. Grounded on the
// reference's internal/common.StartLoopOnce polling-loop pattern and its
// internal/strategies/common.InFlightLimiter per-resource guard,
// generalized here to per-pool guards keyed by pool id.
package executor

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Belloabraham121/privbatch/internal/common"
	"github.com/Belloabraham121/privbatch/internal/domain"
	"github.com/Belloabraham121/privbatch/internal/historystore"
	"github.com/Belloabraham121/privbatch/internal/hookclient"
	"github.com/Belloabraham121/privbatch/internal/metrics"
	"github.com/Belloabraham121/privbatch/internal/reveal"
	"github.com/Belloabraham121/privbatch/internal/risk"
)

var log = logrus.WithField("component", "batch_executor")

// Config is the executor's tuning surface, spec §4.4.
type Config struct {
	PollInterval      time.Duration
	PostRevealDelay   time.Duration
	MaxRetries        int
	RetryBaseDelay    time.Duration
	ZKMode            bool

	// MaxConsecutiveFailures trips a per-pool circuit breaker after this
	// many execute attempts fail in a row for the same pool, pausing
	// further execution until resumed. <= 0 disables the breaker.
	MaxConsecutiveFailures int64
}

// HookClient is the subset of hookclient.Client the executor drives.
type HookClient interface {
	Checker(ctx context.Context, poolID [32]byte) (hookclient.CheckerResult, error)
	GetPendingCommitmentCount(ctx context.Context, poolID [32]byte) (uint32, error)
	GetMinCommitments(ctx context.Context) (uint32, error)
	RevealAndBatchExecute(ctx context.Context, poolKey domain.PoolKey, hashes []domain.CommitmentHash) (hookclient.TxResult, error)
	RevealAndBatchExecuteWithProofs(ctx context.Context, poolKey domain.PoolKey, hashes []domain.CommitmentHash, proofs []hookclient.ZkProof) (hookclient.TxResult, error)
}

// RevealManager is the subset of reveal.Manager the executor drives.
type RevealManager interface {
	SubmitAllReveals(ctx context.Context) []reveal.SubmitOutcome
	GetSubmittedHashesForPool(poolID [32]byte) []domain.CommitmentHash
	ClearExecutedReveals(hashes []domain.CommitmentHash)
	Notify() <-chan struct{}
}

// HistoryRecorder persists execution outcomes; historystore.Store
// implements it.
type HistoryRecorder interface {
	Append(entry historystore.Entry) error
	GetStats() (historystore.Stats, error)
}

// GetStats delegates to the configured history recorder, spec §4.4's
// get_stats aggregation.
func (e *Executor) GetStats() (historystore.Stats, error) {
	return e.history.GetStats()
}

// ReadinessCheck is the check_batch_readiness result, spec §4.4.
type ReadinessCheck struct {
	CanExec         bool
	PendingOnChain  uint32
	RevealsReady    int
	MeetsMinimum    bool
	Ready           bool
}

type trackedPool struct {
	key domain.PoolKey
	id  [32]byte
}

// Executor drives the poll -> readiness-check -> execute loop for a set
// of registered pools.
type Executor struct {
	cfg     Config
	hook    HookClient
	reveals RevealManager
	history HistoryRecorder

	mu        sync.Mutex
	pools     map[[32]byte]trackedPool
	inFlight  map[[32]byte]*common.InFlightLimiter
	breakers  map[[32]byte]*risk.CircuitBreaker
	proofs    map[domain.CommitmentHash]hookclient.ZkProof

	loopOnce sync.Once
	cancel   context.CancelFunc
}

func New(cfg Config, hook HookClient, reveals RevealManager, history HistoryRecorder) *Executor {
	return &Executor{
		cfg:      cfg,
		hook:     hook,
		reveals:  reveals,
		history:  history,
		pools:    make(map[[32]byte]trackedPool),
		inFlight: make(map[[32]byte]*common.InFlightLimiter),
		breakers: make(map[[32]byte]*risk.CircuitBreaker),
		proofs:   make(map[domain.CommitmentHash]hookclient.ZkProof),
	}
}

func (e *Executor) AddPool(key domain.PoolKey, id [32]byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pools[id] = trackedPool{key: key, id: id}
	if _, ok := e.inFlight[id]; !ok {
		e.inFlight[id] = common.NewInFlightLimiter(1)
	}
	if _, ok := e.breakers[id]; !ok {
		e.breakers[id] = risk.NewCircuitBreaker(risk.CircuitBreakerConfig{MaxConsecutiveErrors: e.cfg.MaxConsecutiveFailures})
	}
}

func (e *Executor) RemovePool(id [32]byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.pools, id)
	delete(e.inFlight, id)
	delete(e.breakers, id)
}

// ResumePool clears a tripped circuit breaker for poolID, letting
// execution resume; a no-op if the pool isn't tracked or wasn't tripped.
func (e *Executor) ResumePool(poolID [32]byte) {
	e.mu.Lock()
	cb := e.breakers[poolID]
	e.mu.Unlock()
	cb.Resume()
}

// CircuitTripped reports whether poolID's circuit breaker is currently open.
func (e *Executor) CircuitTripped(poolID [32]byte) bool {
	e.mu.Lock()
	cb := e.breakers[poolID]
	e.mu.Unlock()
	return cb.Tripped()
}

// StoreProof stashes a ZK proof under its commitment hash, the same key
// GetProof reads; not persisted across restarts.
func (e *Executor) StoreProof(hash domain.CommitmentHash, proof hookclient.ZkProof) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.proofs[hash] = proof
}

func (e *Executor) GetProof(hash domain.CommitmentHash) (hookclient.ZkProof, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.proofs[hash]
	return p, ok
}

// CheckBatchReadiness implements spec §4.4's readiness derivation.
func (e *Executor) CheckBatchReadiness(ctx context.Context, poolID [32]byte) (ReadinessCheck, error) {
	checkerResult, err := e.hook.Checker(ctx, poolID)
	if err != nil {
		return ReadinessCheck{}, err
	}
	pending, err := e.hook.GetPendingCommitmentCount(ctx, poolID)
	if err != nil {
		return ReadinessCheck{}, err
	}
	minCommitments, err := e.hook.GetMinCommitments(ctx)
	if err != nil {
		return ReadinessCheck{}, err
	}
	revealsReady := len(e.reveals.GetSubmittedHashesForPool(poolID))
	meetsMinimum := uint32(revealsReady) >= minCommitments

	return ReadinessCheck{
		CanExec:        checkerResult.CanExec,
		PendingOnChain: pending,
		RevealsReady:   revealsReady,
		MeetsMinimum:   meetsMinimum,
		Ready:          checkerResult.CanExec && meetsMinimum,
	}, nil
}

// StartPolling starts the executor's polling loop exactly once.
func (e *Executor) StartPolling(ctx context.Context) {
	common.StartLoopOnce(ctx, &e.loopOnce, func(cancel context.CancelFunc) { e.cancel = cancel }, e.cfg.PollInterval, e.runLoop)
}

// StopPolling prevents new iterations; an in-flight execution is not
// aborted.
func (e *Executor) StopPolling() {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (e *Executor) runLoop(ctx context.Context, tickC <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-tickC:
			e.pollOnce(ctx)
		case <-e.reveals.Notify():
			e.pollOnce(ctx)
		}
	}
}

func (e *Executor) pollOnce(ctx context.Context) {
	e.mu.Lock()
	pools := make([]trackedPool, 0, len(e.pools))
	for _, p := range e.pools {
		pools = append(pools, p)
	}
	e.mu.Unlock()

	for _, p := range pools {
		readiness, err := e.CheckBatchReadiness(ctx, p.id)
		if err != nil {
			log.WithError(err).WithField("pool_id", p.id).Warn("readiness check failed")
			continue
		}
		if !readiness.Ready {
			continue
		}
		e.mu.Lock()
		limiter := e.inFlight[p.id]
		e.mu.Unlock()
		if limiter == nil || !limiter.TryAcquire() {
			continue
		}
		go func(p trackedPool) {
			defer limiter.Release()
			e.executeBatch(ctx, p)
		}(p)
	}
}

// ExecuteBatch runs the full execution-ordering contract for a single
// pool, synchronously. Exported so callers (agent lifecycle, tests) can
// trigger an execution outside the polling loop.
func (e *Executor) ExecuteBatch(ctx context.Context, poolID [32]byte) error {
	e.mu.Lock()
	p, ok := e.pools[poolID]
	limiter := e.inFlight[poolID]
	e.mu.Unlock()
	if !ok {
		return domain.NewError(domain.ErrNoSubmittedReveals, "pool not tracked by executor")
	}
	if limiter != nil {
		if !limiter.TryAcquire() {
			return domain.NewError(domain.ErrBatchConditionsNotMet, "batch already in flight for pool")
		}
		defer limiter.Release()
	}
	return e.executeBatch(ctx, p)
}

func (e *Executor) executeBatch(ctx context.Context, p trackedPool) error {
	e.mu.Lock()
	breaker := e.breakers[p.id]
	e.mu.Unlock()
	if err := breaker.AllowExecution(); err != nil {
		return err
	}

	// Step 1: submit all pending reveals, then require at least one
	// submitted hash for this pool.
	e.reveals.SubmitAllReveals(ctx)
	hashes := e.reveals.GetSubmittedHashesForPool(p.id)
	if len(hashes) == 0 {
		err := domain.NewError(domain.ErrNoSubmittedReveals, "no submitted reveals for pool after submit_all_reveals")
		e.recordFailure(p.id, err)
		return err
	}

	// Step 2 (ZK mode): every hash needs a cached proof before executing.
	var proofs []hookclient.ZkProof
	if e.cfg.ZKMode {
		proofs = make([]hookclient.ZkProof, 0, len(hashes))
		for _, h := range hashes {
			proof, ok := e.GetProof(h)
			if !ok {
				err := domain.NewError(domain.ErrMissingZKProof, "missing zk proof for commitment "+h.String())
				e.recordFailure(p.id, err)
				return err
			}
			proofs = append(proofs, proof)
		}
	}

	// Step 3: optional chain-propagation delay.
	if e.cfg.PostRevealDelay > 0 {
		time.Sleep(e.cfg.PostRevealDelay)
	}

	// Step 4-6: execute with retry/backoff.
	return e.executeWithRetry(ctx, p, hashes, proofs)
}

func (e *Executor) executeWithRetry(ctx context.Context, p trackedPool, hashes []domain.CommitmentHash, proofs []hookclient.ZkProof) error {
	e.mu.Lock()
	breaker := e.breakers[p.id]
	e.mu.Unlock()

	var lastErr error
	attempts := e.cfg.MaxRetries
	if attempts < 0 {
		attempts = 0
	}

	for attempt := 0; attempt <= attempts; attempt++ {
		var result hookclient.TxResult
		var err error
		if e.cfg.ZKMode {
			result, err = e.hook.RevealAndBatchExecuteWithProofs(ctx, p.key, hashes, proofs)
		} else {
			result, err = e.hook.RevealAndBatchExecute(ctx, p.key, hashes)
		}

		if err == nil && result.Success {
			breaker.OnSuccess()
			e.reveals.ClearExecutedReveals(hashes)
			_ = e.history.Append(historystore.Entry{
				PoolID:      p.id,
				TxHash:      result.TxHash,
				BlockNumber: result.BlockNumber,
				GasUsed:     result.GasUsed,
				BatchSize:   len(hashes),
				Success:     true,
				TimestampMs: time.Now().UnixMilli(),
			})
			metrics.BatchesExecuted.Add(1)
			metrics.RevealsSubmitted.Add(int64(len(hashes)))
			log.WithField("pool_id", p.id).Infof("batch executed: %d reveals, tx=%s", len(hashes), result.TxHash)
			return nil
		}

		lastErr = err
		if lastErr == nil {
			// A decoded revert can surface as a non-error TxResult (the
			// RPC call itself succeeded, the on-chain batch did not).
			// Don't let that look like success once retries run out.
			lastErr = result.Err
			if lastErr == nil {
				lastErr = domain.NewError(domain.ErrBatchConditionsNotMet, "batch execute returned an unsuccessful result with no error")
			}
		}
		if attempt < attempts {
			backoff := time.Duration(int64(e.cfg.RetryBaseDelay) * (1 << uint(attempt)))
			log.WithError(lastErr).WithField("pool_id", p.id).Warnf("batch execute attempt %d failed, retrying in %s", attempt+1, backoff)
			time.Sleep(backoff)
		}
	}

	breaker.OnError()
	metrics.BatchExecutionErrors.Add(1)
	if breaker.Tripped() {
		metrics.CircuitBreakerTrips.Add(1)
	}
	e.recordFailure(p.id, lastErr)
	return lastErr
}

func (e *Executor) recordFailure(poolID [32]byte, err error) {
	kind, _ := domain.KindOf(err)
	_ = e.history.Append(historystore.Entry{
		PoolID:      poolID,
		Success:     false,
		ErrorKind:   kind,
		TimestampMs: time.Now().UnixMilli(),
	})
}
