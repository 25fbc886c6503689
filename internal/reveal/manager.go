// Package reveal implements the Reveal Manager, spec §4.2: a validated
// buffer of revealed intents awaiting on-chain submission.
package reveal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Belloabraham121/privbatch/internal/domain"
	"github.com/Belloabraham121/privbatch/pkg/sigchan"
)

// HookClient is the subset of the hook client the Reveal Manager drives.
type HookClient interface {
	SubmitReveal(ctx context.Context, poolKey domain.PoolKey, intent domain.SwapIntent) (TxResult, error)
	SubmitRevealForZK(ctx context.Context, poolKey domain.PoolKey, hash domain.CommitmentHash, intent domain.SwapIntent) (TxResult, error)
}

// TxResult is the minimal on-chain call outcome the manager inspects.
type TxResult struct {
	TxHash  string
	Success bool
	Err     error
}

// SubmitOutcome is one entry of submit_all_reveals's result list.
type SubmitOutcome struct {
	CommitmentHash domain.CommitmentHash
	Success        bool
	Err            error
}

var log = logrus.WithField("component", "reveal_manager")

// entry is stored per commitment hash; order is tracked separately so
// FIFO add order (spec §4.2/§5) is preserved regardless of map
// iteration order.
type entry struct {
	data  domain.RevealData
	order int
}

type Manager struct {
	mu             sync.Mutex
	hook           HookClient
	byHash         map[domain.CommitmentHash]*entry
	poolOrder      map[[32]byte][]domain.CommitmentHash
	seq            int
	SubmissionDelay time.Duration

	// notify fires (non-blocking) every time a reveal is added, so the
	// Batch Executor's poll loop can react immediately instead of
	// waiting out its fixed interval.
	notify *sigchan.Chan
}

func NewManager(hook HookClient) *Manager {
	return &Manager{
		hook:      hook,
		byHash:    make(map[domain.CommitmentHash]*entry),
		poolOrder: make(map[[32]byte][]domain.CommitmentHash),
		notify:    sigchan.New(1),
	}
}

// Notify returns the channel the executor selects on for an
// immediate-readiness-check signal.
func (m *Manager) Notify() <-chan struct{} { return m.notify.C() }

// AddReveal is ignored if hash already exists; otherwise stored pending.
func (m *Manager) AddReveal(hash domain.CommitmentHash, intent domain.SwapIntent, poolKey domain.PoolKey, poolID [32]byte, isZKVerified bool) {
	m.mu.Lock()
	if _, exists := m.byHash[hash]; exists {
		m.mu.Unlock()
		return
	}
	m.seq++
	m.byHash[hash] = &entry{
		data: domain.RevealData{
			CommitmentHash: hash,
			Intent:         intent,
			PoolKey:        poolKey,
			PoolID:         poolID,
			IsZKVerified:   isZKVerified,
		},
		order: m.seq,
	}
	m.poolOrder[poolID] = append(m.poolOrder[poolID], hash)
	m.mu.Unlock()

	m.notify.Emit()
}

// GetRevealsForPool returns reveals for poolID in FIFO add order.
func (m *Manager) GetRevealsForPool(poolID [32]byte) []domain.RevealData {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.RevealData
	for _, h := range m.poolOrder[poolID] {
		if e, ok := m.byHash[h]; ok {
			out = append(out, e.data)
		}
	}
	return out
}

// GetSubmittedHashesForPool returns only submitted_on_chain==true
// hashes, in FIFO order.
func (m *Manager) GetSubmittedHashesForPool(poolID [32]byte) []domain.CommitmentHash {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CommitmentHash
	for _, h := range m.poolOrder[poolID] {
		if e, ok := m.byHash[h]; ok && e.data.SubmittedOnChain {
			out = append(out, h)
		}
	}
	return out
}

// GetPendingCount returns the number of reveals not yet submitted.
func (m *Manager) GetPendingCount() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n uint32
	for _, e := range m.byHash {
		if !e.data.SubmittedOnChain {
			n++
		}
	}
	return n
}

// ValidateReveal implements spec §4.2's pre-network-I/O checks.
func ValidateReveal(data domain.RevealData, now time.Time) domain.ValidationResult {
	var errs []string

	if data.Intent.AmountIn == nil || data.Intent.AmountIn.Sign() == 0 {
		errs = append(errs, "amount_in is zero")
	}
	if now.Unix() > data.Intent.DeadlineUnix {
		errs = append(errs, "deadline already elapsed")
	}
	if !data.IsZKVerified {
		computed, err := domain.ComputeCommitmentHash(data.Intent)
		if err != nil {
			errs = append(errs, fmt.Sprintf("failed to compute commitment hash: %v", err))
		} else if computed != data.CommitmentHash {
			errs = append(errs, "commitment hash mismatch")
		}
	}

	return domain.ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// SubmitAllReveals validates then submits every pending reveal, in FIFO
// order, applying an optional inter-submission delay. On success the
// reveal is marked submitted_on_chain; on failure the error is recorded
// and the reveal stays pending.
func (m *Manager) SubmitAllReveals(ctx context.Context) []SubmitOutcome {
	m.mu.Lock()
	var pending []domain.CommitmentHash
	for poolID := range m.poolOrder {
		for _, h := range m.poolOrder[poolID] {
			if e, ok := m.byHash[h]; ok && !e.data.SubmittedOnChain {
				pending = append(pending, h)
			}
		}
	}
	delay := m.SubmissionDelay
	m.mu.Unlock()

	var results []SubmitOutcome
	for i, hash := range pending {
		results = append(results, m.submitOne(ctx, hash))
		if delay > 0 && i < len(pending)-1 {
			time.Sleep(delay)
		}
	}
	return results
}

func (m *Manager) submitOne(ctx context.Context, hash domain.CommitmentHash) SubmitOutcome {
	m.mu.Lock()
	e, ok := m.byHash[hash]
	if !ok {
		m.mu.Unlock()
		return SubmitOutcome{CommitmentHash: hash, Success: false, Err: fmt.Errorf("reveal not found")}
	}
	data := e.data
	m.mu.Unlock()

	validation := ValidateReveal(data, time.Now())
	if !validation.IsValid {
		m.recordError(hash, validation.Errors)
		return SubmitOutcome{CommitmentHash: hash, Success: false, Err: fmt.Errorf("validation failed: %v", validation.Errors)}
	}

	var result TxResult
	var err error
	if data.IsZKVerified {
		result, err = m.hook.SubmitRevealForZK(ctx, data.PoolKey, hash, data.Intent)
	} else {
		result, err = m.hook.SubmitReveal(ctx, data.PoolKey, data.Intent)
	}
	if err != nil || !result.Success {
		msg := "submission failed"
		if err != nil {
			msg = err.Error()
		}
		m.recordError(hash, []string{msg})
		return SubmitOutcome{CommitmentHash: hash, Success: false, Err: fmt.Errorf(msg)}
	}

	now := time.Now()
	m.mu.Lock()
	if e, ok := m.byHash[hash]; ok {
		e.data.SubmittedOnChain = true
		e.data.SubmissionTime = &now
	}
	m.mu.Unlock()
	return SubmitOutcome{CommitmentHash: hash, Success: true}
}

func (m *Manager) recordError(hash domain.CommitmentHash, errs []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.byHash[hash]; ok {
		e.data.Errors = append(e.data.Errors, errs...)
		log.WithField("hash", hash.String()).Warnf("reveal validation/submission failed: %v", errs)
	}
}

// ClearExecutedReveals drops reveals whose hashes appear in hashes.
func (m *Manager) ClearExecutedReveals(hashes []domain.CommitmentHash) {
	m.mu.Lock()
	defer m.mu.Unlock()
	toClear := make(map[domain.CommitmentHash]struct{}, len(hashes))
	for _, h := range hashes {
		toClear[h] = struct{}{}
	}
	for h := range toClear {
		e, ok := m.byHash[h]
		if !ok {
			continue
		}
		delete(m.byHash, h)
		m.removeFromOrder(e.data.PoolID, h)
	}
}

// ClearPool drops every reveal for poolID.
func (m *Manager) ClearPool(poolID [32]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.poolOrder[poolID] {
		delete(m.byHash, h)
	}
	delete(m.poolOrder, poolID)
}

// ClearAll drops every reveal for every pool.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byHash = make(map[domain.CommitmentHash]*entry)
	m.poolOrder = make(map[[32]byte][]domain.CommitmentHash)
}

func (m *Manager) removeFromOrder(poolID [32]byte, hash domain.CommitmentHash) {
	order := m.poolOrder[poolID]
	for i, h := range order {
		if h == hash {
			m.poolOrder[poolID] = append(order[:i], order[i+1:]...)
			return
		}
	}
}
