package hookclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/Belloabraham121/privbatch/internal/domain"
)

// FakeClient is an in-memory stand-in for Client, spec §4.1: it lets the
// Reveal Manager, Batch Executor, and agent loop run end to end without a
// live chain, the same role the reference's pkg/sdk/http.FakeClient plays
// for its order-book transport in tests. Every call succeeds by default;
// tests configure failures by setting the Fail* fields or by pre-seeding
// Verified/PendingCounts.
type FakeClient struct {
	mu sync.Mutex

	Commitments   []CommitmentCall
	Reveals       []RevealCall
	BatchExecs    []BatchExecCall

	Verified      map[domain.CommitmentHash]bool
	PendingCounts map[[32]byte]uint32
	MinCommitments uint32

	FailSubmitCommitment bool
	FailSubmitReveal     bool
	FailBatchExecute     bool
	NextErr              error

	txCounter int
}

type CommitmentCall struct {
	PoolKey domain.PoolKey
	Hash    domain.CommitmentHash
	Proof   *ZkProof
}

type RevealCall struct {
	PoolKey domain.PoolKey
	Intent  domain.SwapIntent
	Hash    *domain.CommitmentHash // set only for the ZK-path call
}

type BatchExecCall struct {
	PoolKey domain.PoolKey
	Hashes  []domain.CommitmentHash
	Proofs  []ZkProof
}

func NewFakeClient() *FakeClient {
	return &FakeClient{
		Verified:      make(map[domain.CommitmentHash]bool),
		PendingCounts: make(map[[32]byte]uint32),
		MinCommitments: 2,
	}
}

func (f *FakeClient) nextTxHash() string {
	f.txCounter++
	return fmt.Sprintf("0xfake%08d", f.txCounter)
}

func (f *FakeClient) SubmitCommitment(ctx context.Context, poolKey domain.PoolKey, hash domain.CommitmentHash) (TxResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Commitments = append(f.Commitments, CommitmentCall{PoolKey: poolKey, Hash: hash})
	if f.FailSubmitCommitment {
		return TxResult{Success: false, Err: f.errOrDefault(domain.ErrInvalidCommitment)}, f.errOrDefault(domain.ErrInvalidCommitment)
	}
	poolID, _ := poolKey.PoolID()
	f.PendingCounts[poolID]++
	return TxResult{TxHash: f.nextTxHash(), Success: true}, nil
}

func (f *FakeClient) SubmitCommitmentWithProof(ctx context.Context, poolKey domain.PoolKey, hash domain.CommitmentHash, proof ZkProof) (TxResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Commitments = append(f.Commitments, CommitmentCall{PoolKey: poolKey, Hash: hash, Proof: &proof})
	if f.FailSubmitCommitment {
		return TxResult{Success: false, Err: f.errOrDefault(domain.ErrInvalidCommitment)}, f.errOrDefault(domain.ErrInvalidCommitment)
	}
	poolID, _ := poolKey.PoolID()
	f.PendingCounts[poolID]++
	f.Verified[hash] = true
	return TxResult{TxHash: f.nextTxHash(), Success: true}, nil
}

func (f *FakeClient) SubmitReveal(ctx context.Context, poolKey domain.PoolKey, intent domain.SwapIntent) (TxResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Reveals = append(f.Reveals, RevealCall{PoolKey: poolKey, Intent: intent})
	if f.FailSubmitReveal {
		return TxResult{Success: false, Err: f.errOrDefault(domain.ErrCurrencyNotSettled)}, f.errOrDefault(domain.ErrCurrencyNotSettled)
	}
	return TxResult{TxHash: f.nextTxHash(), Success: true}, nil
}

func (f *FakeClient) SubmitRevealForZK(ctx context.Context, poolKey domain.PoolKey, hash domain.CommitmentHash, intent domain.SwapIntent) (TxResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Reveals = append(f.Reveals, RevealCall{PoolKey: poolKey, Intent: intent, Hash: &hash})
	if f.FailSubmitReveal {
		return TxResult{Success: false, Err: f.errOrDefault(domain.ErrCurrencyNotSettled)}, f.errOrDefault(domain.ErrCurrencyNotSettled)
	}
	return TxResult{TxHash: f.nextTxHash(), Success: true}, nil
}

func (f *FakeClient) RevealAndBatchExecute(ctx context.Context, poolKey domain.PoolKey, hashes []domain.CommitmentHash) (TxResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.BatchExecs = append(f.BatchExecs, BatchExecCall{PoolKey: poolKey, Hashes: hashes})
	if f.FailBatchExecute {
		return TxResult{Success: false, Err: f.errOrDefault(domain.ErrBatchConditionsNotMet)}, f.errOrDefault(domain.ErrBatchConditionsNotMet)
	}
	poolID, _ := poolKey.PoolID()
	f.PendingCounts[poolID] = 0
	return TxResult{TxHash: f.nextTxHash(), Success: true, GasUsed: uint64(21000 * len(hashes))}, nil
}

func (f *FakeClient) RevealAndBatchExecuteWithProofs(ctx context.Context, poolKey domain.PoolKey, hashes []domain.CommitmentHash, proofs []ZkProof) (TxResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.BatchExecs = append(f.BatchExecs, BatchExecCall{PoolKey: poolKey, Hashes: hashes, Proofs: proofs})
	if f.FailBatchExecute {
		return TxResult{Success: false, Err: f.errOrDefault(domain.ErrBatchConditionsNotMet)}, f.errOrDefault(domain.ErrBatchConditionsNotMet)
	}
	poolID, _ := poolKey.PoolID()
	f.PendingCounts[poolID] = 0
	return TxResult{TxHash: f.nextTxHash(), Success: true, GasUsed: uint64(21000 * len(hashes))}, nil
}

func (f *FakeClient) Checker(ctx context.Context, poolID [32]byte) (CheckerResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := f.PendingCounts[poolID]
	return CheckerResult{CanExec: count >= f.MinCommitments, ExecPayload: []byte("fake-payload")}, nil
}

func (f *FakeClient) GetPendingCommitmentCount(ctx context.Context, poolID [32]byte) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.PendingCounts[poolID], nil
}

func (f *FakeClient) IsCommitmentVerified(ctx context.Context, hash domain.CommitmentHash) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Verified[hash], nil
}

func (f *FakeClient) GetMinCommitments(ctx context.Context) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.MinCommitments, nil
}

func (f *FakeClient) errOrDefault(kind domain.ErrorKind) error {
	if f.NextErr != nil {
		return f.NextErr
	}
	return domain.NewError(kind, "fake client configured failure")
}
