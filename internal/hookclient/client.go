// Package hookclient is the typed RPC surface over the on-chain hook
// contract, spec §4.1. It is the only place in this repository that
// speaks to the chain; every other component depends on the Client
// interface, never on a transport directly.
package hookclient

import (
	"context"

	"github.com/Belloabraham121/privbatch/internal/domain"
)

// TxResult is the outcome of a state-changing call.
type TxResult struct {
	TxHash     string
	Success    bool
	BlockNumber uint64
	GasUsed     uint64
	Err         error
}

// CheckerResult is the checker(pool_id) response.
type CheckerResult struct {
	CanExec     bool
	ExecPayload []byte
}

// ZkProof mirrors the proof-generator collaborator's opaque output,
// spec §6. The core never inspects its contents, only associates it
// with a commitment hash.
type ZkProof struct {
	A             [2]string
	B             [2][2]string
	C             [2]string
	PublicSignals []string
}

// Client is the full typed RPC surface spec §4.1 enumerates.
type Client interface {
	SubmitCommitment(ctx context.Context, poolKey domain.PoolKey, hash domain.CommitmentHash) (TxResult, error)
	SubmitCommitmentWithProof(ctx context.Context, poolKey domain.PoolKey, hash domain.CommitmentHash, proof ZkProof) (TxResult, error)
	SubmitReveal(ctx context.Context, poolKey domain.PoolKey, intent domain.SwapIntent) (TxResult, error)
	SubmitRevealForZK(ctx context.Context, poolKey domain.PoolKey, hash domain.CommitmentHash, intent domain.SwapIntent) (TxResult, error)
	RevealAndBatchExecute(ctx context.Context, poolKey domain.PoolKey, hashes []domain.CommitmentHash) (TxResult, error)
	RevealAndBatchExecuteWithProofs(ctx context.Context, poolKey domain.PoolKey, hashes []domain.CommitmentHash, proofs []ZkProof) (TxResult, error)
	Checker(ctx context.Context, poolID [32]byte) (CheckerResult, error)
	GetPendingCommitmentCount(ctx context.Context, poolID [32]byte) (uint32, error)
	IsCommitmentVerified(ctx context.Context, hash domain.CommitmentHash) (bool, error)
	GetMinCommitments(ctx context.Context) (uint32, error)
}

// ComputeKeccakCommitmentHash and GetPoolID are pure and deterministic;
// they live on domain types directly (domain.ComputeCommitmentHash,
// domain.PoolKey.PoolID) since they need no transport. Re-exported here
// so callers that only import hookclient still reach them.
var (
	ComputeKeccakCommitmentHash = domain.ComputeCommitmentHash
)

func GetPoolID(key domain.PoolKey) ([32]byte, error) { return key.PoolID() }
