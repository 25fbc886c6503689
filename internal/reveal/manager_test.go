package reveal

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Belloabraham121/privbatch/internal/domain"
)

type fakeHook struct {
	result TxResult
	err    error
}

func (f *fakeHook) SubmitReveal(ctx context.Context, poolKey domain.PoolKey, intent domain.SwapIntent) (TxResult, error) {
	return f.result, f.err
}

func (f *fakeHook) SubmitRevealForZK(ctx context.Context, poolKey domain.PoolKey, hash domain.CommitmentHash, intent domain.SwapIntent) (TxResult, error) {
	return f.result, f.err
}

func sampleIntent(deadline int64) domain.SwapIntent {
	return domain.SwapIntent{
		User:         common.HexToAddress("0x1111111111111111111111111111111111111111"),
		TokenIn:      common.HexToAddress("0x2222222222222222222222222222222222222222"),
		TokenOut:     common.HexToAddress("0x3333333333333333333333333333333333333333"),
		AmountIn:     big.NewInt(1000),
		MinAmountOut: big.NewInt(990),
		Recipient:    common.HexToAddress("0x4444444444444444444444444444444444444444"),
		Nonce:        big.NewInt(1),
		DeadlineUnix: deadline,
	}
}

func addSampleReveal(t *testing.T, m *Manager, poolID [32]byte, nonce int64) domain.CommitmentHash {
	t.Helper()
	intent := sampleIntent(time.Now().Add(time.Hour).Unix())
	intent.Nonce = big.NewInt(nonce)
	hash, err := domain.ComputeCommitmentHash(intent)
	require.NoError(t, err)
	m.AddReveal(hash, intent, domain.PoolKey{}, poolID, false)
	return hash
}

func TestManager_AddRevealEmitsNotify(t *testing.T) {
	m := NewManager(&fakeHook{})
	var poolID [32]byte
	addSampleReveal(t, m, poolID, 1)

	select {
	case <-m.Notify():
	case <-time.After(time.Second):
		t.Fatal("expected a notify signal after AddReveal")
	}
}

func TestManager_AddRevealIgnoresDuplicateHash(t *testing.T) {
	m := NewManager(&fakeHook{})
	var poolID [32]byte
	hash := addSampleReveal(t, m, poolID, 1)

	intent := sampleIntent(time.Now().Add(time.Hour).Unix())
	m.AddReveal(hash, intent, domain.PoolKey{}, poolID, false)

	assert.Len(t, m.GetRevealsForPool(poolID), 1)
}

func TestManager_GetRevealsForPoolPreservesFIFOOrder(t *testing.T) {
	m := NewManager(&fakeHook{})
	var poolID [32]byte
	h1 := addSampleReveal(t, m, poolID, 1)
	h2 := addSampleReveal(t, m, poolID, 2)
	h3 := addSampleReveal(t, m, poolID, 3)

	got := m.GetRevealsForPool(poolID)
	require.Len(t, got, 3)
	assert.Equal(t, h1, got[0].CommitmentHash)
	assert.Equal(t, h2, got[1].CommitmentHash)
	assert.Equal(t, h3, got[2].CommitmentHash)
}

func TestManager_SubmitAllRevealsMarksSuccessSubmitted(t *testing.T) {
	m := NewManager(&fakeHook{result: TxResult{TxHash: "0xabc", Success: true}})
	var poolID [32]byte
	addSampleReveal(t, m, poolID, 1)

	outcomes := m.SubmitAllReveals(context.Background())
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Success)
	assert.Len(t, m.GetSubmittedHashesForPool(poolID), 1)
	assert.Equal(t, uint32(0), m.GetPendingCount())
}

func TestManager_SubmitAllRevealsKeepsFailedPending(t *testing.T) {
	m := NewManager(&fakeHook{result: TxResult{Success: false}})
	var poolID [32]byte
	addSampleReveal(t, m, poolID, 1)

	outcomes := m.SubmitAllReveals(context.Background())
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Success)
	assert.Empty(t, m.GetSubmittedHashesForPool(poolID))
	assert.Equal(t, uint32(1), m.GetPendingCount())
}

func TestManager_ValidateReveal_RejectsExpiredDeadline(t *testing.T) {
	intent := sampleIntent(time.Now().Add(-time.Hour).Unix())
	hash, err := domain.ComputeCommitmentHash(intent)
	require.NoError(t, err)

	result := ValidateReveal(domain.RevealData{CommitmentHash: hash, Intent: intent}, time.Now())
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "deadline already elapsed")
}

func TestManager_ValidateReveal_RejectsHashMismatch(t *testing.T) {
	intent := sampleIntent(time.Now().Add(time.Hour).Unix())
	result := ValidateReveal(domain.RevealData{CommitmentHash: domain.CommitmentHash{0xFF}, Intent: intent}, time.Now())
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "commitment hash mismatch")
}

func TestManager_ClearExecutedRevealsRemovesEntry(t *testing.T) {
	m := NewManager(&fakeHook{result: TxResult{Success: true}})
	var poolID [32]byte
	hash := addSampleReveal(t, m, poolID, 1)

	m.ClearExecutedReveals([]domain.CommitmentHash{hash})
	assert.Empty(t, m.GetRevealsForPool(poolID))
}

func TestManager_ClearPoolDropsOnlyThatPool(t *testing.T) {
	m := NewManager(&fakeHook{})
	var poolA, poolB [32]byte
	poolA[0], poolB[0] = 1, 2
	addSampleReveal(t, m, poolA, 1)
	addSampleReveal(t, m, poolB, 2)

	m.ClearPool(poolA)
	assert.Empty(t, m.GetRevealsForPool(poolA))
	assert.Len(t, m.GetRevealsForPool(poolB), 1)
}
