package domain

import (
	"math/big"
	"testing"
	"testing/quick"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleIntent() SwapIntent {
	return SwapIntent{
		User:         common.HexToAddress("0x1111111111111111111111111111111111111111"),
		TokenIn:      common.HexToAddress("0x2222222222222222222222222222222222222222"),
		TokenOut:     common.HexToAddress("0x3333333333333333333333333333333333333333"),
		AmountIn:     big.NewInt(1_000_000),
		MinAmountOut: big.NewInt(990_000),
		Recipient:    common.HexToAddress("0x4444444444444444444444444444444444444444"),
		Nonce:        big.NewInt(7),
		DeadlineUnix: 1_700_000_000,
	}
}

func TestComputeCommitmentHash_Deterministic(t *testing.T) {
	intent := sampleIntent()

	h1, err := ComputeCommitmentHash(intent)
	require.NoError(t, err)
	h2, err := ComputeCommitmentHash(intent)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.False(t, h1.IsZero())
}

func TestComputeCommitmentHash_FieldChangeChangesHash(t *testing.T) {
	base := sampleIntent()
	baseHash, err := ComputeCommitmentHash(base)
	require.NoError(t, err)

	changed := base
	changed.AmountIn = big.NewInt(1_000_001)
	changedHash, err := ComputeCommitmentHash(changed)
	require.NoError(t, err)

	assert.NotEqual(t, baseHash, changedHash)
}

// TestComputeCommitmentHash_NonceSensitivity is a property check: two
// intents differing only in nonce must never collide, matching spec
// §4.1's "unique per (pool_id, user) forever" nonce guarantee.
func TestComputeCommitmentHash_NonceSensitivity(t *testing.T) {
	property := func(nonceA, nonceB uint32) bool {
		if nonceA == nonceB {
			return true
		}
		base := sampleIntent()

		a := base
		a.Nonce = new(big.Int).SetUint64(uint64(nonceA))
		b := base
		b.Nonce = new(big.Int).SetUint64(uint64(nonceB))

		ha, err := ComputeCommitmentHash(a)
		if err != nil {
			return false
		}
		hb, err := ComputeCommitmentHash(b)
		if err != nil {
			return false
		}
		return ha != hb
	}
	require.NoError(t, quick.Check(property, nil))
}

func TestCommitmentHash_String(t *testing.T) {
	var h CommitmentHash
	assert.True(t, h.IsZero())
	assert.Equal(t, 64, len(h.String()))
}
