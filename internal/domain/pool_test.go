package domain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePoolKey() PoolKey {
	return PoolKey{
		Currency0:   common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Currency1:   common.HexToAddress("0x2222222222222222222222222222222222222222"),
		FeeBps:      3000,
		TickSpacing: 60,
		Hooks:       common.HexToAddress("0x3333333333333333333333333333333333333333"),
	}
}

func TestPoolKey_PoolIDDeterministic(t *testing.T) {
	k := samplePoolKey()

	id1, err := k.PoolID()
	require.NoError(t, err)
	id2, err := k.PoolID()
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.NotEqual(t, [32]byte{}, id1)
}

func TestPoolKey_PoolIDDiffersOnFeeChange(t *testing.T) {
	a := samplePoolKey()
	b := a
	b.FeeBps = 500

	idA, err := a.PoolID()
	require.NoError(t, err)
	idB, err := b.PoolID()
	require.NoError(t, err)

	assert.NotEqual(t, idA, idB)
}

func TestBigIntOrZero(t *testing.T) {
	assert.Equal(t, big.NewInt(0), BigIntOrZero(nil))
	assert.Equal(t, big.NewInt(42), BigIntOrZero(big.NewInt(42)))
}
