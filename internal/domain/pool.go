// Package domain holds the value types shared by every subsystem of the
// batch-swap core: pools, intents, commitments, reveals, market-data
// snapshots and the agent/coordination state built on top of them.
package domain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// PoolKey identifies a pool. Immutable once constructed; pool_id is
// derived on demand, never stored redundantly on the struct.
type PoolKey struct {
	Currency0   common.Address
	Currency1   common.Address
	FeeBps      uint32
	TickSpacing int32
	Hooks       common.Address
}

var poolKeyTupleArgs = mustArgs(
	abi.Argument{Name: "currency0", Type: mustType("address")},
	abi.Argument{Name: "currency1", Type: mustType("address")},
	abi.Argument{Name: "fee", Type: mustType("uint32")},
	abi.Argument{Name: "tickSpacing", Type: mustType("int32")},
	abi.Argument{Name: "hooks", Type: mustType("address")},
)

// PoolID returns keccak256(abi-encode(currency0, currency1, fee,
// tickSpacing, hooks)) per spec §6.
func (k PoolKey) PoolID() ([32]byte, error) {
	encoded, err := poolKeyTupleArgs.Pack(
		k.Currency0, k.Currency1, k.FeeBps, k.TickSpacing, k.Hooks,
	)
	if err != nil {
		return [32]byte{}, fmt.Errorf("domain: encode pool key: %w", err)
	}
	return [32]byte(crypto.Keccak256Hash(encoded)), nil
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(fmt.Sprintf("domain: bad abi type %q: %v", t, err))
	}
	return typ
}

func mustArgs(args ...abi.Argument) abi.Arguments {
	return abi.Arguments(args)
}

// BigIntOrZero returns v, or a freshly-allocated zero if v is nil. Useful
// for normalizing optional on-chain integer fields before arithmetic.
func BigIntOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
