package domain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SwapIntent is immutable once constructed. Nonce is unique per
// (pool_id, user) forever; DeadlineUnix is a unix second.
type SwapIntent struct {
	User         common.Address
	TokenIn      common.Address
	TokenOut     common.Address
	AmountIn     *big.Int
	MinAmountOut *big.Int
	Recipient    common.Address
	Nonce        *big.Int
	DeadlineUnix int64
}

// CommitmentHash is a 32-byte digest of the abi-encoded SwapIntent
// fields in the fixed order the hook contract expects.
type CommitmentHash [32]byte

func (h CommitmentHash) String() string {
	return common.Bytes2Hex(h[:])
}

func (h CommitmentHash) IsZero() bool {
	return h == CommitmentHash{}
}

var intentTupleArgs = mustArgs(
	abi.Argument{Name: "user", Type: mustType("address")},
	abi.Argument{Name: "tokenIn", Type: mustType("address")},
	abi.Argument{Name: "tokenOut", Type: mustType("address")},
	abi.Argument{Name: "amountIn", Type: mustType("uint256")},
	abi.Argument{Name: "minAmountOut", Type: mustType("uint256")},
	abi.Argument{Name: "recipient", Type: mustType("address")},
	abi.Argument{Name: "nonce", Type: mustType("uint256")},
	abi.Argument{Name: "deadline", Type: mustType("uint256")},
)

// ComputeCommitmentHash is the pure, deterministic hash spec §4.1/§6
// requires to match the on-chain hash exactly: keccak256 of the
// abi-encoded tuple (user, tokenIn, tokenOut, amountIn, minAmountOut,
// recipient, nonce, deadline), in that order. Two intents produce equal
// hashes iff every field is equal.
func ComputeCommitmentHash(intent SwapIntent) (CommitmentHash, error) {
	amountIn := BigIntOrZero(intent.AmountIn)
	minOut := BigIntOrZero(intent.MinAmountOut)
	nonce := BigIntOrZero(intent.Nonce)
	deadline := new(big.Int).SetInt64(intent.DeadlineUnix)

	encoded, err := intentTupleArgs.Pack(
		intent.User,
		intent.TokenIn,
		intent.TokenOut,
		amountIn,
		minOut,
		intent.Recipient,
		nonce,
		deadline,
	)
	if err != nil {
		return CommitmentHash{}, fmt.Errorf("domain: encode intent: %w", err)
	}
	return CommitmentHash(crypto.Keccak256Hash(encoded)), nil
}
