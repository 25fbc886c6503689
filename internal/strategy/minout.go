package strategy

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/Belloabraham121/privbatch/internal/domain"
	"github.com/Belloabraham121/privbatch/pkg/bigmath"
)

// ComputeMinAmountOut implements spec §4.5's slippage-protected minimum
// output: P = floor(price*1e18); expected_out is P-scaled amountIn for
// the declared direction; min_out truncates expected_out by
// (10000-slippageBps)/10000 with integer division. Returns zero when
// price <= 0, and never exceeds the risk-free expected output for the
// declared direction (spec §3 invariant).
func ComputeMinAmountOut(amountIn *big.Int, price decimal.Decimal, dir domain.Direction, slippageBps uint32) *big.Int {
	p := bigmath.FloorPriceToFixed(price)
	if p.Sign() <= 0 {
		return new(big.Int)
	}

	var expectedOut *big.Int
	switch dir {
	case domain.ZeroForOne:
		expectedOut = bigmath.MulDiv(amountIn, p, bigmath.Price1e18)
	case domain.OneForZero:
		expectedOut = bigmath.MulDiv(amountIn, bigmath.Price1e18, p)
	default:
		return new(big.Int)
	}

	tolerance := big.NewInt(10000 - int64(slippageBps))
	return bigmath.MulDiv(expectedOut, tolerance, big.NewInt(10000))
}
