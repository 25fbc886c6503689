// Package bigmath holds the integer-precision helpers the strategy
// runtime and min-out computation need. Every token-amount computation
// in this repository goes through here rather than through float64, per
// spec §9's ban on floating-point in the amount-arithmetic path.
package bigmath

import (
	"math/big"

	emath "github.com/ethereum/go-ethereum/common/math"
	"github.com/shopspring/decimal"
)

// Price1e18 is the fixed-point scale spec §4.5 uses for min-out math.
var Price1e18 = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// FloorPriceToFixed computes floor(price * 10^18) as a *big.Int, with
// truncation toward zero for non-negative prices per spec §9's
// banker-independent-truncation note. A non-positive price floors to 0.
func FloorPriceToFixed(price decimal.Decimal) *big.Int {
	if price.Sign() <= 0 {
		return new(big.Int)
	}
	scaled := price.Mul(decimal.NewFromBigInt(Price1e18, 0))
	// decimal.Truncate(0) truncates toward zero, matching the spec's
	// floor-toward-zero requirement for non-negative inputs.
	return scaled.Truncate(0).BigInt()
}

// Clamp returns v clamped to [lo, hi]. Mirrors go-ethereum's
// common/math clamp helpers used elsewhere in the corpus for bounding
// on-chain integer values.
func Clamp(v, lo, hi *big.Int) *big.Int {
	return emath.BigMin(emath.BigMax(v, lo), hi)
}

// MulDiv computes floor(a * b / d) using 512-bit intermediate precision,
// the way go-ethereum's math helpers avoid overflow for uint256-sized
// on-chain quantities.
func MulDiv(a, b, d *big.Int) *big.Int {
	if d.Sign() == 0 {
		return new(big.Int)
	}
	prod := new(big.Int).Mul(a, b)
	return new(big.Int).Div(prod, d)
}

// ScaleLinear linearly maps factor f (clamped to [0,1]) onto
// [min, min + floor(f*100)/100 * (max-min)], preserving big-integer
// precision: f is first quantized to an integer in [0,100] so the scale
// step is an exact MulDiv, never a floating intermediate, per spec
// §4.5's amount-scaling invariant.
func ScaleLinear(f float64, min, max *big.Int) *big.Int {
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	quantized := big.NewInt(int64(f * 100)) // floor(f*100)
	span := new(big.Int).Sub(max, min)
	scaledSpan := MulDiv(span, quantized, big.NewInt(100))
	return new(big.Int).Add(min, scaledSpan)
}
