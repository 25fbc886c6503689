package domain

import "math/big"

// Direction: ZeroForOne sells currency0 into currency1; OneForZero is
// the inverse. Spec §3/§9 glossary.
type Direction string

const (
	ZeroForOne Direction = "ZERO_FOR_ONE"
	OneForZero Direction = "ONE_FOR_ZERO"
)

// DirectionFromPriceChange returns ZeroForOne if delta > 0, OneForZero if
// delta < 0, and "" (no direction) if delta == 0.
func DirectionFromPriceChange(deltaPct float64) Direction {
	switch {
	case deltaPct > 0:
		return ZeroForOne
	case deltaPct < 0:
		return OneForZero
	default:
		return ""
	}
}

// ConfidenceFromMagnitude implements max(0.1, min(|delta%|/10, 1.0)).
func ConfidenceFromMagnitude(deltaPct float64) float64 {
	mag := deltaPct
	if mag < 0 {
		mag = -mag
	}
	c := mag / 10
	if c > 1.0 {
		c = 1.0
	}
	if c < 0.1 {
		c = 0.1
	}
	return c
}

// ClampConfidence clamps c to [0, 1].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// TradeDecision is the output of Strategy.ShouldTrade.
type TradeDecision struct {
	ShouldTrade  bool
	Direction    Direction
	AmountIn     *big.Int
	MinAmountOut *big.Int
	Confidence   float64
	Reasoning    string
}

// NoTrade returns a TradeDecision that declines to trade, carrying reason
// in Reasoning so the caller (and tests) can inspect why.
func NoTrade(reason string) TradeDecision {
	return TradeDecision{ShouldTrade: false, Reasoning: reason}
}
