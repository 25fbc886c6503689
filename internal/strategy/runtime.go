package strategy

import (
	"math/big"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Belloabraham121/privbatch/internal/domain"
	"github.com/Belloabraham121/privbatch/pkg/bigmath"
)

// Strategy is the one operation every concrete strategy implements.
// Per spec §9's design note, strategies are a tagged variant over this
// single method; shared behavior (validation, cooldown, clamping) is
// composed in via Toolkit rather than inherited.
type Strategy interface {
	ID() string
	ShouldTrade(market domain.MarketData, now time.Time) domain.TradeDecision
}

// AmountBounds is the [min_amount_in, max_amount_in] clamp every emitted
// amount_in must satisfy (spec §3 invariant).
type AmountBounds struct {
	MinAmountIn *big.Int
	MaxAmountIn *big.Int
}

// Toolkit is the base decision kernel shared by every strategy: cooldown
// enforcement, bounded position sizing, and slippage-protected min-out
// computation. Strategies embed one Toolkit rather than a base class.
type Toolkit struct {
	Cooldown *CooldownTracker
	Log      *logrus.Entry
}

// NewToolkit builds a Toolkit with a fresh cooldown tracker and a
// logger scoped to the given strategy id, matching the reference's
// per-component logrus.WithField convention.
func NewToolkit(strategyID string) Toolkit {
	return Toolkit{
		Cooldown: NewCooldownTracker(),
		Log:      logrus.WithField("strategy", strategyID),
	}
}

// ClampAmount returns clamp(amount, bounds.MinAmountIn, bounds.MaxAmountIn).
func ClampAmount(amount *big.Int, bounds AmountBounds) *big.Int {
	return bigmath.Clamp(amount, bounds.MinAmountIn, bounds.MaxAmountIn)
}

// ScaleAmountByConfidence is the shared amount-sizing path of the
// momentum, arbitrage and mean-reversion strategies: a confidence-derived
// factor (already clamped to [0,1] by the caller) is linearly scaled
// across [min,max]. The liquidity strategy sizes from total liquidity
// instead (total * position fraction * confidence, clamped). This
// resolves spec §9's Open Question #1 — see DESIGN.md for the
// reasoning. No strategy may apply a second confidence multiplier on
// top of this call's result.
func ScaleAmountByConfidence(confidence float64, bounds AmountBounds) *big.Int {
	return bigmath.ScaleLinear(confidence, bounds.MinAmountIn, bounds.MaxAmountIn)
}
