package liquidity

import (
	"math/big"

	"github.com/Belloabraham121/privbatch/internal/strategy"
)

// Config is the liquidity strategy's tuning surface, spec §4.5.3.
type Config struct {
	ImbalanceThreshold          float64 // ratio of larger/smaller side
	MinTotalLiquidity           *big.Int
	MaxTotalLiquidity           *big.Int // 0/nil = unbounded
	VolumeToLiquidityThreshold  float64
	CooldownSecs                int
	TradeIntoImbalance          bool
	MinConfidence               float64
	PositionSizeFraction        float64 // fraction of total liquidity
	DetectLiquidityChanges      bool
	LiquidityChangeThresholdPct float64
	SlippageBps                 uint32
	Bounds                      strategy.AmountBounds
}

// ScarcerSide is which token side of the pool is relatively scarce.
type ScarcerSide string

const (
	ScarceToken0 ScarcerSide = "token0"
	ScarceToken1 ScarcerSide = "token1"
	Balanced     ScarcerSide = "balanced"
)
