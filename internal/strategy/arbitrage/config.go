package arbitrage

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Belloabraham121/privbatch/internal/strategy"
)

// ReferencePrice is one external or config-seeded reference quote.
type ReferencePrice struct {
	Price      decimal.Decimal
	Source     string
	Confidence float64 // source_confidence
	At         time.Time
}

// Config is the arbitrage strategy's tuning surface, spec §4.5.2.
type Config struct {
	MinSpreadPct      float64
	MaxSpreadPct      float64
	EstimatedGasCost  *big.Int
	MinNetProfit      *big.Int
	ReferencePrices    []ReferencePrice
	CooldownSecs       int
	MinLiquidity       *big.Int
	MaxSlippageBps     uint32
	SourceWeights      map[string]float64
	EnableCrossPool    bool
	Bounds             strategy.AmountBounds
}

// referenceMaxAge is the 5-minute staleness window spec §4.5.2 uses to
// discard references, matching domain.StaleAfter.
const referenceMaxAge = 5 * time.Minute

func (c Config) sourceWeight(source string) float64 {
	if w, ok := c.SourceWeights[source]; ok {
		return w
	}
	return 1.0
}
