package momentum

import (
	"fmt"
	"math/big"

	"github.com/Belloabraham121/privbatch/internal/strategy"
)

// Config is the momentum strategy's tuning surface, spec §4.5.1.
type Config struct {
	Threshold1hPct            float64
	Threshold24hPct           float64
	ShortWeight               float64 // weight on the 1h delta
	LongWeight                float64 // weight on the 24h delta
	MinVolumeThreshold        *big.Int
	CooldownSecs              int
	MaxVolatilityPct          float64
	RequireVolumeConfirmation bool
	TrendConfirmationSwaps    int
	SlippageBps               uint32
	Bounds                    strategy.AmountBounds
}

func (c Config) Validate() error {
	if c.ShortWeight < 0 || c.LongWeight < 0 {
		return fmt.Errorf("momentum: weights must be non-negative")
	}
	if c.Bounds.MinAmountIn == nil || c.Bounds.MaxAmountIn == nil {
		return fmt.Errorf("momentum: amount bounds required")
	}
	if c.Bounds.MinAmountIn.Cmp(c.Bounds.MaxAmountIn) > 0 {
		return fmt.Errorf("momentum: min_amount_in exceeds max_amount_in")
	}
	return nil
}
