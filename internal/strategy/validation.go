package strategy

import (
	"math"
	"time"

	"github.com/Belloabraham121/privbatch/internal/domain"
)

// ValidationOutcome is the (is_valid, errors, warnings) triple spec
// §4.5 requires for market-data validation.
type ValidationOutcome struct {
	IsValid  bool
	Errors   []string
	Warnings []string
}

// ValidateMarketData implements spec §4.5's market-data validation:
// errors block a trade decision outright, warnings are advisory.
func ValidateMarketData(m domain.MarketData, nowMs int64) ValidationOutcome {
	var errs, warns []string

	if m.PoolID == ([32]byte{}) {
		errs = append(errs, "missing pool_id")
	}
	if (m.PoolKey == domain.PoolKey{}) {
		errs = append(errs, "missing pool_key")
	}
	if m.CurrentPrice.Sign() <= 0 {
		errs = append(errs, "current_price is not a positive finite number")
	}
	if m.TotalLiquidity == nil || m.TotalLiquidity.Sign() < 0 {
		errs = append(errs, "total_liquidity is not a non-negative integer")
	}
	if m.Volume1h == nil || m.Volume1h.Sign() < 0 {
		errs = append(errs, "volume_1h is not a non-negative integer")
	}
	if m.Volume24h == nil || m.Volume24h.Sign() < 0 {
		errs = append(errs, "volume_24h is not a non-negative integer")
	}

	if m.IsStale(nowMs) {
		warns = append(warns, "market data is stale")
	}
	if math.Abs(m.PriceChange1hPct) > 100 {
		warns = append(warns, "extreme 1h price change")
	}
	if math.Abs(m.PriceChange24hPct) > 200 {
		warns = append(warns, "extreme 24h price change")
	}
	if m.TotalLiquidity != nil && m.TotalLiquidity.Sign() == 0 {
		warns = append(warns, "zero total liquidity")
	}

	return ValidationOutcome{IsValid: len(errs) == 0, Errors: errs, Warnings: warns}
}

// NowMs is the single conversion point from wall-clock time to the
// millisecond epoch timestamps spec §3 uses throughout.
func NowMs(t time.Time) int64 { return t.UnixMilli() }
