// Package momentum implements the momentum strategy, spec §4.5.1:
// trade in the direction of a composite 1h/24h price-change signal, with
// optional volume and trend confirmation.
package momentum

import (
	"fmt"
	"math"
	"time"

	"github.com/Belloabraham121/privbatch/internal/domain"
	"github.com/Belloabraham121/privbatch/internal/strategy"
)

const ID = "momentum"

type Strategy struct {
	strategy.Toolkit
	Config Config
}

func New(cfg Config) *Strategy {
	return &Strategy{Toolkit: strategy.NewToolkit(ID), Config: cfg}
}

func (s *Strategy) ID() string { return ID }

func (s *Strategy) ShouldTrade(m domain.MarketData, now time.Time) domain.TradeDecision {
	outcome := strategy.ValidateMarketData(m, strategy.NowMs(now))
	if !outcome.IsValid {
		return domain.NoTrade(fmt.Sprintf("invalid market data: %v", outcome.Errors))
	}

	if s.Cooldown.IsCooldownActive(m.PoolID, time.Duration(s.Config.CooldownSecs)*time.Second, now) {
		return domain.NoTrade("cooldown active")
	}

	d1h, d24h := m.PriceChange1hPct, m.PriceChange24hPct

	// 1. Volatility guard.
	if math.Abs(d1h) > s.Config.MaxVolatilityPct || math.Abs(d24h) > s.Config.MaxVolatilityPct {
		return domain.NoTrade("volatility exceeds max_volatility_pct")
	}

	// 2. Composite signal vs. weighted threshold.
	composite := d1h*s.Config.ShortWeight + d24h*s.Config.LongWeight
	requiredMagnitude := s.Config.Threshold1hPct*s.Config.ShortWeight + s.Config.Threshold24hPct*s.Config.LongWeight
	if math.Abs(composite) < requiredMagnitude {
		return domain.NoTrade("composite signal below threshold")
	}

	// 3. Optional volume confirmation.
	if s.Config.RequireVolumeConfirmation {
		minVol := domain.BigIntOrZero(s.Config.MinVolumeThreshold)
		if domain.BigIntOrZero(m.Volume1h).Cmp(minVol) < 0 {
			return domain.NoTrade("volume_1h below min_volume_threshold")
		}
	}

	dir := domain.ZeroForOne
	if composite <= 0 {
		dir = domain.OneForZero
	}

	// 4. Trend confirmation over the last N recent swaps.
	trendMultiplier := trendConfirmationMultiplier(m.RecentSwaps, s.Config.TrendConfirmationSwaps, composite > 0)

	// 5. Confidence from both deltas, weighted, with an alignment bonus.
	conf1h := math.Abs(d1h) / (3 * s.Config.Threshold1hPct)
	conf24h := math.Abs(d24h) / (3 * s.Config.Threshold24hPct)
	confidence := conf1h*s.Config.ShortWeight + conf24h*s.Config.LongWeight
	if totalWeight := s.Config.ShortWeight + s.Config.LongWeight; totalWeight > 0 {
		confidence /= totalWeight
	}
	if sameSign(d1h, d24h) {
		confidence += 0.15
	} else {
		confidence -= 0.15
	}
	confidence *= trendMultiplier
	if confidence > 1.0 {
		confidence = 1.0
	}
	confidence = domain.ClampConfidence(confidence)
	if confidence < 0.1 {
		confidence = 0.1
	}

	// 6. Amount sizing and min-out.
	amountIn := strategy.ScaleAmountByConfidence(confidence, s.Config.Bounds)
	minOut := strategy.ComputeMinAmountOut(amountIn, m.CurrentPrice, dir, s.Config.SlippageBps)

	s.Cooldown.RecordTrade(m.PoolID, now)
	return domain.TradeDecision{
		ShouldTrade:  true,
		Direction:    dir,
		AmountIn:     amountIn,
		MinAmountOut: minOut,
		Confidence:   confidence,
		Reasoning:    fmt.Sprintf("composite=%.4f trend_mult=%.2f", composite, trendMultiplier),
	}
}

// trendConfirmationMultiplier checks the last n recent swaps against the
// expected direction (uptrend: zero_for_one==false counts as aligned;
// downtrend is symmetric). >=60% alignment yields 1.2 (capped at 1.0 by
// the caller), otherwise 0.7.
func trendConfirmationMultiplier(swaps []domain.Swap, n int, uptrendExpected bool) float64 {
	if n <= 0 || len(swaps) == 0 {
		return 1.0
	}
	window := swaps
	if len(window) > n {
		window = window[len(window)-n:]
	}
	aligned := 0
	for _, sw := range window {
		swapIsUp := !sw.ZeroForOne
		if swapIsUp == uptrendExpected {
			aligned++
		}
	}
	ratio := float64(aligned) / float64(len(window))
	if ratio >= 0.6 {
		return 1.2
	}
	return 0.7
}

func sameSign(a, b float64) bool {
	if a == 0 || b == 0 {
		return false
	}
	return (a > 0) == (b > 0)
}
