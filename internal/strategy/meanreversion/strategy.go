// Package meanreversion implements the mean-reversion strategy, spec
// §4.5.4: trade against a price's deviation from its own EMA, scaled by
// a z-score zone, with a regime-change cutoff.
package meanreversion

import (
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/Belloabraham121/privbatch/internal/domain"
	"github.com/Belloabraham121/privbatch/internal/strategy"
)

const ID = "mean_reversion"

type Strategy struct {
	strategy.Toolkit
	Config Config
	state  *stateStore
}

func New(cfg Config) *Strategy {
	return &Strategy{Toolkit: strategy.NewToolkit(ID), Config: cfg, state: newStateStore()}
}

func (s *Strategy) ID() string { return ID }

func (s *Strategy) ShouldTrade(m domain.MarketData, now time.Time) domain.TradeDecision {
	outcome := strategy.ValidateMarketData(m, strategy.NowMs(now))
	if !outcome.IsValid {
		return domain.NoTrade(fmt.Sprintf("invalid market data: %v", outcome.Errors))
	}

	price, _ := m.CurrentPrice.Float64()
	k := s.Config.smoothing()
	dataPoints, ema, emaSq := s.state.update(m.PoolID, price, now, k)

	variance := emaSq - ema*ema
	if variance < 0 {
		variance = 0
	}
	sigma := math.Sqrt(variance)

	if s.Cooldown.IsCooldownActive(m.PoolID, time.Duration(s.Config.CooldownSecs)*time.Second, now) {
		return domain.NoTrade("cooldown active")
	}

	if sigma == 0 {
		return domain.NoTrade("zero variance, no signal")
	}

	z := (price - ema) / sigma
	deviationPct := (price - ema) / ema * 100

	if math.Abs(z) > s.Config.MaxDevThreshold {
		return domain.NoTrade(fmt.Sprintf("regime change: |z|=%.4f exceeds max_dev_threshold", math.Abs(z)))
	}

	absZ := math.Abs(z)
	var confidence float64
	switch {
	case absZ >= s.Config.ExtremeDevThreshold:
		confidence = 0.9
	case absZ >= s.Config.StrongDevThreshold:
		confidence = 0.65
	case absZ >= s.Config.ModerateDevThreshold:
		confidence = 0.4
	default:
		return domain.NoTrade(fmt.Sprintf("|z|=%.4f below moderate_dev_threshold", absZ))
	}

	if s.Config.RequireVolumeConfirmation {
		if volumeConfirmed(m, s.Config.VolumeConfirmationRatio) {
			confidence *= 1.2
			if confidence > 1.0 {
				confidence = 1.0
			}
		} else {
			confidence *= 0.7
		}
	}

	if dataPoints < s.Config.MinDataPoints || confidence < s.Config.MinConfidence {
		return domain.NoTrade("insufficient data points or confidence below min_confidence")
	}

	dir := domain.ZeroForOne
	if z < 0 {
		dir = domain.OneForZero
	}

	amountIn := strategy.ScaleAmountByConfidence(confidence, s.Config.Bounds)
	minOut := strategy.ComputeMinAmountOut(amountIn, m.CurrentPrice, dir, s.Config.SlippageBps)

	s.Cooldown.RecordTrade(m.PoolID, now)
	return domain.TradeDecision{
		ShouldTrade:  true,
		Direction:    dir,
		AmountIn:     amountIn,
		MinAmountOut: minOut,
		Confidence:   confidence,
		Reasoning:    fmt.Sprintf("z=%.4f deviation_pct=%.4f", z, deviationPct),
	}
}

func volumeConfirmed(m domain.MarketData, ratioThreshold float64) bool {
	total := domain.BigIntOrZero(m.TotalLiquidity)
	if total.Sign() == 0 {
		return false
	}
	volF, _ := new(big.Float).SetInt(domain.BigIntOrZero(m.Volume1h)).Float64()
	totF, _ := new(big.Float).SetInt(total).Float64()
	if totF == 0 {
		return false
	}
	return volF/totF >= ratioThreshold
}
