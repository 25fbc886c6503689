// Package liquidity implements the liquidity strategy, spec §4.5.3:
// trade on pool-liquidity imbalance, volume-to-liquidity spikes, and
// sudden liquidity changes.
package liquidity

import (
	"fmt"
	"math"
	"math/big"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Belloabraham121/privbatch/internal/domain"
	"github.com/Belloabraham121/privbatch/internal/strategy"
)

const ID = "liquidity"

type Strategy struct {
	strategy.Toolkit
	Config Config

	mu             sync.Mutex
	prevLiquidity  map[[32]byte]*big.Int
}

func New(cfg Config) *Strategy {
	return &Strategy{
		Toolkit:       strategy.NewToolkit(ID),
		Config:        cfg,
		prevLiquidity: make(map[[32]byte]*big.Int),
	}
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

	total := domain.BigIntOrZero(m.TotalLiquidity)
	if s.Config.MinTotalLiquidity != nil && total.Cmp(s.Config.MinTotalLiquidity) < 0 {
		return domain.NoTrade("total_liquidity below min_total_liquidity")
	}
	if s.Config.MaxTotalLiquidity != nil && s.Config.MaxTotalLiquidity.Sign() > 0 && total.Cmp(s.Config.MaxTotalLiquidity) > 0 {
		return domain.NoTrade("total_liquidity above max_total_liquidity")
	}

	liq0 := domain.BigIntOrZero(m.Liquidity0)
	liq1 := domain.BigIntOrZero(m.Liquidity1)
	imbalanceRatio, scarcer := imbalanceAnalysis(liq0, liq1)

	volToLiq := 0.0
	if total.Sign() > 0 {
		vol1h := new(big.Float).SetInt(domain.BigIntOrZero(m.Volume1h))
		tot := new(big.Float).SetInt(total)
		volToLiq, _ = new(big.Float).Quo(vol1h, tot).Float64()
	}

	imbalanceActive := imbalanceRatio >= s.Config.ImbalanceThreshold
	volActive := volToLiq >= s.Config.VolumeToLiquidityThreshold

	// Signal detection reads the previous observation; the stored value
	// is only advanced after detection, on this same tick (spec §9 Open
	// Question #2 — see DESIGN.md for why a single large swing fires once
	// and then becomes the new baseline).
	s.mu.Lock()
	prev := s.prevLiquidity[m.PoolID]
	s.mu.Unlock()
	changeActive := false
	if s.Config.DetectLiquidityChanges && prev != nil && prev.Sign() > 0 {
		diff := new(big.Float).SetInt(new(big.Int).Sub(total, prev))
		prevF := new(big.Float).SetInt(prev)
		pctChange, _ := new(big.Float).Quo(diff, prevF).Float64()
		changeActive = math.Abs(pctChange*100) >= s.Config.LiquidityChangeThresholdPct
	}

	active := 0
	if imbalanceActive {
		active++
	}
	if volActive {
		active++
	}
	if changeActive {
		active++
	}
	if active == 0 {
		s.recordObservedLiquidity(m.PoolID, total)
		return domain.NoTrade("no liquidity signal active")
	}
	combined := active > 1

	confidence := 0.0
	if imbalanceActive {
		severity := (imbalanceRatio - s.Config.ImbalanceThreshold) / s.Config.ImbalanceThreshold
		confidence += 0.3 + 0.4*domain.ClampConfidence(severity)
	}
	if volActive {
		if combined {
			confidence += 0.15
		} else {
			confidence += 0.25
		}
	}
	if changeActive {
		if combined {
			confidence += 0.1
		} else {
			confidence += 0.2
		}
	}
	confidence = domain.ClampConfidence(confidence)

	if confidence < s.Config.MinConfidence {
		s.recordObservedLiquidity(m.PoolID, total)
		return domain.NoTrade("confidence below min_confidence")
	}

	dir := directionFor(liq0, liq1, s.Config.TradeIntoImbalance)
	amountIn := sizeAmount(total, s.Config.PositionSizeFraction, confidence, s.Config.Bounds)
	minOut := strategy.ComputeMinAmountOut(amountIn, m.CurrentPrice, dir, s.Config.SlippageBps)

	s.Cooldown.RecordTrade(m.PoolID, now)
	s.recordObservedLiquidity(m.PoolID, total)

	return domain.TradeDecision{
		ShouldTrade:  true,
		Direction:    dir,
		AmountIn:     amountIn,
		MinAmountOut: minOut,
		Confidence:   confidence,
		Reasoning:    fmt.Sprintf("imbalance=%.4f scarcer=%s volToLiq=%.6f", imbalanceRatio, scarcer, volToLiq),
	}
}

func (s *Strategy) recordObservedLiquidity(poolID [32]byte, total *big.Int) {
	s.mu.Lock()
	s.prevLiquidity[poolID] = new(big.Int).Set(total)
	s.mu.Unlock()
}

func imbalanceAnalysis(liq0, liq1 *big.Int) (float64, ScarcerSide) {
	if liq0.Sign() == 0 && liq1.Sign() == 0 {
		return 1.0, Balanced
	}
	if liq0.Cmp(liq1) == 0 {
		return 1.0, Balanced
	}
	larger, smaller := liq0, liq1
	scarcer := ScarceToken1
	if liq1.Cmp(liq0) > 0 {
		larger, smaller = liq1, liq0
		scarcer = ScarceToken0
	}
	if smaller.Sign() == 0 {
		return math.Inf(1), scarcer
	}
	l := new(big.Float).SetInt(larger)
	sm := new(big.Float).SetInt(smaller)
	ratio, _ := new(big.Float).Quo(l, sm).Float64()
	return ratio, scarcer
}

// directionFor implements spec §4.5.3 literally: liquidity0 > liquidity1
// => ONE_FOR_ZERO when trading into imbalance; liquidity1 > liquidity0 =>
// ZERO_FOR_ONE. Inverted when tradeIntoImbalance is false.
func directionFor(liq0, liq1 *big.Int, tradeIntoImbalance bool) domain.Direction {
	into := domain.OneForZero
	if liq1.Cmp(liq0) > 0 {
		into = domain.ZeroForOne
	}
	if tradeIntoImbalance {
		return into
	}
	if into == domain.ZeroForOne {
		return domain.OneForZero
	}
	return domain.ZeroForOne
}

func sizeAmount(total *big.Int, fraction, confidence float64, bounds strategy.AmountBounds) *big.Int {
	totalDec := decimal.NewFromBigInt(total, 0)
	factor := decimal.NewFromFloat(fraction).Mul(decimal.NewFromFloat(confidence))
	amount := totalDec.Mul(factor).Truncate(0).BigInt()
	return strategy.ClampAmount(amount, bounds)
}
