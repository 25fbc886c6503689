// Package arbitrage implements the arbitrage strategy, spec §4.5.2:
// compare the pool's current price against one or more reference prices
// and trade the spread when it clears a profitability bar.
package arbitrage

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

const ID = "arbitrage"

type opportunity struct {
	ref        ReferencePrice
	spreadPct  float64
	direction  domain.Direction
	confidence float64
	score      float64
}

type Strategy struct {
	strategy.Toolkit
	Config Config

	mu       sync.Mutex
	injected map[[32]byte][]ReferencePrice
}

func New(cfg Config) *Strategy {
	return &Strategy{
		Toolkit:  strategy.NewToolkit(ID),
		Config:   cfg,
		injected: make(map[[32]byte][]ReferencePrice),
	}
}

func (s *Strategy) ID() string { return ID }

// InjectReferencePrice adds an externally-observed reference price for
// poolID, used in addition to the statically configured ones.
func (s *Strategy) InjectReferencePrice(poolID [32]byte, p ReferencePrice) {
	s.mu.Lock()
	s.injected[poolID] = append(s.injected[poolID], p)
	s.mu.Unlock()
}

func (s *Strategy) ShouldTrade(m domain.MarketData, now time.Time) domain.TradeDecision {
	outcome := strategy.ValidateMarketData(m, strategy.NowMs(now))
	if !outcome.IsValid {
		return domain.NoTrade(fmt.Sprintf("invalid market data: %v", outcome.Errors))
	}

	if s.Cooldown.IsCooldownActive(m.PoolID, time.Duration(s.Config.CooldownSecs)*time.Second, now) {
		return domain.NoTrade("cooldown active")
	}

	if s.Config.MinLiquidity != nil && domain.BigIntOrZero(m.TotalLiquidity).Cmp(s.Config.MinLiquidity) < 0 {
		return domain.NoTrade("total_liquidity below min_liquidity")
	}

	refs := s.collectReferences(m.PoolID, now)
	var best *opportunity
	for _, ref := range refs {
		op := s.evaluate(ref, m.CurrentPrice)
		if op == nil {
			continue
		}
		if best == nil || op.score > best.score {
			best = op
		}
	}
	if best == nil {
		return domain.NoTrade("no reference price cleared the spread band")
	}

	amountIn := s.sizePosition(best, m.CurrentPrice)
	estimatedProfit := estimateProfit(amountIn, best.spreadPct)
	netProfit := new(big.Int).Sub(estimatedProfit, domain.BigIntOrZero(s.Config.EstimatedGasCost))
	if s.Config.MinNetProfit != nil && netProfit.Cmp(s.Config.MinNetProfit) < 0 {
		return domain.NoTrade("estimated net profit below min_net_profit")
	}

	minOut := strategy.ComputeMinAmountOut(amountIn, m.CurrentPrice, best.direction, s.Config.MaxSlippageBps)

	s.Cooldown.RecordTrade(m.PoolID, now)
	return domain.TradeDecision{
		ShouldTrade:  true,
		Direction:    best.direction,
		AmountIn:     amountIn,
		MinAmountOut: minOut,
		Confidence:   best.confidence,
		Reasoning:    fmt.Sprintf("spread=%.4f%% source=%s", best.spreadPct, best.ref.Source),
	}
}

func (s *Strategy) collectReferences(poolID [32]byte, now time.Time) []ReferencePrice {
	var out []ReferencePrice
	for _, r := range s.Config.ReferencePrices {
		if now.Sub(r.At) <= referenceMaxAge {
			out = append(out, r)
		}
	}
	s.mu.Lock()
	for _, r := range s.injected[poolID] {
		if now.Sub(r.At) <= referenceMaxAge {
			out = append(out, r)
		}
	}
	s.mu.Unlock()
	return out
}

func (s *Strategy) evaluate(ref ReferencePrice, current decimal.Decimal) *opportunity {
	if current.Sign() <= 0 {
		return nil
	}
	spreadPct, _ := ref.Price.Sub(current).Div(current).Mul(decimal.NewFromInt(100)).Float64()
	abs := math.Abs(spreadPct)
	if abs < s.Config.MinSpreadPct || abs > s.Config.MaxSpreadPct {
		return nil
	}

	dir := domain.OneForZero // pool underpriced relative to reference: buy
	if spreadPct <= 0 {
		dir = domain.ZeroForOne // pool overpriced: sell
	}

	confidence := abs / (5 * s.Config.MinSpreadPct) * ref.Confidence * s.Config.sourceWeight(ref.Source)
	confidence = domain.ClampConfidence(confidence)
	if confidence < 0.1 {
		confidence = 0.1
	}

	return &opportunity{
		ref:        ref,
		spreadPct:  spreadPct,
		direction:  dir,
		confidence: confidence,
		score:      abs * confidence,
	}
}

// sizePosition scales between [min,max] by min(confidence*spread/2, 1.0).
func (s *Strategy) sizePosition(op *opportunity, _ decimal.Decimal) *big.Int {
	f := op.confidence * math.Abs(op.spreadPct) / 2
	if f > 1.0 {
		f = 1.0
	}
	return strategy.ScaleAmountByConfidence(f, s.Config.Bounds)
}

// estimateProfit approximates the captured spread in token-amount terms:
// amountIn * |spread_pct| / 100, floored. This is the one place the
// strategy must turn a percentage into an integer amount outside the
// canonical min-out path, since spec §4.5.2 does not otherwise define
// "estimated_profit" — see DESIGN.md.
func estimateProfit(amountIn *big.Int, spreadPct float64) *big.Int {
	abs := math.Abs(spreadPct)
	bps := int64(abs * 100) // spreadPct in basis points, truncated
	return new(big.Int).Div(new(big.Int).Mul(amountIn, big.NewInt(bps)), big.NewInt(10000))
}
