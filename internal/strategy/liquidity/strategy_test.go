package liquidity

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Belloabraham121/privbatch/internal/domain"
	"github.com/Belloabraham121/privbatch/internal/strategy"
)

func samplePoolKey() domain.PoolKey {
	return domain.PoolKey{
		Currency0: common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Currency1: common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Hooks:     common.HexToAddress("0x3333333333333333333333333333333333333333"),
	}
}

func samplePoolID(key domain.PoolKey) [32]byte {
	id, err := key.PoolID()
	if err != nil {
		panic(err)
	}
	return id
}

func sampleMarketData(key domain.PoolKey, liq0, liq1, volume1h int64) domain.MarketData {
	return domain.MarketData{
		PoolID:         samplePoolID(key),
		PoolKey:        key,
		CurrentPrice:   decimal.NewFromInt(1),
		TotalLiquidity: new(big.Int).Add(big.NewInt(liq0), big.NewInt(liq1)),
		Liquidity0:     big.NewInt(liq0),
		Liquidity1:     big.NewInt(liq1),
		Volume1h:       big.NewInt(volume1h),
		Volume24h:      big.NewInt(volume1h * 10),
		CapturedAtMs:   time.Now().UnixMilli(),
	}
}

func baseConfig() Config {
	return Config{
		ImbalanceThreshold:         2,
		MinTotalLiquidity:          big.NewInt(0),
		VolumeToLiquidityThreshold: 10,
		CooldownSecs:               60,
		TradeIntoImbalance:         true,
		MinConfidence:              0.1,
		PositionSizeFraction:       0.01,
		SlippageBps:                50,
		Bounds:                     strategy.AmountBounds{MinAmountIn: big.NewInt(1), MaxAmountIn: big.NewInt(1_000_000)},
	}
}

func TestLiquidity_ImbalancedPoolTradesIntoImbalance(t *testing.T) {
	s := New(baseConfig())
	key := samplePoolKey()
	m := sampleMarketData(key, 100, 1000, 0)

	decision := s.ShouldTrade(m, time.Now())
	require.True(t, decision.ShouldTrade)
	assert.Equal(t, domain.ZeroForOne, decision.Direction)
}

func TestLiquidity_TradeIntoImbalanceFalseInvertsDirection(t *testing.T) {
	cfg := baseConfig()
	cfg.TradeIntoImbalance = false
	s := New(cfg)
	key := samplePoolKey()
	m := sampleMarketData(key, 100, 1000, 0)

	decision := s.ShouldTrade(m, time.Now())
	require.True(t, decision.ShouldTrade)
	assert.Equal(t, domain.OneForZero, decision.Direction)
}

func TestLiquidity_BalancedPoolNoSignalDoesNotTrade(t *testing.T) {
	s := New(baseConfig())
	key := samplePoolKey()
	m := sampleMarketData(key, 500, 500, 0)

	decision := s.ShouldTrade(m, time.Now())
	assert.False(t, decision.ShouldTrade)
	assert.Contains(t, decision.Reasoning, "no liquidity signal")
}

func TestLiquidity_BelowMinTotalLiquidityDoesNotTrade(t *testing.T) {
	cfg := baseConfig()
	cfg.MinTotalLiquidity = big.NewInt(10_000_000)
	s := New(cfg)
	key := samplePoolKey()
	m := sampleMarketData(key, 100, 1000, 0)

	decision := s.ShouldTrade(m, time.Now())
	assert.False(t, decision.ShouldTrade)
	assert.Contains(t, decision.Reasoning, "min_total_liquidity")
}

func TestLiquidity_CooldownBlocksImmediateRetrade(t *testing.T) {
	s := New(baseConfig())
	key := samplePoolKey()
	m := sampleMarketData(key, 100, 1000, 0)
	now := time.Now()

	first := s.ShouldTrade(m, now)
	require.True(t, first.ShouldTrade)

	second := s.ShouldTrade(m, now.Add(time.Second))
	assert.False(t, second.ShouldTrade)
	assert.Contains(t, second.Reasoning, "cooldown")
}

func TestLiquidity_AmountStaysWithinBounds(t *testing.T) {
	cfg := baseConfig()
	s := New(cfg)
	key := samplePoolKey()
	m := sampleMarketData(key, 1, 1_000_000, 0)

	decision := s.ShouldTrade(m, time.Now())
	require.True(t, decision.ShouldTrade)
	assert.True(t, decision.AmountIn.Cmp(cfg.Bounds.MinAmountIn) >= 0)
	assert.True(t, decision.AmountIn.Cmp(cfg.Bounds.MaxAmountIn) <= 0)
	assert.GreaterOrEqual(t, decision.Confidence, 0.0)
	assert.LessOrEqual(t, decision.Confidence, 1.0)
}
