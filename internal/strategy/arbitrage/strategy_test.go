package arbitrage

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

func sampleMarketData(key domain.PoolKey, price decimal.Decimal) domain.MarketData {
	return domain.MarketData{
		PoolID:         samplePoolID(key),
		PoolKey:        key,
		CurrentPrice:   price,
		TotalLiquidity: big.NewInt(1_000_000),
		Liquidity0:     big.NewInt(500_000),
		Liquidity1:     big.NewInt(500_000),
		Volume1h:       big.NewInt(1_000),
		Volume24h:      big.NewInt(10_000),
		CapturedAtMs:   time.Now().UnixMilli(),
	}
}

func baseConfig() Config {
	return Config{
		MinSpreadPct:     0.5,
		MaxSpreadPct:     10,
		EstimatedGasCost: big.NewInt(0),
		MinNetProfit:     big.NewInt(0),
		CooldownSecs:     60,
		MinLiquidity:     big.NewInt(0),
		MaxSlippageBps:   50,
		Bounds:           strategy.AmountBounds{MinAmountIn: big.NewInt(1), MaxAmountIn: big.NewInt(1_000_000)},
	}
}

func TestArbitrage_UnderpricedPoolBuysOneForZero(t *testing.T) {
	cfg := baseConfig()
	cfg.ReferencePrices = []ReferencePrice{{Price: decimal.NewFromFloat(1.10), Source: "cex", Confidence: 1.0, At: time.Now()}}
	s := New(cfg)
	key := samplePoolKey()
	m := sampleMarketData(key, decimal.NewFromInt(1))

	decision := s.ShouldTrade(m, time.Now())
	require.True(t, decision.ShouldTrade)
	assert.Equal(t, domain.OneForZero, decision.Direction)
}

func TestArbitrage_OverpricedPoolSellsZeroForOne(t *testing.T) {
	cfg := baseConfig()
	cfg.ReferencePrices = []ReferencePrice{{Price: decimal.NewFromFloat(0.90), Source: "cex", Confidence: 1.0, At: time.Now()}}
	s := New(cfg)
	key := samplePoolKey()
	m := sampleMarketData(key, decimal.NewFromInt(1))

	decision := s.ShouldTrade(m, time.Now())
	require.True(t, decision.ShouldTrade)
	assert.Equal(t, domain.ZeroForOne, decision.Direction)
}

func TestArbitrage_SpreadBelowMinDoesNotTrade(t *testing.T) {
	cfg := baseConfig()
	cfg.ReferencePrices = []ReferencePrice{{Price: decimal.NewFromFloat(1.001), Source: "cex", Confidence: 1.0, At: time.Now()}}
	s := New(cfg)
	key := samplePoolKey()
	m := sampleMarketData(key, decimal.NewFromInt(1))

	decision := s.ShouldTrade(m, time.Now())
	assert.False(t, decision.ShouldTrade)
}

func TestArbitrage_StaleReferenceIsIgnored(t *testing.T) {
	cfg := baseConfig()
	cfg.ReferencePrices = []ReferencePrice{{Price: decimal.NewFromFloat(1.5), Source: "cex", Confidence: 1.0, At: time.Now().Add(-time.Hour)}}
	s := New(cfg)
	key := samplePoolKey()
	m := sampleMarketData(key, decimal.NewFromInt(1))

	decision := s.ShouldTrade(m, time.Now())
	assert.False(t, decision.ShouldTrade)
	assert.Contains(t, decision.Reasoning, "no reference price")
}

func TestArbitrage_InjectedReferencePriceIsConsidered(t *testing.T) {
	cfg := baseConfig()
	s := New(cfg)
	key := samplePoolKey()
	poolID := samplePoolID(key)
	s.InjectReferencePrice(poolID, ReferencePrice{Price: decimal.NewFromFloat(1.05), Source: "dex", Confidence: 1.0, At: time.Now()})

	m := sampleMarketData(key, decimal.NewFromInt(1))
	decision := s.ShouldTrade(m, time.Now())
	require.True(t, decision.ShouldTrade)
}

func TestArbitrage_BelowMinLiquidityDoesNotTrade(t *testing.T) {
	cfg := baseConfig()
	cfg.MinLiquidity = big.NewInt(10_000_000)
	cfg.ReferencePrices = []ReferencePrice{{Price: decimal.NewFromFloat(1.2), Source: "cex", Confidence: 1.0, At: time.Now()}}
	s := New(cfg)
	key := samplePoolKey()
	m := sampleMarketData(key, decimal.NewFromInt(1))

	decision := s.ShouldTrade(m, time.Now())
	assert.False(t, decision.ShouldTrade)
	assert.Contains(t, decision.Reasoning, "liquidity")
}

func TestArbitrage_CooldownBlocksImmediateRetrade(t *testing.T) {
	cfg := baseConfig()
	cfg.ReferencePrices = []ReferencePrice{{Price: decimal.NewFromFloat(1.05), Source: "cex", Confidence: 1.0, At: time.Now()}}
	s := New(cfg)
	key := samplePoolKey()
	m := sampleMarketData(key, decimal.NewFromInt(1))
	now := time.Now()

	first := s.ShouldTrade(m, now)
	require.True(t, first.ShouldTrade)

	second := s.ShouldTrade(m, now.Add(time.Second))
	assert.False(t, second.ShouldTrade)
	assert.Contains(t, second.Reasoning, "cooldown")
}
