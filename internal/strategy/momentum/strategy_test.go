package momentum

import (
	"math/big"
	"testing"
	"testing/quick"
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

func baseConfig() Config {
	return Config{
		Threshold1hPct:     1.0,
		Threshold24hPct:    2.0,
		ShortWeight:        0.5,
		LongWeight:         0.5,
		MinVolumeThreshold: big.NewInt(0),
		CooldownSecs:       60,
		MaxVolatilityPct:   50,
		SlippageBps:        50,
		Bounds:             strategy.AmountBounds{MinAmountIn: big.NewInt(1), MaxAmountIn: big.NewInt(1_000_000)},
	}
}

func sampleMarketData(key domain.PoolKey, d1h, d24h float64, volume1h int64) domain.MarketData {
	return domain.MarketData{
		PoolID:            samplePoolID(key),
		PoolKey:           key,
		CurrentPrice:      decimal.NewFromInt(1),
		PriceChange1hPct:  d1h,
		PriceChange24hPct: d24h,
		TotalLiquidity:    big.NewInt(1_000_000),
		Liquidity0:        big.NewInt(500_000),
		Liquidity1:        big.NewInt(500_000),
		Volume1h:          big.NewInt(volume1h),
		Volume24h:         big.NewInt(volume1h * 10),
		CapturedAtMs:      time.Now().UnixMilli(),
	}
}

// Scenario 6: momentum round-trip.
func TestMomentum_RoundTrip(t *testing.T) {
	s := New(baseConfig())
	key := samplePoolKey()
	now := time.Now()

	m := sampleMarketData(key, 3.0, 8.0, 500)
	decision := s.ShouldTrade(m, now)

	require.True(t, decision.ShouldTrade)
	assert.Equal(t, domain.ZeroForOne, decision.Direction)
	assert.Greater(t, decision.Confidence, 0.0)

	again := s.ShouldTrade(m, now.Add(time.Second))
	assert.False(t, again.ShouldTrade)
	assert.Contains(t, again.Reasoning, "cooldown")
}

func TestMomentum_NegativeCompositeTradesOneForZero(t *testing.T) {
	s := New(baseConfig())
	key := samplePoolKey()
	m := sampleMarketData(key, -3.0, -8.0, 500)

	decision := s.ShouldTrade(m, time.Now())
	require.True(t, decision.ShouldTrade)
	assert.Equal(t, domain.OneForZero, decision.Direction)
}

func TestMomentum_BelowThresholdDoesNotTrade(t *testing.T) {
	s := New(baseConfig())
	key := samplePoolKey()
	m := sampleMarketData(key, 0.1, 0.1, 500)

	decision := s.ShouldTrade(m, time.Now())
	assert.False(t, decision.ShouldTrade)
	assert.Contains(t, decision.Reasoning, "threshold")
}

func TestMomentum_ExceedsVolatilityGuardDoesNotTrade(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxVolatilityPct = 5
	s := New(cfg)
	key := samplePoolKey()
	m := sampleMarketData(key, 30.0, 40.0, 500)

	decision := s.ShouldTrade(m, time.Now())
	assert.False(t, decision.ShouldTrade)
	assert.Contains(t, decision.Reasoning, "volatility")
}

// Universal property: whenever should_trade is true, amount_in stays
// within [min_amount_in, max_amount_in] and confidence stays in [0, 1].
func TestMomentum_TradeDecisionStaysWithinBounds(t *testing.T) {
	cfg := baseConfig()
	s := New(cfg)
	key := samplePoolKey()

	f := func(seed uint16) bool {
		d1h := float64(seed%400)/10 - 20   // [-20, 20)
		d24h := float64((seed/3)%400)/10 - 20
		m := sampleMarketData(key, d1h, d24h, 500)
		decision := s.ShouldTrade(m, time.Now().Add(time.Duration(seed)*time.Hour))
		if !decision.ShouldTrade {
			return true
		}
		if decision.Confidence < 0 || decision.Confidence > 1 {
			return false
		}
		if decision.AmountIn.Cmp(cfg.Bounds.MinAmountIn) < 0 || decision.AmountIn.Cmp(cfg.Bounds.MaxAmountIn) > 0 {
			return false
		}
		return true
	}
	require.NoError(t, quick.Check(f, &quick.Config{MaxCount: 200}))
}

func TestMomentum_InvalidMarketDataRefusesToTrade(t *testing.T) {
	s := New(baseConfig())
	decision := s.ShouldTrade(domain.MarketData{}, time.Now())
	assert.False(t, decision.ShouldTrade)
	assert.Contains(t, decision.Reasoning, "invalid market data")
}
