// Package marketdata is the market-data ingestion layer, spec §3/§6: it
// turns raw pool reads into MarketData snapshots and caches them with a
// per-entry TTL. Grounded on the reference's
// internal/services.MarketDataService (clobClient + marketCache +
// background preload goroutine) — same shape, swapped for an on-chain
// pool source instead of a CLOB REST client.
package marketdata

import (
	"context"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Belloabraham121/privbatch/internal/domain"
	"github.com/Belloabraham121/privbatch/pkg/cache"
)

var log = logrus.WithField("component", "marketdata")

// PoolDataSource is the raw on-chain collaborator: it knows how to read
// a pool's current price, liquidity, and recent swap log, but nothing
// about caching or staleness. RPCSource (JSON-RPC eth_call against the
// pool reader contract) and FakeSource (for tests) both satisfy it.
type PoolDataSource interface {
	FetchPoolState(ctx context.Context, poolKey domain.PoolKey) (PoolState, error)
}

// PoolState is the raw reading a PoolDataSource returns; Fetcher wraps
// it into a domain.MarketData snapshot by stamping pool_id and
// captured_at_ms.
type PoolState struct {
	CurrentPrice      float64
	PriceChange1hPct  float64
	PriceChange24hPct float64
	TotalLiquidity    *big.Int
	Liquidity0        *big.Int
	Liquidity1        *big.Int
	Volume1h          *big.Int
	Volume24h         *big.Int
	RecentSwaps       []domain.Swap
}

// Fetcher implements spec §4's market-data collaborator surface:
// fetch_market_data, calculate_volume, clear_cache, clear_all_cache.
type Fetcher struct {
	source PoolDataSource
	cache  *cache.InMemoryCache[[32]byte, domain.MarketData]
	ttl    time.Duration
}

func NewFetcher(source PoolDataSource, ttl time.Duration) *Fetcher {
	if ttl <= 0 {
		ttl = domain.StaleAfter
	}
	return &Fetcher{
		source: source,
		cache:  cache.NewInMemoryCache[[32]byte, domain.MarketData](ttl),
		ttl:    ttl,
	}
}

// FetchMarketData returns a cached snapshot if one is fresh, otherwise
// reads through to the source and caches the result. nowMs is supplied
// by the caller so staleness checks stay deterministic in tests.
func (f *Fetcher) FetchMarketData(ctx context.Context, poolKey domain.PoolKey, nowMs int64) (domain.MarketData, error) {
	poolID, err := poolKey.PoolID()
	if err != nil {
		return domain.MarketData{}, domain.NewError(domain.ErrInvalidMarketData, "cannot derive pool id: "+err.Error())
	}

	if cached, ok := f.cache.Get(poolID); ok && !cached.IsStale(nowMs) {
		return cached, nil
	}

	state, err := f.source.FetchPoolState(ctx, poolKey)
	if err != nil {
		return domain.MarketData{}, domain.WrapError(domain.ErrInvalidMarketData, "fetch pool state failed", err)
	}

	snapshot := domain.MarketData{
		PoolID:            poolID,
		PoolKey:           poolKey,
		CurrentPrice:      decimal.NewFromFloat(state.CurrentPrice),
		PriceChange1hPct:  state.PriceChange1hPct,
		PriceChange24hPct: state.PriceChange24hPct,
		TotalLiquidity:    state.TotalLiquidity,
		Liquidity0:        state.Liquidity0,
		Liquidity1:        state.Liquidity1,
		Volume1h:          state.Volume1h,
		Volume24h:         state.Volume24h,
		RecentSwaps:       state.RecentSwaps,
		CapturedAtMs:      nowMs,
	}
	f.cache.Set(poolID, snapshot, f.ttl)
	log.WithField("pool_id", poolID).Debug("market data refreshed")
	return snapshot, nil
}

// CalculateVolume sums |amount0| + |amount1| over every swap within the
// trailing windowS seconds of now, per spec §6's calculate_volume.
func CalculateVolume(swaps []domain.Swap, windowS int64, now time.Time) *big.Int {
	cutoff := now.Add(-time.Duration(windowS) * time.Second)
	total := new(big.Int)
	for _, s := range swaps {
		if s.Timestamp.Before(cutoff) {
			continue
		}
		if s.Amount0 != nil {
			total.Add(total, new(big.Int).Abs(s.Amount0))
		}
		if s.Amount1 != nil {
			total.Add(total, new(big.Int).Abs(s.Amount1))
		}
	}
	return total
}

// maxRecentSwaps bounds how many live swap events IngestSwap keeps per
// pool; the momentum strategy's trend confirmation only ever looks at
// a small trailing window (TrendConfirmationSwaps), so there is no
// value in retaining more.
const maxRecentSwaps = 50

// IngestSwap folds a live swap event (from SwapFeed) into the cached
// snapshot for poolID, if one exists. Per domain.MarketData's
// immutability invariant this builds a new snapshot value rather than
// mutating the cached one in place; a pool with no cached snapshot yet
// is a no-op, since there is nothing to append the swap to until the
// first FetchMarketData populates it.
func (f *Fetcher) IngestSwap(poolID [32]byte, swap domain.Swap) {
	cached, ok := f.cache.Get(poolID)
	if !ok {
		return
	}

	swaps := append(append([]domain.Swap{}, cached.RecentSwaps...), swap)
	if len(swaps) > maxRecentSwaps {
		swaps = swaps[len(swaps)-maxRecentSwaps:]
	}

	snapshot := cached
	snapshot.RecentSwaps = swaps
	snapshot.CapturedAtMs = swap.Timestamp.UnixMilli()
	f.cache.Set(poolID, snapshot, f.ttl)
}

// ClearCache discards the cached snapshot for one pool, forcing the
// next fetch to read through.
func (f *Fetcher) ClearCache(poolID [32]byte) {
	f.cache.Delete(poolID)
}

// ClearAllCache discards every cached snapshot.
func (f *Fetcher) ClearAllCache() {
	f.cache.Clear()
}
